package submission

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	dErrors "aieni/pkg/domain-errors"
)

const (
	MimeDoc  = "application/msword"
	MimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	// MaxFileBytes is the largest accepted document.
	MaxFileBytes = 5 * 1024 * 1024
)

const (
	msgFileMissing  = "Please upload your abstract as a Word document"
	msgFileType     = "Please upload a Word document only (.doc or .docx)"
	msgFileTooLarge = "File size must be less than 5MB"
)

// Upload is a document received with a submission.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// ContentTypeOf resolves the MIME type of an upload. A generic or missing
// declared type is replaced by the one implied by the extension.
func ContentTypeOf(name, declared string) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
		return mt
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".doc":
		return MimeDoc
	case ".docx":
		return MimeDocx
	}
	return declared
}

// Validate checks type and size. It returns a validation error whose message
// is shown to the submitter.
func (u *Upload) Validate() error {
	if u == nil || u.Name == "" {
		return dErrors.New(dErrors.CodeValidation, msgFileMissing)
	}
	switch ContentTypeOf(u.Name, u.ContentType) {
	case MimeDoc, MimeDocx:
	default:
		return dErrors.New(dErrors.CodeValidation, msgFileType)
	}
	if len(u.Data) > MaxFileBytes {
		return dErrors.New(dErrors.CodeValidation, msgFileTooLarge)
	}
	return nil
}

// Title is the file name without its extension.
func (u *Upload) Title() string {
	base := filepath.Base(u.Name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SizeLabel formats the size in megabytes with two decimals.
func (u *Upload) SizeLabel() string {
	return fmt.Sprintf("%.2f MB", float64(len(u.Data))/(1024*1024))
}
