package export

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
)

// Downloader delivers a finished document to the user.
type Downloader interface {
	Download(ctx context.Context, filename, mimeType, content string) error
}

// HTTPDownloader sends the document as an attachment response.
type HTTPDownloader struct {
	W http.ResponseWriter
}

func (d HTTPDownloader) Download(_ context.Context, filename, mimeType, content string) error {
	h := d.W.Header()
	h.Set("Content-Type", mimeType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	h.Set("Content-Length", strconv.Itoa(len(content)))
	d.W.WriteHeader(http.StatusOK)
	if _, err := d.W.Write([]byte(content)); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return nil
}

// FileDownloader writes the document into Dir. The file name is reduced to
// its base so it cannot escape Dir.
type FileDownloader struct {
	Dir string
	// Written is set to the path of the last file written.
	Written string
}

func (d *FileDownloader) Download(_ context.Context, filename, _ string, content string) error {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", d.Dir, err)
	}
	path := filepath.Join(d.Dir, filepath.Base(filename))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	d.Written = path
	return nil
}
