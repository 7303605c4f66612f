// Package submission holds the abstract submission record and everything the
// listing engine and exporter need to know about it.
package submission

import (
	"encoding/json"
	"strings"
	"time"

	"aieni/internal/records"
	dErrors "aieni/pkg/domain-errors"
	s "aieni/pkg/string"
)

type Status string

const (
	StatusPending  Status = "Pending Review"
	StatusAccepted Status = "Accepted"
	StatusRejected Status = "Rejected"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusPending, StatusAccepted, StatusRejected}

func (st Status) Valid() bool {
	switch st {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// BadgeClass is the CSS class of the status badge, e.g. "status-pending-review".
func (st Status) BadgeClass() string {
	return "status-" + strings.ReplaceAll(strings.ToLower(string(st)), " ", "-")
}

// ValidateStatus reports a validation error for anything but the three
// review statuses.
func ValidateStatus(v string) error {
	if Status(v).Valid() {
		return nil
	}
	return dErrors.New(dErrors.CodeValidation, "status must be one of [Pending Review, Accepted, Rejected]")
}

// Abstract is one submitted abstract. JSON names match the stored documents.
type Abstract struct {
	ID          string    `json:"id"`
	FullName    string    `json:"fullName"`
	FirstName   string    `json:"firstName,omitempty"`
	LastName    string    `json:"lastName,omitempty"`
	JobTitle    string    `json:"jobTitle"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Institution string    `json:"institution"`
	Country     string    `json:"country"`
	CoAuthors   CoAuthors `json:"coAuthors"`
	Title       string    `json:"title"`
	Abstract    string    `json:"abstract"`
	FileName    string    `json:"fileName"`
	FileSize    string    `json:"fileSize,omitempty"`
	FileKey     string    `json:"fileKey,omitempty"`
	Status      Status    `json:"status"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// UnmarshalJSON accepts the loose shapes of hand-edited documents: numeric
// ids and statuses, and empty or unparseable timestamps, which decode to the
// zero time.
func (a *Abstract) UnmarshalJSON(b []byte) error {
	type plain Abstract
	aux := struct {
		*plain
		ID          records.Text      `json:"id"`
		Status      records.Text      `json:"status"`
		SubmittedAt records.Timestamp `json:"submittedAt"`
	}{plain: (*plain)(a)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	a.ID = string(aux.ID)
	a.Status = Status(aux.Status)
	a.SubmittedAt = time.Time(aux.SubmittedAt)
	return nil
}

// CoAuthors decodes from either a JSON array or a comma-separated string.
type CoAuthors []string

func (c *CoAuthors) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, name := range list {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
		*c = out
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*c = s.SplitList(raw)
	return nil
}
