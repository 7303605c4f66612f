package submission

import (
	"strings"

	"aieni/internal/export"
	s "aieni/pkg/string"
)

const notAvailable = "N/A"

// Row is the display projection of an Abstract.
type Row struct {
	ID          string `json:"id"`
	FullName    string `json:"full_name"`
	Initials    string `json:"initials"`
	JobTitle    string `json:"job_title"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Institution string `json:"institution"`
	Country     string `json:"country"`
	Title       string `json:"title"`
	Abstract    string `json:"abstract,omitempty"`
	WordCount   int    `json:"word_count"`
	CoAuthors   string `json:"co_authors"`
	FileName    string `json:"file_name"`
	FileSize    string `json:"file_size"`
	HasFile     bool   `json:"has_file"`
	Status      Status `json:"status"`
	StatusClass string `json:"status_class"`
	Submitted   string `json:"submitted"`
}

func RenderRow(a Abstract) Row {
	return Row{
		ID:          a.ID,
		FullName:    a.FullName,
		Initials:    s.Initials(a.FirstName, a.LastName),
		JobTitle:    orNA(a.JobTitle),
		Email:       a.Email,
		Phone:       orNA(a.Phone),
		Institution: a.Institution,
		Country:     a.Country,
		Title:       a.Title,
		Abstract:    a.Abstract,
		WordCount:   len(strings.Fields(a.Abstract)),
		CoAuthors:   strings.Join(a.CoAuthors, ", "),
		FileName:    orNA(a.FileName),
		FileSize:    orNA(a.FileSize),
		HasFile:     a.FileKey != "",
		Status:      a.Status,
		StatusClass: a.Status.BadgeClass(),
		Submitted:   export.DisplayTime(a.SubmittedAt),
	}
}

func RenderRows(as []Abstract) []Row {
	rows := make([]Row, len(as))
	for i, a := range as {
		rows[i] = RenderRow(a)
	}
	return rows
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}
