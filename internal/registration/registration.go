// Package registration holds the attendee registration record.
package registration

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"aieni/internal/export"
	"aieni/internal/listing"
	"aieni/internal/records"
	"aieni/internal/storage"
	s "aieni/pkg/string"
	"aieni/pkg/validation"
)

// Known registration types. The field is open; other values are stored as
// given.
const (
	TypeAttendee = "Attendee"
	TypeSpeaker  = "Speaker"
	TypeStudent  = "Student"
	TypeVIP      = "VIP"
)

// Registration is one conference registration. JSON names match the stored
// documents.
type Registration struct {
	ID               string    `json:"id"`
	RegistrationType string    `json:"registrationType"`
	FullName         string    `json:"fullName"`
	JobTitle         string    `json:"jobTitle"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	Country          string    `json:"country"`
	Organization     string    `json:"organization"`
	RegisteredAt     time.Time `json:"registeredAt"`
}

// UnmarshalJSON tolerates numeric ids and empty or unparseable registeredAt
// values, which decode to the zero time.
func (r *Registration) UnmarshalJSON(b []byte) error {
	type plain Registration
	aux := struct {
		*plain
		ID           records.Text      `json:"id"`
		RegisteredAt records.Timestamp `json:"registeredAt"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	r.ID = string(aux.ID)
	r.RegisteredAt = time.Time(aux.RegisteredAt)
	return nil
}

// Kind plugs registrations into the listing engine. The filter compares the
// registration type.
var Kind = listing.Kind[Registration]{
	Name:          "registrations",
	Discriminator: func(r Registration) string { return r.RegistrationType },
	SearchFields: func(r Registration) []string {
		return []string{r.FullName, r.Email, r.Organization, r.Country}
	},
	Date: func(r Registration) time.Time { return r.RegisteredAt },
	LastName: func(r Registration) string {
		_, last := s.SplitName(r.FullName)
		return last
	},
	DefaultSort: listing.SortDateDesc,
}

var Codec = records.Codec[Registration]{
	Key:       storage.KeyRegistrations,
	Noun:      "registration",
	ID:        func(r Registration) string { return r.ID },
	Normalize: Normalize,
}

func Normalize(r Registration, index int, now time.Time) Registration {
	if r.ID == "" {
		r.ID = "REG-" + strconv.Itoa(index+1)
	}
	if r.RegistrationType == "" {
		r.RegistrationType = TypeAttendee
	}
	if r.RegisteredAt.IsZero() {
		r.RegisteredAt = now
	}
	return r
}

// Columns is the CSV layout of a registrations export.
var Columns = []export.Column[Registration]{
	{Label: "ID", Value: func(r Registration) string { return r.ID }},
	{Label: "Full Name", Value: func(r Registration) string { return r.FullName }},
	{Label: "Job Title", Value: func(r Registration) string { return r.JobTitle }},
	{Label: "Email", Value: func(r Registration) string { return r.Email }},
	{Label: "Phone", Value: func(r Registration) string { return r.Phone }},
	{Label: "Country", Value: func(r Registration) string { return r.Country }},
	{Label: "Organization", Value: func(r Registration) string { return r.Organization }},
	{Label: "Registration Type", Value: func(r Registration) string { return r.RegistrationType }},
	{Label: "Registered At", Value: func(r Registration) string { return export.DisplayTime(r.RegisteredAt) }},
}

// Row is the display projection of a Registration.
type Row struct {
	ID               string `json:"id"`
	FullName         string `json:"full_name"`
	Initials         string `json:"initials"`
	JobTitle         string `json:"job_title"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	Country          string `json:"country"`
	Organization     string `json:"organization"`
	RegistrationType string `json:"registration_type"`
	TypeClass        string `json:"type_class"`
	Registered       string `json:"registered"`
}

func RenderRow(r Registration) Row {
	first, last := s.SplitName(r.FullName)
	return Row{
		ID:               r.ID,
		FullName:         r.FullName,
		Initials:         s.Initials(first, last),
		JobTitle:         orNA(r.JobTitle),
		Email:            r.Email,
		Phone:            orNA(r.Phone),
		Country:          r.Country,
		Organization:     orNA(r.Organization),
		RegistrationType: r.RegistrationType,
		TypeClass:        TypeClass(r.RegistrationType),
		Registered:       export.DisplayTime(r.RegisteredAt),
	}
}

func RenderRows(rs []Registration) []Row {
	rows := make([]Row, len(rs))
	for i, r := range rs {
		rows[i] = RenderRow(r)
	}
	return rows
}

// TypeClass is the badge colour of a registration type.
func TypeClass(t string) string {
	switch t {
	case TypeSpeaker:
		return "badge-blue"
	case TypeStudent:
		return "badge-green"
	default:
		return "badge-purple"
	}
}

func orNA(v string) string {
	if strings.TrimSpace(v) == "" {
		return "N/A"
	}
	return v
}

// RegisterRequest is the body of POST /api/register.
type RegisterRequest struct {
	RegistrationType string `json:"registrationType" validate:"max=50"`
	FullName         string `json:"fullName" validate:"notblank,max=200"`
	JobTitle         string `json:"jobTitle" validate:"max=200"`
	Email            string `json:"email" validate:"notblank,email,max=254"`
	Phone            string `json:"phone" validate:"max=50"`
	Country          string `json:"country" validate:"notblank,max=100"`
	Organization     string `json:"organization" validate:"max=300"`
}

func (r *RegisterRequest) Normalize() {
	s.TrimStrings(&r.RegistrationType, &r.FullName, &r.JobTitle, &r.Email, &r.Phone, &r.Country, &r.Organization)
	r.Email = strings.ToLower(r.Email)
	if r.RegistrationType == "" {
		r.RegistrationType = TypeAttendee
	}
}

func (r *RegisterRequest) Validate() error {
	return validation.Validate(r)
}
