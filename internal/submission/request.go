package submission

import (
	"strings"

	s "aieni/pkg/string"
	"aieni/pkg/validation"
)

// SubmitRequest is the "data" field of an abstract upload.
type SubmitRequest struct {
	FullName    string    `json:"fullName" validate:"notblank,max=200"`
	JobTitle    string    `json:"jobTitle" validate:"max=200"`
	Email       string    `json:"email" validate:"notblank,email,max=254"`
	Phone       string    `json:"phone" validate:"max=50"`
	Institution string    `json:"institution" validate:"notblank,max=300"`
	Country     string    `json:"country" validate:"notblank,max=100"`
	CoAuthors   CoAuthors `json:"coAuthors" validate:"max=20,dive,max=200"`
	Abstract    string    `json:"abstract" validate:"max=10000"`
}

func (r *SubmitRequest) Normalize() {
	s.TrimStrings(&r.FullName, &r.JobTitle, &r.Email, &r.Phone, &r.Institution, &r.Country, &r.Abstract)
	r.Email = strings.ToLower(r.Email)
	if r.CoAuthors == nil {
		r.CoAuthors = CoAuthors{}
	}
}

func (r *SubmitRequest) Validate() error {
	return validation.Validate(r)
}

// StatusRequest changes the review status of one abstract.
type StatusRequest struct {
	Status string `json:"status" validate:"notblank"`
}

func (r *StatusRequest) Normalize() {
	r.Status = strings.TrimSpace(r.Status)
}

func (r *StatusRequest) Validate() error {
	if err := validation.Validate(r); err != nil {
		return err
	}
	return ValidateStatus(r.Status)
}
