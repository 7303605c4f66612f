// Package seeder replaces both record collections with a fixed set of demo
// abstracts and registrations.
package seeder

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"aieni/internal/notify"
	"aieni/internal/registration"
	"aieni/internal/submission"
	strs "aieni/pkg/string"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

const day = 24 * time.Hour

// SubmissionSeeder overwrites the abstract collection.
type SubmissionSeeder interface {
	Seed(ctx context.Context, recs []submission.Abstract) error
}

// RegistrationSeeder overwrites the registration collection. undo writes the
// previous collection back.
type RegistrationSeeder interface {
	Seed(ctx context.Context, recs []registration.Registration) (undo func(context.Context) error, err error)
}

type abstractFixture struct {
	FullName    string   `yaml:"full_name"`
	JobTitle    string   `yaml:"job_title"`
	Email       string   `yaml:"email"`
	Phone       string   `yaml:"phone"`
	Institution string   `yaml:"institution"`
	Country     string   `yaml:"country"`
	Title       string   `yaml:"title"`
	Abstract    string   `yaml:"abstract"`
	CoAuthors   []string `yaml:"co_authors"`
	FileName    string   `yaml:"file_name"`
	Status      string   `yaml:"status"`
	DaysAgo     int      `yaml:"days_ago"`
}

type registrationFixture struct {
	FullName         string `yaml:"full_name"`
	JobTitle         string `yaml:"job_title"`
	Email            string `yaml:"email"`
	Phone            string `yaml:"phone"`
	Country          string `yaml:"country"`
	Organization     string `yaml:"organization"`
	RegistrationType string `yaml:"registration_type"`
	DaysAgo          int    `yaml:"days_ago"`
}

// Fixtures is the decoded demo data set.
type Fixtures struct {
	AbstractFixtures     []abstractFixture     `yaml:"abstracts"`
	RegistrationFixtures []registrationFixture `yaml:"registrations"`
}

// LoadFixtures parses a fixture document.
func LoadFixtures(raw []byte) (Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return Fixtures{}, fmt.Errorf("parse fixtures: %w", err)
	}
	for i, a := range f.AbstractFixtures {
		if !submission.Status(a.Status).Valid() {
			return Fixtures{}, fmt.Errorf("abstract fixture %d: unknown status %q", i+1, a.Status)
		}
	}
	return f, nil
}

// Abstracts materializes the abstract fixtures relative to now. IDs follow
// ABS-<epoch millis>-<position>.
func (f Fixtures) Abstracts(now time.Time) []submission.Abstract {
	out := make([]submission.Abstract, 0, len(f.AbstractFixtures))
	for i, a := range f.AbstractFixtures {
		first, last := strs.SplitName(a.FullName)
		out = append(out, submission.Abstract{
			ID:          fmt.Sprintf("ABS-%d-%d", now.UnixMilli(), i+1),
			FullName:    a.FullName,
			FirstName:   first,
			LastName:    last,
			JobTitle:    a.JobTitle,
			Email:       a.Email,
			Phone:       a.Phone,
			Institution: a.Institution,
			Country:     a.Country,
			CoAuthors:   submission.CoAuthors(a.CoAuthors),
			Title:       a.Title,
			Abstract:    a.Abstract,
			FileName:    a.FileName,
			Status:      submission.Status(a.Status),
			SubmittedAt: now.Add(-time.Duration(a.DaysAgo) * day),
		})
	}
	return out
}

// Registrations materializes the registration fixtures relative to now.
func (f Fixtures) Registrations(now time.Time) []registration.Registration {
	out := make([]registration.Registration, 0, len(f.RegistrationFixtures))
	for i, r := range f.RegistrationFixtures {
		out = append(out, registration.Registration{
			ID:               fmt.Sprintf("REG-%d-%d", now.UnixMilli(), i+1),
			RegistrationType: r.RegistrationType,
			FullName:         r.FullName,
			JobTitle:         r.JobTitle,
			Email:            r.Email,
			Phone:            r.Phone,
			Country:          r.Country,
			Organization:     r.Organization,
			RegisteredAt:     now.Add(-time.Duration(r.DaysAgo) * day),
		})
	}
	return out
}

// Result reports how many records each collection now holds.
type Result struct {
	Abstracts     int `json:"abstracts"`
	Registrations int `json:"registrations"`
}

// Seeder populates both collections with demo data.
type Seeder struct {
	submissions   SubmissionSeeder
	registrations RegistrationSeeder
	notifier      notify.Notifier
	fixtures      Fixtures
	logger        *slog.Logger
	now           func() time.Time
}

type Option func(*Seeder)

func WithClock(now func() time.Time) Option {
	return func(s *Seeder) { s.now = now }
}

func WithFixtures(f Fixtures) Option {
	return func(s *Seeder) { s.fixtures = f }
}

// New builds a seeder over the embedded fixtures.
func New(submissions SubmissionSeeder, registrations RegistrationSeeder, notifier notify.Notifier, logger *slog.Logger, opts ...Option) (*Seeder, error) {
	f, err := LoadFixtures(fixturesYAML)
	if err != nil {
		return nil, err
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	s := &Seeder{
		submissions:   submissions,
		registrations: registrations,
		notifier:      notifier,
		fixtures:      f,
		logger:        logger,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SeedAll overwrites both collections. Existing records are discarded.
// Registrations are written first and put back if the abstracts cannot be
// written.
func (s *Seeder) SeedAll(ctx context.Context) (Result, error) {
	now := s.now()
	abstracts := s.fixtures.Abstracts(now)
	regs := s.fixtures.Registrations(now)

	s.logger.InfoContext(ctx, "seeding demo data...")

	if err := s.seed(ctx, abstracts, regs); err != nil {
		s.notifier.Notify(ctx, notify.Error("Error", "Failed to create demo data."))
		return Result{}, err
	}

	s.logger.InfoContext(ctx, "demo data seeded successfully",
		"abstracts", len(abstracts),
		"registrations", len(regs),
	)
	n := notify.Success("Demo Data Created", "Sample abstracts and registrations have been added!")
	n.Duration = 3 * time.Second
	s.notifier.Notify(ctx, n)

	return Result{Abstracts: len(abstracts), Registrations: len(regs)}, nil
}

func (s *Seeder) seed(ctx context.Context, abstracts []submission.Abstract, regs []registration.Registration) error {
	undo, err := s.registrations.Seed(ctx, regs)
	if err != nil {
		return fmt.Errorf("failed to seed registrations: %w", err)
	}
	if err := s.submissions.Seed(ctx, abstracts); err != nil {
		if uerr := undo(ctx); uerr != nil {
			s.logger.ErrorContext(ctx, "failed to restore registrations", "error", uerr)
		}
		return fmt.Errorf("failed to seed abstracts: %w", err)
	}
	return nil
}
