package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"aieni/internal/apiclient"
	"aieni/internal/export"
	"aieni/internal/listing"
	"aieni/internal/notify"
	"aieni/internal/records"
	"aieni/internal/registration"
	"aieni/internal/registration/metrics"
	dErrors "aieni/pkg/domain-errors"
)

// Store persists the registration collection.
// *records.Store[registration.Registration] satisfies it.
type Store interface {
	Load(ctx context.Context) ([]registration.Registration, error)
	Find(ctx context.Context, id string) (registration.Registration, error)
	AppendFunc(ctx context.Context, build func(taken func(id string) bool) (registration.Registration, error)) (registration.Registration, error)
	Remove(ctx context.Context, id string) (registration.Registration, error)
	Replace(ctx context.Context, recs []registration.Registration) error
	Snapshot(ctx context.Context) ([]byte, error)
	Restore(ctx context.Context, doc []byte) error
}

// Forwarder sends registrations to a remote backend instead of the local store.
type Forwarder interface {
	Submit(ctx context.Context, endpoint string, payload any) (apiclient.SubmitResult, error)
}

type ExportObserver interface {
	IncExport(kind string, rows int)
}

const msgContact = "Please try again or contact Research.Center@Icp.gov.ae"

type Service struct {
	store     Store
	notifier  notify.Notifier
	forwarder Forwarder
	metrics   *metrics.Metrics
	exports   ExportObserver
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithForwarder(f Forwarder) Option {
	return func(s *Service) { s.forwarder = f }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithExportObserver(o ExportObserver) Option {
	return func(s *Service) { s.exports = o }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(store Store, notifier notify.Notifier, opts ...Option) *Service {
	s := &Service{
		store:    store,
		notifier: notifier,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates and stores one registration, or forwards it when a
// remote backend is configured.
func (s *Service) Register(ctx context.Context, req *registration.RegisterRequest) (registration.Registration, error) {
	start := s.now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveRegisterLatency(time.Since(start).Seconds())
		}
	}()

	req.Normalize()
	if err := req.Validate(); err != nil {
		s.count("rejected", req.RegistrationType)
		s.notifier.Notify(ctx, notify.Error("Validation Error", "Please fill in all required fields correctly."))
		return registration.Registration{}, err
	}

	if s.forwarder != nil {
		res, err := s.forwarder.Submit(ctx, apiclient.EndpointRegister, req)
		if err != nil {
			s.failed(ctx, req.RegistrationType, err)
			return registration.Registration{}, err
		}
		id := res.ID
		if id == "" {
			id = "N/A"
		}
		s.registered(ctx, id, "forwarded", req.RegistrationType)
		return newRegistration(id, req, s.now().UTC()), nil
	}

	rec, err := s.store.AppendFunc(ctx, func(taken func(string) bool) (registration.Registration, error) {
		now := s.now().UTC()
		return newRegistration(records.NextID("REG", now, taken), req, now), nil
	})
	if err != nil {
		s.failed(ctx, req.RegistrationType, err)
		return registration.Registration{}, err
	}
	s.registered(ctx, rec.ID, "stored", rec.RegistrationType)
	return rec, nil
}

func newRegistration(id string, req *registration.RegisterRequest, now time.Time) registration.Registration {
	return registration.Registration{
		ID:               id,
		RegistrationType: req.RegistrationType,
		FullName:         req.FullName,
		JobTitle:         req.JobTitle,
		Email:            req.Email,
		Phone:            req.Phone,
		Country:          req.Country,
		Organization:     req.Organization,
		RegisteredAt:     now,
	}
}

func (s *Service) count(outcome, registrationType string) {
	if s.metrics != nil {
		s.metrics.IncRegistration(outcome, registrationType)
	}
}

func (s *Service) registered(ctx context.Context, id, outcome, registrationType string) {
	s.count(outcome, registrationType)
	s.notifier.Notify(ctx, notify.Success("Registration Successful!",
		fmt.Sprintf("Registration ID: %s. A confirmation email will be sent to your email address.", id)))
}

func (s *Service) failed(ctx context.Context, registrationType string, err error) {
	s.count("failed", registrationType)
	s.logger.ErrorContext(ctx, "registration failed", "error", err)
	s.notifier.Notify(ctx, notify.Error("Registration Failed", msgContact))
}

func (s *Service) Get(ctx context.Context, id string) (registration.Registration, error) {
	return s.store.Find(ctx, id)
}

type List struct {
	listing.Page[registration.Row]
	View      listing.ViewState `json:"view"`
	NoResults bool              `json:"no_results"`
	Message   string            `json:"message,omitempty"`
}

func (s *Service) List(ctx context.Context, view listing.ViewState) (List, error) {
	all, err := s.store.Load(ctx)
	if err != nil {
		return List{}, err
	}
	page, criteria := listing.Run(all, registration.Kind, view)
	out := List{
		Page: listing.Page[registration.Row]{
			Items:      registration.RenderRows(page.Items),
			Page:       page.Page,
			PageSize:   page.PageSize,
			TotalPages: page.TotalPages,
			Total:      page.Total,
			StartIndex: page.StartIndex,
			EndIndex:   page.EndIndex,
			HasPrev:    page.HasPrev,
			HasNext:    page.HasNext,
			Buttons:    page.Buttons,
		},
		View: view.WithPage(page.Page),
	}
	switch {
	case criteria.NoResults(page.Total):
		out.NoResults = true
		out.Message = fmt.Sprintf("No registrations found matching %q.", criteria.Search)
		s.notifier.Notify(ctx, notify.Warning("No Results", out.Message))
	case page.Total == 0:
		out.Message = "No registrations found"
	}
	return out, nil
}

func (s *Service) Remove(ctx context.Context, id string) error {
	if _, err := s.store.Remove(ctx, id); err != nil {
		return err
	}
	s.notifier.Notify(ctx, notify.Success("Registration Deleted", fmt.Sprintf("Registration %s has been deleted.", id)))
	return nil
}

// Export writes every stored registration regardless of any list view.
func (s *Service) Export(ctx context.Context, d export.Downloader) (int, error) {
	all, err := s.store.Load(ctx)
	if err != nil {
		return 0, err
	}
	if len(all) == 0 {
		s.notifier.Notify(ctx, notify.Warning("No Data to Export",
			"There are no registrations to export. Please wait for registrations to be added."))
	}

	filename := export.RegistrationsFilename(s.now())
	if err := d.Download(ctx, filename, export.MimeCSV, export.ToDelimitedText(all, registration.Columns)); err != nil {
		s.notifier.Notify(ctx, notify.Error("Export Failed", "Failed to export registrations. Please try again."))
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to deliver export")
	}

	if s.exports != nil {
		s.exports.IncExport("registrations", len(all))
	}
	if n := len(all); n > 0 {
		noun := "registrations"
		if n == 1 {
			noun = "registration"
		}
		s.notifier.Notify(ctx, notify.Notification{
			Kind:     notify.KindSuccess,
			Title:    "Export Successful",
			Message:  fmt.Sprintf("%d %s exported to %s", n, noun, filename),
			Duration: 5 * time.Second,
		})
	}
	return len(all), nil
}

type Stats struct {
	Total  int            `json:"total"`
	ByType map[string]int `json:"by_type"`
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	all, err := s.store.Load(ctx)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Total: len(all), ByType: make(map[string]int)}
	for _, r := range all {
		st.ByType[r.RegistrationType]++
	}
	return st, nil
}

// Seed overwrites the whole collection.
// Seed overwrites the collection with recs. undo writes the previous
// document back.
func (s *Service) Seed(ctx context.Context, recs []registration.Registration) (undo func(context.Context) error, err error) {
	prev, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.store.Replace(ctx, recs); err != nil {
		return nil, err
	}
	return func(ctx context.Context) error { return s.store.Restore(ctx, prev) }, nil
}
