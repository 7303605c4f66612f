package admin

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	regservice "aieni/internal/registration/service"
	subservice "aieni/internal/submission/service"
)

// SubmissionStats counts abstracts by review status.
type SubmissionStats interface {
	Stats(ctx context.Context) (subservice.Stats, error)
}

// RegistrationStats counts registrations by type.
type RegistrationStats interface {
	Stats(ctx context.Context) (regservice.Stats, error)
}

// Service provides the figures shown on the admin dashboard.
type Service struct {
	submissions   SubmissionStats
	registrations RegistrationStats
	now           func() time.Time
}

// NewService creates a new dashboard service
func NewService(submissions SubmissionStats, registrations RegistrationStats) *Service {
	return &Service{
		submissions:   submissions,
		registrations: registrations,
		now:           time.Now,
	}
}

// Stats contains the dashboard counters
type Stats struct {
	Total               int            `json:"total"`
	Pending             int            `json:"pending"`
	Accepted            int            `json:"accepted"`
	Rejected            int            `json:"rejected"`
	Registrations       int            `json:"registrations"`
	RegistrationsByType map[string]int `json:"registrations_by_type"`
	Timestamp           time.Time      `json:"timestamp"`
}

// GetStats loads both collections concurrently. A failure in either one
// fails the whole call.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	var (
		subs subservice.Stats
		regs regservice.Stats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		subs, err = s.submissions.Stats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		regs, err = s.registrations.Stats(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byType := regs.ByType
	if byType == nil {
		byType = map[string]int{}
	}
	return &Stats{
		Total:               subs.Total,
		Pending:             subs.Pending,
		Accepted:            subs.Accepted,
		Rejected:            subs.Rejected,
		Registrations:       regs.Total,
		RegistrationsByType: byType,
		Timestamp:           s.now().UTC(),
	}, nil
}
