package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Forwarder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"aieni/internal/apiclient"
	"aieni/internal/listing"
	"aieni/internal/notify"
	"aieni/internal/records"
	"aieni/internal/registration"
	"aieni/internal/registration/metrics"
	"aieni/internal/registration/service/mocks"
	"aieni/internal/storage/memory"
	dErrors "aieni/pkg/domain-errors"
)

var fixedNow = time.Date(2026, 2, 3, 8, 30, 0, 0, time.UTC)

type downloadFunc func(ctx context.Context, filename, mimeType, content string) error

func (f downloadFunc) Download(ctx context.Context, filename, mimeType, content string) error {
	return f(ctx, filename, mimeType, content)
}

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *records.Store[registration.Registration]
	notes   *notify.Recorder
	metrics *metrics.Metrics
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.store = records.New(memory.New(), registration.Codec, logger)
	s.notes = notify.NewRecorder(10)
	s.metrics = metrics.NewWith(prometheus.NewRegistry())
	s.service = New(s.store, s.notes,
		WithLogger(logger),
		WithMetrics(s.metrics),
		WithClock(func() time.Time { return fixedNow }))
}

func request() *registration.RegisterRequest {
	return &registration.RegisterRequest{
		FullName:     " John Smith ",
		Email:        "John.Smith@University.edu",
		Country:      "United States",
		Organization: "Stanford University",
	}
}

func (s *ServiceSuite) lastNote() notify.Notification {
	n, ok := s.notes.Last()
	s.Require().True(ok)
	return n
}

func (s *ServiceSuite) TestRegister() {
	s.Run("stores with defaults", func() {
		rec, err := s.service.Register(s.ctx, request())

		s.Require().NoError(err)
		s.Equal(fmt.Sprintf("REG-%d", fixedNow.UnixMilli()), rec.ID)
		s.Equal(registration.TypeAttendee, rec.RegistrationType)
		s.Equal("John Smith", rec.FullName)
		s.Equal("john.smith@university.edu", rec.Email)
		s.Equal(fixedNow, rec.RegisteredAt)

		n := s.lastNote()
		s.Equal("Registration Successful!", n.Title)
		s.Contains(n.Message, rec.ID)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.RegistrationsTotal.WithLabelValues("stored", registration.TypeAttendee)))
	})

	s.Run("second registration in the same millisecond", func() {
		req := request()
		req.RegistrationType = registration.TypeSpeaker
		rec, err := s.service.Register(s.ctx, req)
		s.Require().NoError(err)
		s.Equal(fmt.Sprintf("REG-%d", fixedNow.UnixMilli()+1), rec.ID)

		all, err := s.store.Load(s.ctx)
		s.Require().NoError(err)
		s.Len(all, 2)
	})

	s.Run("invalid email", func() {
		req := request()
		req.Email = "not-an-email"
		_, err := s.service.Register(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal("Validation Error", s.lastNote().Title)
	})

	s.Run("country is required", func() {
		req := request()
		req.Country = "  "
		_, err := s.service.Register(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestRegisterForwarded() {
	ctrl := gomock.NewController(s.T())
	fwd := mocks.NewMockForwarder(ctrl)
	svc := New(s.store, s.notes, WithForwarder(fwd), WithClock(func() time.Time { return fixedNow }))

	s.Run("remote id is returned and nothing is stored locally", func() {
		fwd.EXPECT().Submit(gomock.Any(), apiclient.EndpointRegister, gomock.Any()).
			Return(apiclient.SubmitResult{ID: "REG-REMOTE-7"}, nil)

		rec, err := svc.Register(s.ctx, request())
		s.Require().NoError(err)
		s.Equal("REG-REMOTE-7", rec.ID)

		all, err := s.store.Load(s.ctx)
		s.Require().NoError(err)
		s.Empty(all)
	})

	s.Run("transport failure", func() {
		fwd.EXPECT().Submit(gomock.Any(), apiclient.EndpointRegister, gomock.Any()).
			Return(apiclient.SubmitResult{}, dErrors.New(dErrors.CodeTransport, "backend request failed"))

		_, err := svc.Register(s.ctx, request())
		s.True(dErrors.HasCode(err, dErrors.CodeTransport))
		n := s.lastNote()
		s.Equal(notify.KindError, n.Kind)
		s.Equal("Registration Failed", n.Title)
	})
}

func (s *ServiceSuite) seed() {
	_, err := s.service.Seed(s.ctx, []registration.Registration{
		{ID: "REG-1", FullName: "John Smith", Email: "john@uni.edu", RegistrationType: registration.TypeSpeaker, Country: "United States", RegisteredAt: fixedNow.Add(-5 * 24 * time.Hour)},
		{ID: "REG-2", FullName: "Aisha Mohammed", Email: "aisha@gov.ae", RegistrationType: registration.TypeAttendee, Country: "UAE", RegisteredAt: fixedNow.Add(-3 * 24 * time.Hour)},
		{ID: "REG-3", FullName: "Emma Wilson", Email: "emma@oxford.ac.uk", RegistrationType: registration.TypeStudent, Country: "United Kingdom", RegisteredAt: fixedNow.Add(-1 * 24 * time.Hour)},
	})
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestSeedUndo() {
	s.seed()

	undo, err := s.service.Seed(s.ctx, []registration.Registration{{ID: "REG-9", FullName: "Sample"}})
	s.Require().NoError(err)
	got, err := s.service.List(s.ctx, listing.NewViewState(registration.Kind))
	s.Require().NoError(err)
	s.Equal(1, got.Total)

	s.Require().NoError(undo(s.ctx))
	got, err = s.service.List(s.ctx, listing.NewViewState(registration.Kind))
	s.Require().NoError(err)
	s.Equal(3, got.Total)
}

func (s *ServiceSuite) TestList() {
	s.seed()
	base := listing.NewViewState(registration.Kind)

	s.Run("newest first by default", func() {
		got, err := s.service.List(s.ctx, base)
		s.Require().NoError(err)
		s.Equal([]string{"REG-3", "REG-2", "REG-1"}, []string{got.Items[0].ID, got.Items[1].ID, got.Items[2].ID})
	})

	s.Run("type filter with search", func() {
		got, err := s.service.List(s.ctx, base.WithFilter(registration.TypeSpeaker).WithSearch("UNITED"))
		s.Require().NoError(err)
		s.Require().Len(got.Items, 1)
		s.Equal("badge-blue", got.Items[0].TypeClass)
	})

	s.Run("name sort uses the last token of the full name", func() {
		got, err := s.service.List(s.ctx, base.WithSort(listing.SortNameAsc))
		s.Require().NoError(err)
		s.Equal("Aisha Mohammed", got.Items[0].FullName)
		s.Equal("John Smith", got.Items[1].FullName)
		s.Equal("Emma Wilson", got.Items[2].FullName)
	})

	s.Run("no matches", func() {
		got, err := s.service.List(s.ctx, base.WithSearch("nobody"))
		s.Require().NoError(err)
		s.True(got.NoResults)
		s.Equal(`No registrations found matching "nobody".`, got.Message)
		s.Equal("No Results", s.lastNote().Title)
	})
}

func (s *ServiceSuite) TestExport() {
	s.Run("empty collection", func() {
		var content string
		n, err := s.service.Export(s.ctx, downloadFunc(func(_ context.Context, _, _, c string) error {
			content = c
			return nil
		}))
		s.Require().NoError(err)
		s.Zero(n)
		s.Equal(`"ID","Full Name","Job Title","Email","Phone","Country","Organization","Registration Type","Registered At"`, content)
		s.Equal("No Data to Export", s.lastNote().Title)
	})

	s.Run("every record", func() {
		s.seed()
		var filename, content string
		n, err := s.service.Export(s.ctx, downloadFunc(func(_ context.Context, f, _, c string) error {
			filename, content = f, c
			return nil
		}))
		s.Require().NoError(err)
		s.Equal(3, n)
		s.Equal("AIENI_2026_Registrations_2026-02-03.csv", filename)
		s.Len(strings.Split(content, "\n"), 4)
		s.Equal("3 registrations exported to AIENI_2026_Registrations_2026-02-03.csv", s.lastNote().Message)
	})

	s.Run("delivery failure", func() {
		_, err := s.service.Export(s.ctx, downloadFunc(func(context.Context, string, string, string) error {
			return errors.New("disk full")
		}))
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		s.Equal("Export Failed", s.lastNote().Title)
	})
}

func (s *ServiceSuite) TestRemoveAndStats() {
	s.seed()

	st, err := s.service.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, st.Total)
	s.Equal(1, st.ByType[registration.TypeSpeaker])

	s.Require().NoError(s.service.Remove(s.ctx, "REG-2"))
	_, err = s.service.Get(s.ctx, "REG-2")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	err = s.service.Remove(s.ctx, "REG-2")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
