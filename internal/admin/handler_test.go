package admin_test

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks StatsService,AuthService,DemoSeeder,NotificationFeed

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"aieni/internal/admin"
	adminauth "aieni/internal/admin/auth"
	"aieni/internal/admin/mocks"
	"aieni/internal/notify"
	"aieni/internal/seeder"
	dErrors "aieni/pkg/domain-errors"
)

type HandlerSuite struct {
	suite.Suite
	ctrl   *gomock.Controller
	stats  *mocks.MockStatsService
	auth   *mocks.MockAuthService
	seeder *mocks.MockDemoSeeder
	feed   *mocks.MockNotificationFeed
	router chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.stats = mocks.NewMockStatsService(s.ctrl)
	s.auth = mocks.NewMockAuthService(s.ctrl)
	s.seeder = mocks.NewMockDemoSeeder(s.ctrl)
	s.feed = mocks.NewMockNotificationFeed(s.ctrl)

	h := admin.New(s.stats, s.auth, s.seeder, s.feed, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	s.router.Route("/api", func(r chi.Router) {
		r.Route("/admin", func(r chi.Router) {
			h.RegisterPublic(r)
			h.RegisterAdmin(r)
		})
	})
}

func (s *HandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerSuite) decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (s *HandlerSuite) TestLogin() {
	const chromeMac = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	s.Run("returns token and device", func() {
		s.auth.EXPECT().Login(gomock.Any(), gomock.Any(), chromeMac).
			DoAndReturn(func(_ context.Context, req *adminauth.LoginRequest, _ string) (adminauth.LoginResult, error) {
				s.Equal("admin@eaic.ae", req.Email)
				return adminauth.LoginResult{Token: "demo-token-1", Email: req.Email, Device: "Chrome on macOS"}, nil
			})

		req := httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(`{"email":" Admin@EAIC.ae ","password":"admin123"}`))
		req.Header.Set("User-Agent", chromeMac)
		w := s.do(req)

		s.Equal(http.StatusOK, w.Code)
		body := s.decode(w)
		s.Equal("demo-token-1", body["token"])
		s.Equal("Chrome on macOS", body["device"])
	})

	s.Run("wrong credentials are 401", func() {
		s.auth.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(adminauth.LoginResult{}, dErrors.New(dErrors.CodeUnauthorized, "Invalid email or password"))

		w := s.do(httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(`{"email":"admin@eaic.ae","password":"nope"}`)))

		s.Equal(http.StatusUnauthorized, w.Code)
		s.Equal("Invalid email or password", s.decode(w)["error_description"])
	})

	s.Run("missing password never reaches the service", func() {
		w := s.do(httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(`{"email":"admin@eaic.ae"}`)))
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *HandlerSuite) TestLogout() {
	s.Run("revokes the bearer token", func() {
		s.auth.EXPECT().Logout(gomock.Any(), "demo-token-1").Return(nil)

		req := httptest.NewRequest(http.MethodPost, "/api/admin/logout", nil)
		req.Header.Set("Authorization", "Bearer demo-token-1")
		w := s.do(req)

		s.Equal(http.StatusNoContent, w.Code)
	})

	s.Run("missing header", func() {
		w := s.do(httptest.NewRequest(http.MethodPost, "/api/admin/logout", nil))
		s.Equal(http.StatusUnauthorized, w.Code)
	})
}

func (s *HandlerSuite) TestGetStats() {
	s.Run("ok", func() {
		s.stats.EXPECT().GetStats(gomock.Any()).Return(&admin.Stats{
			Total:               5,
			Pending:             3,
			Accepted:            2,
			Registrations:       3,
			RegistrationsByType: map[string]int{"Speaker": 1},
			Timestamp:           time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		}, nil)

		w := s.do(httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil))

		s.Equal(http.StatusOK, w.Code)
		body := s.decode(w)
		s.EqualValues(5, body["total"])
		s.EqualValues(3, body["pending"])
		s.EqualValues(2, body["accepted"])
		s.EqualValues(0, body["rejected"])
		s.EqualValues(3, body["registrations"])
	})

	s.Run("storage failure", func() {
		s.stats.EXPECT().GetStats(gomock.Any()).Return(nil, errors.New("redis down"))
		w := s.do(httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil))
		s.Equal(http.StatusInternalServerError, w.Code)
	})
}

func (s *HandlerSuite) TestDemoData() {
	s.seeder.EXPECT().SeedAll(gomock.Any()).Return(seeder.Result{Abstracts: 5, Registrations: 3}, nil)

	w := s.do(httptest.NewRequest(http.MethodPost, "/api/admin/demo-data", nil))

	s.Equal(http.StatusCreated, w.Code)
	body := s.decode(w)
	s.EqualValues(5, body["abstracts"])
	s.EqualValues(3, body["registrations"])
}

func (s *HandlerSuite) TestGetNotifications() {
	s.Run("default limit", func() {
		s.feed.EXPECT().Recent(20).Return([]notify.Notification{notify.Success("Demo Data Created", "added")})

		w := s.do(httptest.NewRequest(http.MethodGet, "/api/admin/notifications", nil))

		s.Equal(http.StatusOK, w.Code)
		body := s.decode(w)
		s.EqualValues(1, body["total"])
		items := body["notifications"].([]any)
		s.Equal("Demo Data Created", items[0].(map[string]any)["title"])
	})

	s.Run("explicit limit", func() {
		s.feed.EXPECT().Recent(5).Return(nil)
		w := s.do(httptest.NewRequest(http.MethodGet, "/api/admin/notifications?limit=5", nil))
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("bad limit falls back to default", func() {
		s.feed.EXPECT().Recent(20).Return(nil)
		w := s.do(httptest.NewRequest(http.MethodGet, "/api/admin/notifications?limit=-3", nil))
		s.Equal(http.StatusOK, w.Code)
	})
}
