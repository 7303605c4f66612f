package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"aieni/internal/admin"
	adminauth "aieni/internal/admin/auth"
	"aieni/internal/apiclient"
	"aieni/internal/blob"
	blobmemory "aieni/internal/blob/memory"
	blobs3 "aieni/internal/blob/s3"
	jwttoken "aieni/internal/jwt_token"
	"aieni/internal/notify"
	"aieni/internal/platform/config"
	"aieni/internal/platform/health"
	"aieni/internal/platform/logger"
	"aieni/internal/platform/metrics"
	platformredis "aieni/internal/platform/redis"
	"aieni/internal/records"
	"aieni/internal/registration"
	reghandler "aieni/internal/registration/handler"
	regmetrics "aieni/internal/registration/metrics"
	regservice "aieni/internal/registration/service"
	"aieni/internal/seeder"
	"aieni/internal/storage/driver"
	"aieni/internal/submission"
	subhandler "aieni/internal/submission/handler"
	submetrics "aieni/internal/submission/metrics"
	subservice "aieni/internal/submission/service"
	"aieni/pkg/platform/circuit"
	"aieni/pkg/platform/middleware/auth"
	request "aieni/pkg/platform/middleware/request"
)

const (
	shutdownTimeout  = 10 * time.Second
	revokedKeyPrefix = "aieni:revoked:"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	log.Info("initializing aieni",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"demo_mode", cfg.DemoMode,
		"storage", cfg.Storage.Driver,
		"blob", cfg.Blob.Driver,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	app, err := newApp(ctx, cfg, log, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer app.close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type app struct {
	handler http.Handler
	closers []func() error
	log     *slog.Logger
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("failed to release resource", "error", err)
		}
	}
}

// newApp builds the whole dependency graph. Metrics are registered on reg.
func newApp(ctx context.Context, cfg config.Server, log *slog.Logger, reg prometheus.Registerer) (_ *app, err error) {
	a := &app{log: log}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	platformMetrics := metrics.NewWith(reg)
	healthHandler := health.New(cfg.Environment)

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if redisClient != nil {
		a.closers = append(a.closers, redisClient.Close)
		healthHandler.RegisterCheck("redis", redisClient.Health)
		reg.MustRegister(platformredis.NewPoolCollector(redisClient))
	}

	opened, err := openStorage(ctx, cfg, redisClient, log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, opened.Close)
	opened.Instrument(platformMetrics)
	healthHandler.RegisterCheck("storage", opened.Ping)

	blobs, err := openBlobs(ctx, cfg.Blob)
	if err != nil {
		return nil, err
	}

	recorder := notify.NewRecorder(notify.DefaultRecorderSize)
	notifier := notify.Multi{notify.NewLogger(log, reg), recorder}

	var backend *apiclient.Client
	if cfg.BackendURL != "" {
		backend = apiclient.New(cfg.BackendURL,
			apiclient.WithBreaker(circuit.New("backend")),
			apiclient.WithLogger(log),
		)
		healthHandler.RegisterCheck("backend", backend.Health)
		log.Info("forwarding writes to backend", "backend_url", cfg.BackendURL)
	}

	// Record collections
	abstracts := records.New(opened.KV, submission.Codec, log)
	regs := records.New(opened.KV, registration.Codec, log)

	subOpts := []subservice.Option{
		subservice.WithMetrics(submetrics.NewWith(reg)),
		subservice.WithExportObserver(platformMetrics),
		subservice.WithLogger(log),
	}
	regOpts := []regservice.Option{
		regservice.WithMetrics(regmetrics.NewWith(reg)),
		regservice.WithExportObserver(platformMetrics),
		regservice.WithLogger(log),
	}
	if backend != nil {
		subOpts = append(subOpts, subservice.WithForwarder(backend))
		regOpts = append(regOpts, regservice.WithForwarder(backend))
	}
	submissions := subservice.New(abstracts, blobs, notifier, subOpts...)
	registrations := regservice.New(regs, notifier, regOpts...)

	// Admin authentication
	tokens := jwttoken.NewJWTService(cfg.Admin.JWTSigningKey, jwttoken.DefaultIssuer, jwttoken.DefaultAudience, cfg.Admin.TokenTTL)
	tokens.SetEnv(cfg.Environment)
	validator := jwttoken.NewJWTServiceAdapter(tokens)
	if cfg.DemoMode {
		validator.AllowDemoTokens(cfg.Admin.Email)
	}

	revocations := newRevocations(redisClient)
	authOpts := []adminauth.Option{
		adminauth.WithRevoker(revocations),
		adminauth.WithObserver(platformMetrics),
		adminauth.WithLogger(log),
	}
	if backend != nil {
		authOpts = append(authOpts, adminauth.WithRemote(backend))
	}
	authService, err := adminauth.New(adminauth.Config{
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
		DemoMode: cfg.DemoMode,
	}, tokens, notifier, authOpts...)
	if err != nil {
		return nil, err
	}

	demo, err := seeder.New(submissions, registrations, notifier, log)
	if err != nil {
		return nil, err
	}

	a.handler = NewRouter(routes{
		submissions:   subhandler.New(submissions, log),
		registrations: reghandler.New(registrations, log),
		admin:         admin.New(admin.NewService(submissions, registrations), authService, demo, recorder, log),
		health:        healthHandler,
		requireAdmin:  auth.RequireAuth(validator, revocations, log),
		latency:       request.NewMetricsWith(reg),
		bodyLimit:     cfg.MaxUploadBytes,
	}, log)
	return a, nil
}

// openStorage keeps a nil *Client from reaching driver.Open as a non-nil
// interface value.
func openStorage(ctx context.Context, cfg config.Server, redisClient *platformredis.Client, log *slog.Logger) (*driver.Opened, error) {
	if redisClient == nil {
		return driver.Open(ctx, cfg.Storage, nil, log)
	}
	return driver.Open(ctx, cfg.Storage, redisClient, log)
}

func openBlobs(ctx context.Context, cfg config.BlobConfig) (blob.Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return blobmemory.New(), nil
	case "s3":
		return blobs3.New(ctx, blobs3.Config{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			PathStyle: cfg.PathStyle,
		})
	}
	return nil, errors.New("unknown blob driver " + cfg.Driver)
}

type revocationStore interface {
	adminauth.Revoker
	auth.TokenRevocationChecker
}

// newRevocations keeps revoked token IDs in Redis when one is configured so
// logouts hold across replicas.
func newRevocations(redisClient *platformredis.Client) revocationStore {
	if redisClient == nil {
		return adminauth.NewMemoryRevocations()
	}
	return adminauth.NewRedisRevocations(redisClient, revokedKeyPrefix)
}
