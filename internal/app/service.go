// Package app assembles the match service: persistence, coordinator,
// transport and background maintenance, behind a Start/Stop lifecycle.
package app

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/smuotoe/geoelevate/internal/adapters/repository"
	"github.com/smuotoe/geoelevate/internal/adapters/ws"
	"github.com/smuotoe/geoelevate/internal/auth"
	"github.com/smuotoe/geoelevate/internal/domain/questions"
	"github.com/smuotoe/geoelevate/internal/domain/ratelimit"
	"github.com/smuotoe/geoelevate/internal/match"
	"github.com/smuotoe/geoelevate/pkg/logger"
)

// Service owns every long-lived component of the match server.
type Service struct {
	mu sync.Mutex

	// Core components
	gateway     repository.Gateway
	writer      *repository.AnswerWriter
	coordinator *match.Coordinator
	registry    *ws.Registry
	wsHandler   *ws.Handler
	scheduler   gocron.Scheduler
	limiter     ratelimit.Limiter

	// Configuration
	databaseURL    string
	tokenSecret    string
	questionCount  int
	optionCount    int
	resultsDelay   time.Duration
	rateWindow     time.Duration
	rateQuota      int
	sweepInterval  time.Duration
	reaperInterval time.Duration
	answerBuffer   int

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDatabaseURL selects the Postgres gateway. Empty keeps the in-memory
// gateway, which loses everything on restart.
func WithDatabaseURL(dsn string) Option {
	return func(s *Service) { s.databaseURL = dsn }
}

// WithTokenSecret sets the shared secret for connection tokens.
func WithTokenSecret(secret string) Option {
	return func(s *Service) { s.tokenSecret = secret }
}

// WithQuestionCount sets how many questions each match deals.
func WithQuestionCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.questionCount = n
		}
	}
}

// WithOptionCount sets how many choices each question offers.
func WithOptionCount(n int) Option {
	return func(s *Service) {
		if n > 1 {
			s.optionCount = n
		}
	}
}

// WithResultsDelay sets the pause between question results and the next
// question.
func WithResultsDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.resultsDelay = d
		}
	}
}

// WithRateLimit bounds answer submissions per (identity, match) pair.
func WithRateLimit(window time.Duration, quota int) Option {
	return func(s *Service) {
		if window > 0 {
			s.rateWindow = window
		}
		if quota > 0 {
			s.rateQuota = quota
		}
	}
}

// WithSweepInterval controls how often idle rate-limit keys are evicted.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sweepInterval = d
		}
	}
}

// WithReaperInterval controls how often stale in-memory matches are reaped.
func WithReaperInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.reaperInterval = d
		}
	}
}

// WithAnswerBuffer bounds the async answer-log writer queue.
func WithAnswerBuffer(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.answerBuffer = n
		}
	}
}

// WithGateway injects a persistence gateway, bypassing the DSN selection.
func WithGateway(g repository.Gateway) Option {
	return func(s *Service) {
		if g != nil {
			s.gateway = g
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		questionCount:  5,
		optionCount:    4,
		resultsDelay:   3 * time.Second,
		rateWindow:     time.Second,
		rateQuota:      3,
		sweepInterval:  time.Minute,
		reaperInterval: 5 * time.Minute,
		answerBuffer:   1024,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("app")
	}

	s.logger.Info(ctx, "starting match service...")

	if s.gateway == nil {
		if s.databaseURL != "" {
			gw, err := repository.OpenPostgres(s.databaseURL)
			if err != nil {
				return err
			}
			s.gateway = gw
			s.logger.Info(ctx, "using postgres gateway")
		} else {
			s.gateway = repository.NewMemoryGateway()
			s.logger.Warn(ctx, "no database_url configured; using in-memory gateway")
		}
	}

	s.writer = repository.NewAnswerWriter(s.gateway,
		repository.WithWriteBuffer(s.answerBuffer),
	)
	s.writer.Start(ctx)

	s.limiter = ratelimit.New(
		ratelimit.WithWindow(s.rateWindow),
		ratelimit.WithQuota(s.rateQuota),
	)

	generator := questions.New(questions.WithOptionCount(s.optionCount))

	s.coordinator = match.NewCoordinator(s.gateway, generator,
		match.WithLimiter(s.limiter),
		match.WithAnswerRecorder(s.writer),
		match.WithQuestionCount(s.questionCount),
		match.WithResultsDelay(s.resultsDelay),
	)

	s.registry = ws.NewRegistry()
	s.wsHandler = ws.NewHandler(auth.New(s.tokenSecret), s.coordinator, s.registry)

	if err := s.startScheduler(ctx); err != nil {
		return err
	}

	s.started = true
	s.logger.Info(ctx, "match service started",
		logger.Int("questionCount", s.questionCount),
		logger.Int("rateQuota", s.rateQuota),
		logger.Any("resultsDelay", s.resultsDelay),
	)

	return nil
}

// startScheduler registers the periodic maintenance jobs: rate-limit key
// sweeping and stale-match reaping.
func (s *Service) startScheduler(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(s.sweepInterval),
		gocron.NewTask(func() { s.limiter.Sweep(ctx) }),
	); err != nil {
		return err
	}
	if _, err := sched.NewJob(
		gocron.DurationJob(s.reaperInterval),
		gocron.NewTask(func() { s.coordinator.EvictStale(ctx) }),
	); err != nil {
		return err
	}

	sched.Start()
	s.scheduler = sched
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping match service...")

	if s.scheduler != nil {
		if err := s.scheduler.Shutdown(); err != nil {
			s.logger.Warn(ctx, "scheduler shutdown failed", logger.Error(err))
		}
	}
	if s.writer != nil {
		s.writer.Close()
	}

	s.started = false
	s.logger.Info(ctx, "match service stopped")
}

// WSHandler exposes the websocket entrypoint for route registration.
func (s *Service) WSHandler() http.Handler {
	return s.wsHandler
}

// ReachableSubset reports which of ids currently hold a live connection.
func (s *Service) ReachableSubset(ids []int64) []int64 {
	return s.registry.ReachableSubset(ids)
}

// ActiveMatches returns the number of matches currently in memory.
func (s *Service) ActiveMatches() int {
	return s.coordinator.ActiveMatches()
}
