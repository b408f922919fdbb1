package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/smuotoe/geoelevate/internal/adapters/http/api"
	"github.com/smuotoe/geoelevate/internal/app"
	"github.com/smuotoe/geoelevate/internal/config"
	"github.com/smuotoe/geoelevate/pkg/logger"
	"github.com/smuotoe/geoelevate/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 0 // websocket connections write indefinitely
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	var logOpts []logger.Option
	if cfg.LogFormat == "pretty" {
		logOpts = append(logOpts, logger.WithPretty())
	}
	if err := logger.Init(logOpts...); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel),
			logger.Error(err),
		)
		_ = logger.SetLevelString("info")
	}

	svc := app.New(
		app.WithLogger(log.Named("app")),
		app.WithDatabaseURL(cfg.DatabaseURL),
		app.WithTokenSecret(cfg.TokenSecret),
		app.WithQuestionCount(cfg.QuestionCount),
		app.WithOptionCount(cfg.OptionCount),
		app.WithResultsDelay(time.Duration(cfg.ResultsDelayMS)*time.Millisecond),
		app.WithRateLimit(time.Duration(cfg.RateLimitWindowMS)*time.Millisecond, cfg.RateLimitQuota),
		app.WithSweepInterval(time.Duration(cfg.SweepIntervalSec)*time.Second),
		app.WithReaperInterval(time.Duration(cfg.ReaperIntervalSec)*time.Second),
		app.WithAnswerBuffer(cfg.AnswerWriteBuffer),
	)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		os.Exit(1)
	}
	defer svc.Stop()

	apiServer := api.NewServer(svc.WSHandler(), metrics.Handler(), svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Router(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(context.Background(), "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn(context.Background(), "HTTP shutdown incomplete", logger.Error(err))
	}
}
