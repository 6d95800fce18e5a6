package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/acm-sigapp/club-backend/config"
	"github.com/acm-sigapp/club-backend/internal/email"
	"github.com/acm-sigapp/club-backend/internal/health"
	"github.com/acm-sigapp/club-backend/internal/infrastructure/sheets"
	ctxlog "github.com/acm-sigapp/club-backend/internal/log"
	"github.com/acm-sigapp/club-backend/internal/metrics"
	"github.com/acm-sigapp/club-backend/internal/notify"
	"github.com/acm-sigapp/club-backend/internal/sweeper"
	httptransport "github.com/acm-sigapp/club-backend/internal/transport/http"
	"github.com/acm-sigapp/club-backend/internal/transport/http/handler"
	"github.com/acm-sigapp/club-backend/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	store, err := sheets.New(ctx, []byte(cfg.GoogleCredentials), cfg.SheetID, cfg.SheetName)
	if err != nil {
		stop()
		log.Fatalf("record store: %v", err)
	}
	logger.Info("record store connected", "sheet", cfg.SheetName)

	metrics.Register()
	checker := health.NewChecker(store, logger, prometheus.DefaultRegisterer)

	deliveryTransports := transports(cfg, logger)
	probeTransports(ctx, deliveryTransports, logger)

	notifier := notify.New(deliveryTransports, cfg.RetryDelay, logger)
	subUsecase := usecase.NewSubscriptionUsecase(
		store,
		notifier,
		logger,
		cfg.AllowedEmailDomain,
		cfg.VerifyBaseURL,
		cfg.FallbackVerify,
	)
	subHandler := handler.NewSubscriptionHandler(subUsecase, logger)

	sw, err := sweeper.New(store, logger, cfg.SweepSpec)
	if err != nil {
		stop()
		log.Fatalf("sweeper: %v", err)
	}
	go sw.Start(ctx)

	srv := http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httptransport.NewRouter(logger, subHandler, cfg.CORSOrigins),
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

// transports builds the ordered delivery ladder: STARTTLS on 587, implicit
// TLS on 465, then the Resend API when a key is configured. Local runs log
// instead of sending.
func transports(cfg *config.Config, logger *slog.Logger) []email.Transport {
	if cfg.Env == "local" {
		return []email.Transport{email.NewLogTransport(logger)}
	}

	ts := []email.Transport{
		email.NewSMTPTransport(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     587,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.EmailFrom,
			Timeout:  cfg.SMTPTimeout,
		}),
		email.NewSMTPTransport(email.SMTPConfig{
			Host:        cfg.SMTPHost,
			Port:        465,
			Username:    cfg.SMTPUser,
			Password:    cfg.SMTPPass,
			From:        cfg.EmailFrom,
			ImplicitTLS: true,
			Timeout:     cfg.SMTPTimeout,
		}),
	}
	if cfg.ResendAPIKey != "" {
		ts = append(ts, email.NewResendTransport(cfg.ResendAPIKey, cfg.EmailFrom))
	}
	return ts
}

// probeTransports checks reachability of each verifiable transport at
// startup. Failures are logged, not fatal: the notifier falls through to the
// next rung at delivery time anyway.
func probeTransports(ctx context.Context, ts []email.Transport, logger *slog.Logger) {
	for _, t := range ts {
		v, ok := t.(email.Verifier)
		if !ok {
			continue
		}
		if v.VerifyConnection(ctx) {
			logger.Info("delivery transport reachable", "transport", t.Name())
		} else {
			logger.Warn("delivery transport unreachable", "transport", t.Name())
		}
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
