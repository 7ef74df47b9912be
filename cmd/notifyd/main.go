package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/washhub/realtime/internal/api"
	"github.com/washhub/realtime/pkg/config"
	"github.com/washhub/realtime/pkg/gateway"
	"github.com/washhub/realtime/pkg/httpserver"
	"github.com/washhub/realtime/pkg/logger"
	"github.com/washhub/realtime/pkg/notify"
	"github.com/washhub/realtime/pkg/token"
)

type appConfig struct {
	Addr            string        `env:"NOTIFYD_ADDR" envDefault:":8080"`
	SigningKey      string        `env:"NOTIFYD_SIGNING_KEY,required"`
	InternalKey     string        `env:"NOTIFYD_INTERNAL_KEY,required"`
	SendBuffer      int           `env:"NOTIFYD_SEND_BUFFER" envDefault:"64"`
	ShutdownTimeout time.Duration `env:"NOTIFYD_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogFormat       string        `env:"NOTIFYD_LOG_FORMAT" envDefault:"json"`
	Debug           bool          `env:"NOTIFYD_DEBUG"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	log := logger.New(
		logger.WithLevel(level),
		logger.WithFormat(logger.Format(cfg.LogFormat)),
		logger.WithService("notifyd"),
	)
	logger.SetAsDefault(log)

	verifier, err := token.NewVerifier([]byte(cfg.SigningKey))
	if err != nil {
		return err
	}

	hub := gateway.NewHub(verifier,
		gateway.WithHubLogger(log),
		gateway.WithSendBuffer(cfg.SendBuffer),
	)

	// MemoryStorage backs standalone deployments; platform deployments swap
	// in the shared record store behind the same interface.
	storage := notify.NewMemoryStorage()
	svc := notify.NewService(storage, hub, notify.WithLogger(log))

	router := chi.NewRouter()
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/ws", hub.ServeHTTP)
	router.Mount("/", api.NewHandler(svc, verifier, cfg.InternalKey, log).Routes())

	// WriteTimeout stays zero: /ws serves long-lived connections.
	server := httpserver.New(
		httpserver.WithAddr(cfg.Addr),
		httpserver.WithReadTimeout(0),
		httpserver.WithShutdownTimeout(cfg.ShutdownTimeout),
		httpserver.WithLogger(log),
	)

	if err := server.Run(context.Background(), router); err != nil {
		return err
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := hub.Close(closeCtx); err != nil {
		log.Warn("gateway shutdown incomplete", logger.Error(err))
	}

	log.Info("notifyd stopped")
	return nil
}
