package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"gateway_go/internal/config"
	"gateway_go/internal/logging"
	"gateway_go/internal/server"
)

func main() {
	envFile := flag.String("env-file", os.Getenv("ENV_FILE"), "dotenv file loaded before reading the environment")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		logrus.Fatalf("config error: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		logrus.Fatalf("logging error: %v", err)
	}
	log := logging.Component(logger, "main")

	if cfg.WeakSecret() {
		log.Warn("SECRET looks weak; use a long random value")
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		log.Fatalf("server init error: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-stop
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("shutdown incomplete")
		}
	}()

	log.Infof("gateway_go listening on %s", cfg.Address())
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
	<-stopped
}
