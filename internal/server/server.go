package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"gateway_go/internal/assets"
	"gateway_go/internal/config"
	httpserver "gateway_go/internal/http"
	"gateway_go/internal/logging"
	"gateway_go/internal/registry"
	"gateway_go/internal/signer"
)

type Server struct {
	httpServer *http.Server
	log        *logrus.Entry
}

func New(cfg *config.Config, logger *logrus.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	log := logging.Component(logger, "server")

	sig, err := signer.New([]byte(cfg.Secret))
	if err != nil {
		return nil, err
	}

	reg, err := registry.Load(cfg.CatalogPath, registry.Options{PrefixID: cfg.PrefixServiceID})
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	log.WithFields(logrus.Fields{
		"catalog":  cfg.CatalogPath,
		"services": len(reg.Services()),
	}).Info("catalog loaded")

	resolver := assets.NewResolver(cfg.ReleaseRoot, assets.Options{
		RootSegment: cfg.AssetRootSegment,
	})

	router := httpserver.NewRouter()
	router.Use(httpserver.RequestIDMiddleware())
	if cfg.MetricsEnabled {
		router.Use(httpserver.MetricsMiddleware())
	}
	router.Use(httpserver.AccessLogMiddleware(logging.Component(logger, "access")))
	if cfg.RateLimitRPS > 0 {
		limiter := httpserver.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.TrustProxy, logging.Component(logger, "ratelimit"))
		router.Use(limiter.Middleware())
	}
	router.Use(httpserver.CORSMiddleware(httpserver.CORSConfig{Origins: cfg.CorsOrigins}))

	httpserver.RegisterRoutes(router, httpserver.Dependencies{
		Registry:       reg,
		Resolver:       resolver,
		Signer:         sig,
		Logger:         logging.Component(logger, "http"),
		TrustProxy:     cfg.TrustProxy,
		CorsOrigins:    cfg.CorsOrigins,
		SolveMaxBody:   cfg.SolveMaxBody,
		UISpecPath:     cfg.UISpecPath,
		WSIdleTimeout:  cfg.WSIdleTimeout,
		MetricsEnabled: cfg.MetricsEnabled,
	})

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{
		httpServer: srv,
		log:        log,
	}, nil
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown stops accepting connections and waits for in-flight requests.
// Hijacked WebSocket connections are not tracked by net/http and end when
// the process exits.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down")
	return s.httpServer.Shutdown(ctx)
}
