package httpserver

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"gateway_go/internal/assets"
	"gateway_go/internal/endpoint"
	"gateway_go/internal/logging"
	"gateway_go/internal/metrics"
	"gateway_go/internal/registry"
	"gateway_go/internal/uisession"
)

const (
	rootBody            = "Nothing here to see"
	defaultSolveMaxBody = 1 << 20
)

// Signer is the signing capability shared by /solve and UI sessions.
type Signer = uisession.Signer

type Dependencies struct {
	Registry *registry.Registry
	Resolver *assets.Resolver
	Signer   Signer
	Logger   *logrus.Entry

	TrustProxy     bool
	CorsOrigins    []string
	SolveMaxBody   int64
	UISpecPath     string
	WSIdleTimeout  time.Duration
	MetricsEnabled bool
}

func RegisterRoutes(router *Router, deps Dependencies) {
	if deps.Logger == nil {
		deps.Logger = logging.Component(logging.Discard(), "http")
	}
	if deps.SolveMaxBody <= 0 {
		deps.SolveMaxBody = defaultSolveMaxBody
	}

	router.Handle(http.MethodGet, "/", func(w http.ResponseWriter, req *http.Request, params Params) {
		writeText(w, http.StatusOK, "text/plain; charset=utf-8", rootBody)
	})

	health := func(w http.ResponseWriter, req *http.Request, params Params) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
	router.Handle(http.MethodGet, "/health", health)
	router.Handle(http.MethodHead, "/health", health)

	router.Handle(http.MethodPost, "/solve", solveHandler(deps))

	router.Handle(http.MethodGet, "/discovery", func(w http.ResponseWriter, req *http.Request, params Params) {
		raw, contentType := deps.Registry.Raw()
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(raw)
	})

	router.Handle(http.MethodGet, "/Build/Release/:version/", func(w http.ResponseWriter, req *http.Request, params Params) {
		filter := registry.ParseFilter(req.URL.Query()["services"])
		origin := endpoint.OriginFromRequest(req, deps.TrustProxy)
		writeJSON(w, http.StatusOK, deps.Registry.BuildBundle(params["version"], filter, origin))
	})

	upgrader := newUpgrader(deps.CorsOrigins)
	router.Handle(http.MethodGet, "/Build/Release/:version/Streamables/assets/*path", assetHandler(deps, upgrader))
	router.Handle(http.MethodGet, "/Build/Release/:version/instance", instanceHandler(deps, upgrader))

	if deps.MetricsEnabled {
		promHandler := metrics.Handler()
		router.Handle(http.MethodGet, "/metrics", func(w http.ResponseWriter, req *http.Request, params Params) {
			promHandler.ServeHTTP(w, req)
		})
	}
}

func solveHandler(deps Dependencies) HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request, params Params) {
		// Exact match: parameters such as charset are rejected too.
		if req.Header.Get("Content-Type") != "application/json" {
			writeError(w, http.StatusUnsupportedMediaType, "METHOD_NOT_FOUND")
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, deps.SolveMaxBody))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE")
				return
			}
			writeError(w, http.StatusBadRequest, "INVALID_BODY")
			return
		}

		signature, err := sign(deps.Signer, body)
		metrics.RecordSignature("http", err)
		if err != nil {
			deps.Logger.WithError(err).Error("solve: signing failed")
			writeError(w, http.StatusInternalServerError, "SIGNING_FAILED")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"signature": signature})
	}
}

func sign(s Signer, payload []byte) (string, error) {
	if s == nil {
		return "", errors.New("no signer configured")
	}
	return s.Sign(payload)
}
