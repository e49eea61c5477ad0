package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"gateway_go/internal/metrics"
)

type Middleware func(HandlerFunc) HandlerFunc

const requestIDHeader = "X-Request-ID"

func withMiddleware(handler HandlerFunc, middlewares ...Middleware) HandlerFunc {
	if len(middlewares) == 0 {
		return handler
	}

	wrapped := handler
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

// RequestIDMiddleware propagates X-Request-ID, minting a uuid when the client
// sent none.
func RequestIDMiddleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request, params Params) {
			requestID := req.Header.Get(requestIDHeader)
			if requestID == "" || len(requestID) > 128 {
				requestID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, requestID)

			ctx := context.WithValue(req.Context(), requestIDKey, requestID)
			next(w, req.WithContext(ctx), params)
		}
	}
}

func AccessLogMiddleware(logger *logrus.Entry) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request, params Params) {
			start := time.Now()
			recorder := metrics.NewStatusRecorder(w)

			next(recorder, req, params)

			requestID, _ := RequestIDFromContext(req.Context())
			entry := logger.WithFields(logrus.Fields{
				"request_id":  requestID,
				"method":      req.Method,
				"path":        req.URL.Path,
				"status":      recorder.Code(),
				"duration_ms": time.Since(start).Milliseconds(),
				"remote":      req.RemoteAddr,
			})
			if recorder.Code() >= http.StatusInternalServerError {
				entry.Warn("request failed")
				return
			}
			entry.Info("request")
		}
	}
}

func MetricsMiddleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request, params Params) {
			start := time.Now()
			metrics.IncInFlight()
			defer metrics.DecInFlight()

			recorder := metrics.NewStatusRecorder(w)
			next(recorder, req, params)

			metrics.RecordHTTPRequest(req.Method, metrics.CanonicalPath(req.URL.Path), recorder.Code(), time.Since(start))
		}
	}
}
