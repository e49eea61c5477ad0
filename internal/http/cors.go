package httpserver

import (
	"net/http"
	"strings"
)

type CORSConfig struct {
	Origins []string
}

// CORSMiddleware echoes allowed origins and answers their preflights. An
// OPTIONS request that is not a preflight from an allowed origin falls
// through to routing like any other method.
func CORSMiddleware(config CORSConfig) Middleware {
	allowed := config.Origins
	allowAll := false
	for _, origin := range allowed {
		if origin == "*" {
			allowAll = true
			break
		}
	}

	return func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request, params Params) {
			origin := req.Header.Get("Origin")
			permitted := origin != "" && (allowAll || containsOrigin(allowed, origin))
			if permitted {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET,HEAD,POST,OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type,X-Request-ID")
				w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
			}

			if permitted && req.Method == http.MethodOptions && req.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next(w, req, params)
		}
	}
}

func containsOrigin(origins []string, value string) bool {
	for _, origin := range origins {
		if strings.EqualFold(origin, value) {
			return true
		}
	}
	return false
}
