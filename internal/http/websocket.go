package httpserver

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const closeWriteTimeout = time.Second

// newUpgrader accepts browser origins from the CORS allow-list. With no list
// configured, or a "*" entry, every origin is accepted; requests without an
// Origin header always are.
func newUpgrader(allowedOrigins []string) *websocket.Upgrader {
	allowAll := len(allowedOrigins) == 0
	originSet := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		originSet[origin] = true
	}

	return &websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if allowAll {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			return originSet[origin] || containsOrigin(allowedOrigins, origin)
		},
	}
}

// closeSocket sends a close frame with code and reason, then drops the
// connection.
func closeSocket(conn *websocket.Conn, code int, reason string) {
	message := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(closeWriteTimeout))
	_ = conn.Close()
}
