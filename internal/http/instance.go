package httpserver

import (
	"net/http"

	"github.com/gorilla/websocket"

	"gateway_go/internal/uisession"
)

// instanceHandler serves the interactive UI endpoint. Plain HTTP requests are
// told to upgrade.
func instanceHandler(deps Dependencies, upgrader *websocket.Upgrader) HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request, params Params) {
		if !websocket.IsWebSocketUpgrade(req) {
			w.Header().Set("Upgrade", "websocket")
			writeText(w, http.StatusUpgradeRequired, "text/plain; charset=utf-8", "upgrade required")
			return
		}

		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			// The upgrader has already written the error response.
			deps.Logger.WithError(err).Debug("instance: upgrade failed")
			return
		}
		defer conn.Close()

		var descriptions uisession.DescriptionSource
		if deps.Resolver != nil {
			descriptions = deps.Resolver
		}
		session := uisession.New(params["version"], uisession.Dependencies{
			Signer:          deps.Signer,
			Descriptions:    descriptions,
			DescriptionPath: deps.UISpecPath,
			IdleTimeout:     deps.WSIdleTimeout,
			Logger:          deps.Logger,
		})
		if err := session.Run(conn); err != nil {
			deps.Logger.WithError(err).WithField("session_id", session.ID()).Warn("instance: session ended with error")
			return
		}
		closeSocket(conn, websocket.CloseNormalClosure, "")
	}
}
