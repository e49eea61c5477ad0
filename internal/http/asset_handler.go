package httpserver

import (
	"errors"
	"io"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"gateway_go/internal/assets"
	"gateway_go/internal/metrics"
)

// assetHandler serves release assets over plain HTTP, or as a sequence of
// WebSocket frames when the request asks for an upgrade.
func assetHandler(deps Dependencies, upgrader *websocket.Upgrader) HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request, params Params) {
		version := params["version"]
		log := deps.Logger.WithFields(logrus.Fields{"release": version, "asset": params["path"]})

		loc, err := deps.Resolver.Resolve(version, params["path"])
		if websocket.IsWebSocketUpgrade(req) {
			streamAssetSocket(w, req, upgrader, deps.Resolver, version, loc, err, log)
			return
		}

		if err != nil {
			if !errors.Is(err, assets.ErrNotFound) {
				log.WithError(err).Warn("asset: resolve failed")
			}
			metrics.RecordAsset("not_found")
			writeText(w, http.StatusNotFound, "text/plain; charset=utf-8", notFoundBody)
			return
		}

		if loc.Templated {
			text, err := deps.Resolver.ReadText(loc, version)
			if err != nil {
				writeAssetReadError(w, err, log)
				return
			}
			metrics.RecordAsset("text")
			writeText(w, http.StatusOK, loc.MediaType, text)
			return
		}

		chunks, err := deps.Resolver.Open(loc)
		if err != nil {
			writeAssetReadError(w, err, log)
			return
		}
		defer chunks.Close()

		metrics.RecordAsset("binary")
		w.Header().Set("Content-Type", loc.MediaType)
		w.Header().Set("Content-Length", strconv.FormatInt(loc.Size, 10))
		w.WriteHeader(http.StatusOK)

		flusher, _ := w.(http.Flusher)
		for {
			chunk, err := chunks.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				log.WithError(err).Warn("asset: read failed mid-stream")
				return
			}
			if _, err := w.Write(chunk); err != nil {
				log.WithError(err).Debug("asset: client went away")
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func writeAssetReadError(w http.ResponseWriter, err error, log *logrus.Entry) {
	if errors.Is(err, fs.ErrNotExist) {
		metrics.RecordAsset("not_found")
		writeText(w, http.StatusNotFound, "text/plain; charset=utf-8", notFoundBody)
		return
	}
	log.WithError(err).Error("asset: read failed")
	metrics.RecordAsset("error")
	writeText(w, http.StatusInternalServerError, "text/plain; charset=utf-8", "internal error")
}

// streamAssetSocket upgrades the request and writes the asset as frames: a
// templated asset is one text frame, anything else one binary frame per
// chunk. The socket is closed normally afterwards; a missing asset closes it
// with a policy violation.
func streamAssetSocket(w http.ResponseWriter, req *http.Request, upgrader *websocket.Upgrader, resolver *assets.Resolver, version string, loc *assets.Location, resolveErr error, log *logrus.Entry) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.WithError(err).Debug("asset: upgrade failed")
		return
	}

	if resolveErr != nil {
		metrics.RecordAsset("not_found")
		closeSocket(conn, websocket.ClosePolicyViolation, notFoundBody)
		return
	}

	if loc.Templated {
		text, err := resolver.ReadText(loc, version)
		if err != nil {
			log.WithError(err).Warn("asset: read failed")
			closeSocket(conn, websocket.CloseInternalServerErr, "read failed")
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
			_ = conn.Close()
			return
		}
		metrics.RecordAsset("stream")
		closeSocket(conn, websocket.CloseNormalClosure, "")
		return
	}

	chunks, err := resolver.Open(loc)
	if err != nil {
		log.WithError(err).Warn("asset: open failed")
		closeSocket(conn, websocket.CloseInternalServerErr, "read failed")
		return
	}
	defer chunks.Close()

	for {
		chunk, err := chunks.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.WithError(err).Warn("asset: read failed mid-stream")
			closeSocket(conn, websocket.CloseInternalServerErr, "read failed")
			return
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
			_ = conn.Close()
			return
		}
	}
	metrics.RecordAsset("stream")
	closeSocket(conn, websocket.CloseNormalClosure, "")
}
