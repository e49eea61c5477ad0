// Package uisession runs the interactive UI protocol over a single WebSocket
// connection.
//
// On accept the session pushes the release's UI description document as the
// first text frame (when the release ships one), then reads UI events until
// the peer goes away. A textChanged event on the payload field updates the
// session payload; a click on the action control signs the payload and
// answers with a patch. Everything else is ignored.
//
// A Session is owned by the goroutine serving its connection and is never
// shared, so it carries no locks.
package uisession

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"gateway_go/internal/assets"
	"gateway_go/internal/logging"
	"gateway_go/internal/metrics"
)

// DefaultDescriptionPath is the UI description, relative to the asset root.
const DefaultDescriptionPath = "ui/index.json"

type State int

const (
	StateConnecting State = iota
	StateReady
	StateEventLoop
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateEventLoop:
		return "event_loop"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Conn is the part of *websocket.Conn a session uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
}

type Signer interface {
	Sign(payload []byte) (string, error)
}

// DescriptionSource locates and renders the UI description for a release.
type DescriptionSource interface {
	Resolve(version, rel string) (*assets.Location, error)
	ReadText(loc *assets.Location, version string) (string, error)
}

type Dependencies struct {
	Signer          Signer
	Descriptions    DescriptionSource
	DescriptionPath string
	// IdleTimeout bounds the wait for the next event. Zero waits forever.
	IdleTimeout time.Duration
	Logger      *logrus.Entry
}

type Session struct {
	id      string
	release string
	payload string
	state   State
	deps    Dependencies
	log     *logrus.Entry
}

func New(release string, deps Dependencies) *Session {
	if deps.DescriptionPath == "" {
		deps.DescriptionPath = DefaultDescriptionPath
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Component(logging.Discard(), "uisession")
	}
	id := uuid.NewString()
	return &Session{
		id:      id,
		release: release,
		state:   StateConnecting,
		deps:    deps,
		log:     logger.WithFields(logrus.Fields{"session_id": id, "release": release}),
	}
}

func (s *Session) ID() string      { return s.id }
func (s *Session) Release() string { return s.release }
func (s *Session) Payload() string { return s.payload }
func (s *Session) State() State    { return s.state }

// Run drives the session until the peer disconnects. A disconnect, clean or
// not, ends the session without error; only failed writes are returned.
func (s *Session) Run(conn Conn) error {
	metrics.UISessionOpened()
	defer metrics.UISessionClosed()
	defer func() { s.state = StateClosed }()

	s.log.Debug("session opened")
	if err := s.pushDescription(conn); err != nil {
		return err
	}
	s.state = StateReady

	s.state = StateEventLoop
	for {
		if s.deps.IdleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.deps.IdleTimeout))
		}
		messageType, raw, err := conn.ReadMessage()
		if err != nil {
			s.log.WithField("reason", closeReason(err)).Debug("session closed")
			return nil
		}
		if messageType != websocket.TextMessage {
			continue
		}

		event, err := DecodeEvent(raw)
		if err != nil {
			metrics.RecordUIEvent("malformed")
			s.log.WithError(err).Debug("discarding ui event")
			continue
		}
		metrics.RecordUIEvent(event.Kind.String())

		patch, reply := s.apply(event)
		if !reply {
			continue
		}
		if err := writeJSON(conn, patch); err != nil {
			return fmt.Errorf("write patch: %w", err)
		}
	}
}

func (s *Session) pushDescription(conn Conn) error {
	if s.deps.Descriptions == nil {
		return nil
	}
	loc, err := s.deps.Descriptions.Resolve(s.release, s.deps.DescriptionPath)
	if err != nil {
		if !errors.Is(err, assets.ErrNotFound) {
			s.log.WithError(err).Warn("ui description lookup failed")
		}
		return nil
	}
	text, err := s.deps.Descriptions.ReadText(loc, s.release)
	if err != nil {
		s.log.WithError(err).Warn("ui description unreadable")
		return nil
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return fmt.Errorf("write ui description: %w", err)
	}
	return nil
}

// apply mutates the session for event and returns the patch to send, if any.
func (s *Session) apply(event Event) (Patch, bool) {
	switch event.Kind {
	case EventPayloadChanged:
		s.payload = event.Value
		return Patch{}, false
	case EventSolveClicked:
		signature, err := s.sign()
		metrics.RecordSignature("ui", err)
		if err != nil {
			s.log.WithError(err).Warn("signing failed")
			return solveFailedPatch(), true
		}
		return solvedPatch(signature), true
	default:
		return Patch{}, false
	}
}

func (s *Session) sign() (signature string, err error) {
	if s.deps.Signer == nil {
		return "", errors.New("no signer configured")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("signer panicked: %v", r)
		}
	}()
	return s.deps.Signer.Sign([]byte(s.payload))
}

func writeJSON(conn Conn, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, raw)
}

func closeReason(err error) string {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return fmt.Sprintf("close %d", closeErr.Code)
	}
	return err.Error()
}
