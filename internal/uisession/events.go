package uisession

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Wire names of the events and widgets the session understands.
const (
	EventTextChanged = "textChanged"
	EventClicked     = "clicked"

	PayloadFieldID  = "payload"
	ActionControlID = "solveBtn"
	StatusLabelID   = "status"
)

var ErrMalformedEvent = errors.New("malformed ui event")

// EventKind enumerates the (event, id) pairs the session reacts to.
type EventKind int

const (
	EventIgnored EventKind = iota
	EventPayloadChanged
	EventSolveClicked
)

func (k EventKind) String() string {
	switch k {
	case EventPayloadChanged:
		return "payload_changed"
	case EventSolveClicked:
		return "solve_clicked"
	default:
		return "ignored"
	}
}

// Event is a decoded UI event. Value is only meaningful for
// EventPayloadChanged.
type Event struct {
	Kind   EventKind
	Name   string
	Target string
	Value  string
}

type envelope struct {
	Event string          `json:"event"`
	ID    string          `json:"id"`
	Value json.RawMessage `json:"value"`
}

// DecodeEvent parses one inbound frame. Well-formed envelopes for unknown
// events or widgets decode to EventIgnored.
func DecodeEvent(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	event := Event{Kind: EventIgnored, Name: env.Event, Target: env.ID}
	switch {
	case env.Event == EventTextChanged && env.ID == PayloadFieldID:
		value, err := textValue(env.Value)
		if err != nil {
			return Event{}, err
		}
		event.Kind = EventPayloadChanged
		event.Value = value
	case env.Event == EventClicked && env.ID == ActionControlID:
		event.Kind = EventSolveClicked
	}
	return event, nil
}

// textValue turns the envelope value into the stored payload: strings as-is,
// null or absent as "", anything else as its compact JSON text.
func textValue(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		return s, nil
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return compact.String(), nil
}
