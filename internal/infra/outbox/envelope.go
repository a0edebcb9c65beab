package outbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	cloudEventsVersion     = "1.0"
	cloudEventsContentType = "application/cloudevents+json"
	eventTypeSuffix        = ".v1"
)

var ErrMalformedEnvelope = errors.New("outbox: malformed event envelope")

// Envelope is the CloudEvents structured-mode body published for every outbox record.
type Envelope struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Source          string          `json:"source"`
	Subject         string          `json:"subject,omitempty"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	TraceParent     string          `json:"traceparent,omitempty"`
	Data            json.RawMessage `json:"data"`
}

// EventName strips the schema version from Type.
func (e Envelope) EventName() string {
	return strings.TrimSuffix(e.Type, eventTypeSuffix)
}

func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.ID == "" || env.Type == "" {
		return Envelope{}, fmt.Errorf("%w: id and type are required", ErrMalformedEnvelope)
	}
	return env, nil
}
