package models

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrInvalidPayload = errors.New("invalid mood payload")

// MoodPayload is the structured emotional-state record the CLI collaborator
// produces. The sync engine never looks inside it; it is marshalled once at
// creation and carried as an opaque blob from then on.
type MoodPayload struct {
	Mood       string    `json:"mood"`
	Intensity  int       `json:"intensity"`
	Note       string    `json:"note,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
}

// Validate checks the payload the way the entry-creation collaborator is
// expected to: the engine itself performs no payload validation.
func (p MoodPayload) Validate() error {
	if p.Mood == "" {
		return ErrInvalidPayload
	}
	if p.Intensity < 1 || p.Intensity > 10 {
		return ErrInvalidPayload
	}
	return nil
}

// Marshal serializes the payload into the opaque form stored with the entry.
func (p MoodPayload) Marshal() (json.RawMessage, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(p)
}
