// Package store is the two-tier local state of the sync layer: an authoring
// buffer per entity kind and user, plus a mirror of what the remote store holds.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"anoa.com/fitsquad/pkg/apperror"
)

type Kind string

const (
	KindActivityLogs   Kind = "activity_logs"
	KindPhotos         Kind = "photos"
	KindGoals          Kind = "goals"
	KindUnlockedBadges Kind = "unlocked_badges"
	KindTemplates      Kind = "templates"
)

var AllKinds = []Kind{KindActivityLogs, KindPhotos, KindGoals, KindUnlockedBadges, KindTemplates}

func ParseKind(s string) (Kind, error) {
	for _, k := range AllKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown entity kind %q", apperror.ErrInvalidInput, s)
}

type State string

const (
	StatePending State = "pending"
	StateSynced  State = "synced"
	StateFailed  State = "failed"
)

// Record is one buffered mutation. Payload is the entity's JSON.
type Record struct {
	ID        string          `json:"id"`
	Kind      Kind            `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	State     State           `json:"state"`
	LastError string          `json:"last_error,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewRecord marshals payload into a pending record.
func NewRecord(kind Kind, id string, payload any) (Record, error) {
	if id == "" {
		return Record{}, fmt.Errorf("%w: record id is required", apperror.ErrInvalidInput)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Record{}, fmt.Errorf("marshal %s %s: %w", kind, id, err)
	}
	return Record{
		ID:        id,
		Kind:      kind,
		Payload:   raw,
		State:     StatePending,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func (r Record) Decode(v any) error {
	return json.Unmarshal(r.Payload, v)
}

// DecodeAll decodes every record payload into T, stopping at the first failure.
func DecodeAll[T any](records []Record) ([]T, error) {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		var v T
		if err := rec.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", rec.Kind, rec.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}
