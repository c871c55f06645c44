package reconciler

import (
	"time"

	"anoa.com/fitsquad/internal/modules/sync/store"
	"anoa.com/fitsquad/pkg/apperror"
	"github.com/google/uuid"
)

type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerReconnect Trigger = "reconnect"
	TriggerPeriodic  Trigger = "periodic"
	TriggerActivity  Trigger = "activity"
)

// KindResult is the outcome of one entity kind within a pass.
type KindResult struct {
	Kind      store.Kind `json:"kind"`
	Pushed    int        `json:"pushed"`
	Pulled    int        `json:"pulled"`
	Compacted int        `json:"compacted"`
	Err       error      `json:"-"`
	Error     string     `json:"error,omitempty"`
}

func (k KindResult) fail(err error) KindResult {
	k.Err = err
	k.Error = err.Error()
	return k
}

// Result reports a pass per kind rather than as a single success flag.
type Result struct {
	UserID             uuid.UUID    `json:"user_id"`
	Trigger            Trigger      `json:"trigger"`
	Skipped            bool         `json:"skipped"`
	Kinds              []KindResult `json:"kinds"`
	StartedAt          time.Time    `json:"started_at"`
	FinishedAt         time.Time    `json:"finished_at"`
	LastSuccessfulSync *time.Time   `json:"last_successful_sync,omitempty"`

	setupErr error
}

func (r *Result) FailedKinds() []store.Kind {
	var failed []store.Kind
	for _, k := range r.Kinds {
		if k.Err != nil {
			failed = append(failed, k.Kind)
		}
	}
	return failed
}

func (r *Result) OK() bool {
	return r.Err() == nil
}

// Err is nil for a clean pass, apperror.ErrSyncInProgress for a dropped one and
// an *apperror.PartialSyncError when some kinds failed.
func (r *Result) Err() error {
	if r.Skipped {
		return apperror.ErrSyncInProgress
	}
	if r.setupErr != nil {
		return r.setupErr
	}

	failed := r.FailedKinds()
	if len(failed) == 0 {
		return nil
	}
	partial := &apperror.PartialSyncError{Causes: make(map[string]error, len(failed))}
	for _, k := range r.Kinds {
		if k.Err != nil {
			partial.FailedKinds = append(partial.FailedKinds, string(k.Kind))
			partial.Causes[string(k.Kind)] = k.Err
		}
	}
	return partial
}

func (r *Result) outcome() string {
	switch {
	case r.Skipped:
		return "skipped"
	case r.setupErr != nil:
		return "error"
	case len(r.FailedKinds()) > 0:
		return "partial"
	default:
		return "ok"
	}
}

func (r *Result) pushed() int {
	n := 0
	for _, k := range r.Kinds {
		n += k.Pushed
	}
	return n
}
