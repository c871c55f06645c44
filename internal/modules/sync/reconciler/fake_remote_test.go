package reconciler_test

import (
	"context"
	"sync"
	"time"

	"anoa.com/fitsquad/internal/modules/sync/store"
	"github.com/google/uuid"
)

// fakeRemote keeps accepted records in memory and counts push calls per kind.
type fakeRemote struct {
	mu      sync.Mutex
	pushes  map[store.Kind]int
	pushErr map[store.Kind]error
	pingErr error
	rows    map[store.Kind]map[string]store.Record

	// onPush runs inside PushEntityBatch before the batch is accepted.
	onPush func(kind store.Kind)
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		pushes:  make(map[store.Kind]int),
		pushErr: make(map[store.Kind]error),
		rows:    make(map[store.Kind]map[string]store.Record),
	}
}

func (f *fakeRemote) PushEntityBatch(_ context.Context, kind store.Kind, _ uuid.UUID, records []store.Record) error {
	f.mu.Lock()
	f.pushes[kind]++
	err := f.pushErr[kind]
	hook := f.onPush
	f.mu.Unlock()

	if hook != nil {
		hook(kind)
	}
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rows[kind] == nil {
		f.rows[kind] = make(map[string]store.Record)
	}
	for _, rec := range records {
		rec.State = store.StateSynced
		rec.LastError = ""
		f.rows[kind][rec.ID] = rec
	}
	return nil
}

func (f *fakeRemote) PullSyncedEntities(_ context.Context, kind store.Kind, _ uuid.UUID) ([]store.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]store.Record, 0, len(f.rows[kind]))
	for _, rec := range f.rows[kind] {
		rec.UpdatedAt = time.Now().UTC()
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeRemote) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pingErr
}

func (f *fakeRemote) setPushErr(kind store.Kind, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushErr[kind] = err
}

func (f *fakeRemote) setPingErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pingErr = err
}

func (f *fakeRemote) pushCount(kind store.Kind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pushes[kind]
}
