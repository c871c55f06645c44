package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type syncFlag struct {
	token  string
	expiry time.Time
}

type bufferID struct {
	kind   Kind
	userID uuid.UUID
}

// MemoryStore is the fallback used when no Redis is configured. State lives
// for the life of the process.
type MemoryStore struct {
	mu       sync.Mutex
	buffers  map[bufferID]map[string]Record
	mirrors  map[bufferID][]Record
	flags    map[uuid.UUID]syncFlag
	lastSync map[uuid.UUID]time.Time
	pending  map[uuid.UUID]struct{}
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		buffers:  make(map[bufferID]map[string]Record),
		mirrors:  make(map[bufferID][]Record),
		flags:    make(map[uuid.UUID]syncFlag),
		lastSync: make(map[uuid.UUID]time.Time),
		pending:  make(map[uuid.UUID]struct{}),
		now:      time.Now,
	}
}

func (s *MemoryStore) Put(_ context.Context, userID uuid.UUID, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := bufferID{rec.Kind, userID}
	if s.buffers[id] == nil {
		s.buffers[id] = make(map[string]Record)
	}
	s.buffers[id][rec.ID] = rec
	if rec.State == StatePending {
		s.pending[userID] = struct{}{}
	}
	return nil
}

func (s *MemoryStore) List(_ context.Context, kind Kind, userID uuid.UUID) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := valuesOf(s.buffers[bufferID{kind, userID}])
	sortRecords(records)
	return records, nil
}

func (s *MemoryStore) SetState(_ context.Context, kind Kind, userID uuid.UUID, records []Record, state State, lastErr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := s.buffers[bufferID{kind, userID}]
	for _, rec := range withState(valuesOf(buf), records, state, lastErr, s.now().UTC()) {
		buf[rec.ID] = rec
	}
	return nil
}

func (s *MemoryStore) PruneSynced(_ context.Context, kind Kind, userID uuid.UUID, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := s.buffers[bufferID{kind, userID}]
	prune := syncedAmong(valuesOf(buf), ids)
	for _, id := range prune {
		delete(buf, id)
	}
	return len(prune), nil
}

func valuesOf(buf map[string]Record) []Record {
	records := make([]Record, 0, len(buf))
	for _, rec := range buf {
		records = append(records, rec)
	}
	return records
}

func (s *MemoryStore) Mirror(_ context.Context, kind Kind, userID uuid.UUID) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := append([]Record{}, s.mirrors[bufferID{kind, userID}]...)
	return records, nil
}

func (s *MemoryStore) SetMirror(_ context.Context, kind Kind, userID uuid.UUID, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mirrors[bufferID{kind, userID}] = append([]Record{}, records...)
	return nil
}

func (s *MemoryStore) AcquireSyncFlag(_ context.Context, userID uuid.UUID, ttl time.Duration) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if f, held := s.flags[userID]; held && now.Before(f.expiry) {
		return "", false, nil
	}
	token := uuid.NewString()
	s.flags[userID] = syncFlag{token: token, expiry: now.Add(ttl)}
	return token, true, nil
}

func (s *MemoryStore) ReleaseSyncFlag(_ context.Context, userID uuid.UUID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f, held := s.flags[userID]; held && f.token == token {
		delete(s.flags, userID)
	}
	return nil
}

func (s *MemoryStore) SyncInProgress(_ context.Context, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, held := s.flags[userID]
	return held && s.now().Before(f.expiry), nil
}

func (s *MemoryStore) LastSync(_ context.Context, userID uuid.UUID) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at, ok := s.lastSync[userID]
	return at, ok, nil
}

func (s *MemoryStore) SetLastSync(_ context.Context, userID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSync[userID] = at.UTC()
	return nil
}

func (s *MemoryStore) PendingUsers(context.Context) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]uuid.UUID, 0, len(s.pending))
	for id := range s.pending {
		users = append(users, id)
	}
	return users, nil
}

func (s *MemoryStore) ClearPending(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pending, userID)
	return nil
}
