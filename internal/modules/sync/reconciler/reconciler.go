// Package reconciler pushes buffered records to the remote store and mirrors
// what the remote store holds, one pass per user at a time.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"anoa.com/fitsquad/internal/events"
	"anoa.com/fitsquad/internal/modules/sync/remote"
	"anoa.com/fitsquad/internal/modules/sync/store"
	"anoa.com/fitsquad/internal/observability"
	"anoa.com/fitsquad/pkg/apperror"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const DefaultLockTTL = 2 * time.Minute

// PushHook runs after a kind's batch was accepted by the remote store.
// Hook failures are logged and never fail the pass.
type PushHook func(ctx context.Context, userID uuid.UUID, records []store.Record) error

type Options struct {
	// LockTTL bounds how long a crashed pass can hold the user's flag.
	LockTTL time.Duration
	Kinds   []store.Kind
}

type Reconciler struct {
	local     store.LocalStore
	remote    remote.RemoteStore
	publisher events.Publisher
	log       logrus.FieldLogger
	lockTTL   time.Duration
	kinds     []store.Kind

	mu    sync.RWMutex
	hooks map[store.Kind][]PushHook

	wg  sync.WaitGroup
	now func() time.Time
}

func New(local store.LocalStore, rs remote.RemoteStore, publisher events.Publisher, log logrus.FieldLogger, opts Options) *Reconciler {
	if opts.LockTTL <= 0 {
		opts.LockTTL = DefaultLockTTL
	}
	if len(opts.Kinds) == 0 {
		opts.Kinds = store.AllKinds
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Reconciler{
		local:     local,
		remote:    rs,
		publisher: publisher,
		log:       log.WithField("component", "sync"),
		lockTTL:   opts.LockTTL,
		kinds:     opts.Kinds,
		hooks:     make(map[store.Kind][]PushHook),
		now:       time.Now,
	}
}

func (r *Reconciler) Local() store.LocalStore {
	return r.local
}

func (r *Reconciler) OnPushed(kind store.Kind, hook PushHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[kind] = append(r.hooks[kind], hook)
}

// Sync runs one pass for userID. A pass already in flight for the same user
// makes this call return immediately with Result.Skipped set.
func (r *Reconciler) Sync(ctx context.Context, userID uuid.UUID, trigger Trigger) *Result {
	res := &Result{UserID: userID, Trigger: trigger, StartedAt: r.now().UTC()}
	log := r.log.WithFields(logrus.Fields{"user_id": userID, "trigger": trigger})

	token, acquired, err := r.local.AcquireSyncFlag(ctx, userID, r.lockTTL)
	if err != nil {
		res.setupErr = fmt.Errorf("acquire sync flag: %w", err)
		return r.finish(ctx, res, log)
	}
	if !acquired {
		res.Skipped = true
		log.Debug("Sync already in progress, dropping trigger")
		return r.finish(ctx, res, log)
	}
	defer func() {
		if err := r.local.ReleaseSyncFlag(context.WithoutCancel(ctx), userID, token); err != nil {
			log.WithError(err).Error("Failed to release sync flag")
		}
	}()

	res.Kinds = make([]KindResult, len(r.kinds))
	var g errgroup.Group
	for i, kind := range r.kinds {
		g.Go(func() error {
			res.Kinds[i] = r.syncKind(ctx, userID, kind, trigger)
			return nil
		})
	}
	_ = g.Wait()

	if len(res.FailedKinds()) == 0 {
		if err := r.local.SetLastSync(ctx, userID, r.now().UTC()); err != nil {
			log.WithError(err).Warn("Failed to record last sync time")
		}
		r.clearPendingIfDrained(ctx, userID, log)
	}
	return r.finish(ctx, res, log)
}

func (r *Reconciler) finish(ctx context.Context, res *Result, log logrus.FieldLogger) *Result {
	res.FinishedAt = r.now().UTC()
	if last, ok, err := r.local.LastSync(ctx, res.UserID); err == nil && ok {
		res.LastSuccessfulSync = &last
	}

	outcome := res.outcome()
	observability.RecordSyncPass(string(res.Trigger), outcome, res.FinishedAt.Sub(res.StartedAt))
	if res.Skipped {
		return res
	}

	if err := res.Err(); err != nil {
		log.WithError(err).WithField("failed_kinds", res.FailedKinds()).Warn("Sync pass finished with failures")
	} else {
		log.WithField("pushed", res.pushed()).Info("Sync pass completed")
	}

	payload := map[string]any{
		"trigger":      res.Trigger,
		"outcome":      outcome,
		"pushed":       res.pushed(),
		"failed_kinds": res.FailedKinds(),
	}
	if err := events.Emit(ctx, r.publisher, events.TypeSyncCompleted, res.UserID, payload); err != nil {
		log.WithError(err).Warn("Failed to publish sync event")
	}
	return res
}

func (r *Reconciler) syncKind(ctx context.Context, userID uuid.UUID, kind store.Kind, trigger Trigger) KindResult {
	out := KindResult{Kind: kind}
	log := r.log.WithFields(logrus.Fields{"user_id": userID, "kind": kind})

	compacted, err := r.compact(ctx, userID, kind)
	if err != nil {
		log.WithError(err).Warn("Failed to compact synced records")
	}
	out.Compacted = compacted

	buffered, err := r.local.List(ctx, kind, userID)
	if err != nil {
		observability.RecordSyncKindFailure(string(kind), "local")
		return out.fail(fmt.Errorf("list %s buffer: %w", kind, err))
	}

	batch := due(buffered, trigger)
	if len(batch) > 0 {
		if err := r.remote.PushEntityBatch(ctx, kind, userID, batch); err != nil {
			if errors.Is(err, apperror.ErrRemoteRejected) {
				observability.RecordSyncKindFailure(string(kind), "rejected")
				if serr := r.local.SetState(ctx, kind, userID, batch, store.StateFailed, err.Error()); serr != nil {
					log.WithError(serr).Error("Failed to mark rejected records")
				}
			} else {
				observability.RecordSyncKindFailure(string(kind), "unavailable")
			}
			return out.fail(fmt.Errorf("push %s: %w", kind, err))
		}
		out.Pushed = len(batch)

		if err := r.local.SetState(ctx, kind, userID, batch, store.StateSynced, ""); err != nil {
			observability.RecordSyncKindFailure(string(kind), "local")
			return out.fail(fmt.Errorf("mark %s synced: %w", kind, err))
		}
	}

	pulled, err := r.remote.PullSyncedEntities(ctx, kind, userID)
	if err != nil {
		observability.RecordSyncKindFailure(string(kind), "unavailable")
		return out.fail(fmt.Errorf("pull %s: %w", kind, err))
	}
	if err := r.local.SetMirror(ctx, kind, userID, pulled); err != nil {
		observability.RecordSyncKindFailure(string(kind), "local")
		return out.fail(fmt.Errorf("store %s mirror: %w", kind, err))
	}
	out.Pulled = len(pulled)

	// Hooks run once the mirror holds the pushed records, so they read the new view.
	if out.Pushed > 0 {
		r.runHooks(ctx, kind, userID, batch, log)
	}
	return out
}

// compact drops buffered records that are synced and already present in the mirror.
func (r *Reconciler) compact(ctx context.Context, userID uuid.UUID, kind store.Kind) (int, error) {
	buffered, err := r.local.List(ctx, kind, userID)
	if err != nil || len(buffered) == 0 {
		return 0, err
	}
	mirror, err := r.local.Mirror(ctx, kind, userID)
	if err != nil {
		return 0, err
	}

	mirrored := make(map[string]struct{}, len(mirror))
	for _, rec := range mirror {
		mirrored[rec.ID] = struct{}{}
	}
	var ids []string
	for _, rec := range buffered {
		if _, ok := mirrored[rec.ID]; ok && rec.State == store.StateSynced {
			ids = append(ids, rec.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return r.local.PruneSynced(ctx, kind, userID, ids)
}

func (r *Reconciler) runHooks(ctx context.Context, kind store.Kind, userID uuid.UUID, batch []store.Record, log logrus.FieldLogger) {
	r.mu.RLock()
	hooks := r.hooks[kind]
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, userID, batch); err != nil {
			log.WithError(err).Warn("Post-push hook failed")
		}
	}
}

func (r *Reconciler) clearPendingIfDrained(ctx context.Context, userID uuid.UUID, log logrus.FieldLogger) {
	for _, kind := range r.kinds {
		buffered, err := r.local.List(ctx, kind, userID)
		if err != nil {
			log.WithError(err).Warn("Failed to inspect buffer after sync")
			return
		}
		for _, rec := range buffered {
			if rec.State == store.StatePending {
				return
			}
		}
	}
	if err := r.local.ClearPending(ctx, userID); err != nil {
		log.WithError(err).Warn("Failed to clear pending marker")
	}
}

// due picks the records a pass should push. Failed records are retried only
// when the user asks for it.
func due(buffered []store.Record, trigger Trigger) []store.Record {
	var batch []store.Record
	for _, rec := range buffered {
		switch {
		case rec.State == store.StatePending:
			batch = append(batch, rec)
		case rec.State == store.StateFailed && trigger == TriggerManual:
			batch = append(batch, rec)
		}
	}
	return batch
}

// TriggerAsync starts a pass in the background. Use Wait to drain them.
func (r *Reconciler) TriggerAsync(userID uuid.UUID, trigger Trigger) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.lockTTL)
		defer cancel()
		r.Sync(ctx, userID, trigger)
	}()
}

func (r *Reconciler) Wait() {
	r.wg.Wait()
}

// SyncPending runs a pass for every user with pending records.
func (r *Reconciler) SyncPending(ctx context.Context, trigger Trigger) ([]*Result, error) {
	users, err := r.local.PendingUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending users: %w", err)
	}

	results := make([]*Result, 0, len(users))
	for _, userID := range users {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		results = append(results, r.Sync(ctx, userID, trigger))
	}
	return results, nil
}
