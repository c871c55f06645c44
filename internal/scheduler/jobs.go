package scheduler

import (
	"context"
	"fmt"
	"time"

	leaderboardDto "anoa.com/fitsquad/internal/modules/leaderboard/dto"
	"anoa.com/fitsquad/internal/modules/sync/reconciler"
	"github.com/sirupsen/logrus"
)

const (
	JobSyncPending       = "sync-pending"
	JobRecomputeRankings = "recompute-rankings"
	JobConnectivityProbe = "connectivity-probe"
)

type PendingSyncer interface {
	SyncPending(ctx context.Context, trigger reconciler.Trigger) ([]*reconciler.Result, error)
}

type RankRecomputer interface {
	RecomputeRankings(ctx context.Context) (*leaderboardDto.RecomputeResponse, error)
}

type Prober interface {
	Check(ctx context.Context) bool
}

type funcJob struct {
	name     string
	schedule string
	run      func(ctx context.Context) error
}

func (j funcJob) Name() string                  { return j.name }
func (j funcJob) Schedule() string              { return j.schedule }
func (j funcJob) Run(ctx context.Context) error { return j.run(ctx) }

// SyncPendingJob pushes every user that still has pending records.
func SyncPendingJob(schedule string, syncer PendingSyncer, log logrus.FieldLogger) Job {
	return funcJob{name: JobSyncPending, schedule: schedule, run: func(ctx context.Context) error {
		results, err := syncer.SyncPending(ctx, reconciler.TriggerPeriodic)
		if err != nil {
			return err
		}
		failed := 0
		for _, r := range results {
			if !r.OK() {
				failed++
			}
		}
		if len(results) > 0 {
			log.WithFields(logrus.Fields{"users": len(results), "incomplete": failed}).Info("Periodic sync finished")
		}
		return nil
	}}
}

func RecomputeRankingsJob(schedule string, ranker RankRecomputer, log logrus.FieldLogger) Job {
	return funcJob{name: JobRecomputeRankings, schedule: schedule, run: func(ctx context.Context) error {
		resp, err := ranker.RecomputeRankings(ctx)
		if err != nil {
			return err
		}
		log.WithField("ranked_users", resp.RankedUsers).Info("Rankings recomputed")
		return nil
	}}
}

// ConnectivityProbeJob runs the probe on a fixed interval.
func ConnectivityProbeJob(interval time.Duration, probe Prober) Job {
	schedule := ""
	if interval > 0 {
		schedule = fmt.Sprintf("@every %s", interval)
	}
	return funcJob{name: JobConnectivityProbe, schedule: schedule, run: func(ctx context.Context) error {
		probe.Check(ctx)
		return nil
	}}
}
