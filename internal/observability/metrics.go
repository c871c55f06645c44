package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	syncPasses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitsquad",
		Subsystem: "sync",
		Name:      "passes_total",
		Help:      "Sync passes by trigger and outcome (ok, partial, skipped).",
	}, []string{"trigger", "outcome"})

	syncKindFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitsquad",
		Subsystem: "sync",
		Name:      "kind_failures_total",
		Help:      "Entity kinds that failed to push or pull, labeled by kind and reason.",
	}, []string{"kind", "reason"})

	syncDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fitsquad",
		Subsystem: "sync",
		Name:      "pass_duration_seconds",
		Help:      "Time spent in a single sync pass.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	})

	badgeUnlocks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitsquad",
		Subsystem: "badges",
		Name:      "unlocked_total",
		Help:      "Badges unlocked, labeled by badge kind.",
	}, []string{"kind"})

	rankRecomputeGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fitsquad",
		Subsystem: "leaderboard",
		Name:      "last_recompute_timestamp_seconds",
		Help:      "Unix timestamp of the most recent full ranking recomputation.",
	})

	rankedUsersGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fitsquad",
		Subsystem: "leaderboard",
		Name:      "ranked_users",
		Help:      "Number of users ranked by the most recent recomputation.",
	})

	eventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitsquad",
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Domain events handed to the publisher, labeled by type and result.",
	}, []string{"type", "result"})
)

func init() {
	prometheus.MustRegister(syncPasses, syncKindFailures, syncDuration, badgeUnlocks,
		rankRecomputeGauge, rankedUsersGauge, eventsPublished)
}

// RecordSyncPass counts one pass and observes its duration when it ran.
func RecordSyncPass(trigger, outcome string, took time.Duration) {
	syncPasses.WithLabelValues(trigger, outcome).Inc()
	if outcome != "skipped" {
		syncDuration.Observe(took.Seconds())
	}
}

func RecordSyncKindFailure(kind, reason string) {
	syncKindFailures.WithLabelValues(kind, reason).Inc()
}

func RecordBadgeUnlock(kind string) {
	badgeUnlocks.WithLabelValues(kind).Inc()
}

// RecordRankRecompute updates the recompute watermark and ranked user count.
func RecordRankRecompute(ts time.Time, users int) {
	if ts.IsZero() {
		return
	}
	rankRecomputeGauge.Set(float64(ts.Unix()))
	rankedUsersGauge.Set(float64(users))
}

func RecordEventPublished(eventType string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	eventsPublished.WithLabelValues(eventType, result).Inc()
}
