package reconciler

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// ConnectivityProbe pings the remote store and starts a pass for every
// pending user when the store comes back after being unreachable.
type ConnectivityProbe struct {
	rec *Reconciler
	log logrus.FieldLogger

	mu     sync.Mutex
	online bool
	seen   bool
}

func NewConnectivityProbe(rec *Reconciler, log logrus.FieldLogger) *ConnectivityProbe {
	return &ConnectivityProbe{rec: rec, log: log.WithField("component", "connectivity")}
}

// Check reports whether the remote store answered.
func (p *ConnectivityProbe) Check(ctx context.Context) bool {
	err := p.rec.remote.Ping(ctx)
	online := err == nil

	p.mu.Lock()
	reconnected := p.seen && !p.online && online
	wentOffline := p.seen && p.online && !online
	p.online, p.seen = online, true
	p.mu.Unlock()

	if wentOffline {
		p.log.WithError(err).Warn("Remote store unreachable, buffering locally")
	}
	if reconnected {
		p.log.Info("Remote store reachable again, syncing pending users")
		if _, err := p.rec.SyncPending(ctx, TriggerReconnect); err != nil {
			p.log.WithError(err).Warn("Reconnect sync failed")
		}
	}
	return online
}

func (p *ConnectivityProbe) Online() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.seen || p.online
}
