// Package failuredetector watches per-peer and per-client heartbeat
// timers and drives ring/room repair on timeout (SPEC_FULL.md §4.5).
package failuredetector

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ringmesh/ringchat/internal/domain"
)

// Kind distinguishes the two classes of monitored endpoint.
type Kind string

const (
	KindServer Kind = "server"
	KindClient Kind = "client"
)

type timerKey struct {
	Kind Kind
	ID   domain.NodeID
}

// Config controls timing; production uses DefaultConfig, tests inject
// a much shorter period so failure scenarios run in milliseconds.
type Config struct {
	Period  time.Duration
	Timeout time.Duration
}

// DefaultConfig matches spec.md §4.5: PERIOD=2s, timeout=2*PERIOD.
func DefaultConfig() Config {
	return Config{Period: 2 * time.Second, Timeout: 4 * time.Second}
}

// Detector owns the timer map and the suspend flag that silences
// checks during election/looking transitions.
type Detector struct {
	mu       sync.Mutex
	timers   map[timerKey]time.Time
	cfg      Config
	suspend  bool

	onPeerFailure   func(id domain.NodeID)
	onClientFailure func(id domain.NodeID)
}

// New creates a detector with the given config and failure callbacks.
// Either callback may be nil if that class is never monitored.
func New(cfg Config, onPeerFailure, onClientFailure func(id domain.NodeID)) *Detector {
	return &Detector{
		timers:          map[timerKey]time.Time{},
		cfg:             cfg,
		onPeerFailure:   onPeerFailure,
		onClientFailure: onClientFailure,
	}
}

// Monitor starts (or restarts) the timer for a peer or client.
func (d *Detector) Monitor(kind Kind, id domain.NodeID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.timers[timerKey{kind, id}] = time.Now()
}

// Forget removes an endpoint from monitoring (it left cleanly, or its
// failure was already handled).
func (d *Detector) Forget(kind Kind, id domain.NodeID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.timers, timerKey{kind, id})
}

// Reset restarts an endpoint's timer in response to a received
// heartbeat. Resetting an endpoint that isn't monitored is a no-op.
func (d *Detector) Reset(kind Kind, id domain.NodeID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := timerKey{kind, id}
	if _, ok := d.timers[key]; ok {
		d.timers[key] = time.Now()
	}
}

// Suspend stops timeout checks from firing (ELECTION_IN_PROGRESS,
// LOOKING) without losing the accumulated timer state.
func (d *Detector) Suspend(on bool) {
	d.mu.Lock()
	d.suspend = on
	d.mu.Unlock()
}

// Reseed replaces the monitored set wholesale, stamping fresh timers
// — used when entering a stable state after a ring change.
func (d *Detector) Reseed(peers []domain.NodeID, clients []domain.NodeID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.timers = map[timerKey]time.Time{}
	now := time.Now()
	for _, id := range peers {
		d.timers[timerKey{KindServer, id}] = now
	}
	for _, id := range clients {
		d.timers[timerKey{KindClient, id}] = now
	}
}

// CheckTimeouts scans the timer map once for entries older than the
// configured timeout and invokes the matching failure callback.
func (d *Detector) CheckTimeouts() {
	d.mu.Lock()
	if d.suspend {
		d.mu.Unlock()
		return
	}
	now := time.Now()
	var expired []timerKey
	for k, last := range d.timers {
		if now.Sub(last) > d.cfg.Timeout {
			expired = append(expired, k)
		}
	}
	for _, k := range expired {
		delete(d.timers, k)
	}
	d.mu.Unlock()

	for _, k := range expired {
		switch k.Kind {
		case KindServer:
			if d.onPeerFailure != nil {
				d.onPeerFailure(k.ID)
			}
		case KindClient:
			if d.onClientFailure != nil {
				d.onClientFailure(k.ID)
			}
		}
	}
}

// Run drives the periodic heartbeat-and-timeout loop until ctx is
// cancelled (SPEC_FULL.md §5's "one periodic heartbeat-and-timeout
// loop" concurrent activity). sendHeartbeats is called once per tick
// before checking timeouts.
func (d *Detector) Run(ctx context.Context, sendHeartbeats func()) {
	ticker := time.NewTicker(d.cfg.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sendHeartbeats()
			d.CheckTimeouts()
		}
	}
}

// LogPeerFailure is a convenience wrapper for callers that just want
// the standard component-prefixed log line before their own repair
// logic runs.
func LogPeerFailure(id domain.NodeID) {
	log.Printf("[failuredetector] peer %s timed out", id)
}
