package sync

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"gmconsole/internal/api"
)

// Status is the console's view of backend reachability.
type Status int

const (
	// StatusConnecting is the initial state before the bootstrap fetch lands.
	StatusConnecting Status = iota
	// StatusOnline means the last fetch succeeded.
	StatusOnline
	// StatusDegraded means a sustained run of polls failed after the console
	// had been online. A single missed poll never degrades the status.
	StatusDegraded
	// StatusOffline means the very first bootstrap fetch failed.
	StatusOffline
)

func (s Status) String() string {
	switch s {
	case StatusOnline:
		return "online"
	case StatusDegraded:
		return "degraded"
	case StatusOffline:
		return "offline"
	default:
		return "connecting"
	}
}

// Fetchers supplies the two authoritative streams the poller refreshes.
type Fetchers struct {
	Config func(ctx context.Context) (api.ConfigDoc, error)
	Auth   func(ctx context.Context) (api.AuthStatus, error)
}

// Event is delivered to the poller's sink. One of ConfigEvent, AuthEvent,
// StatusEvent or ErrorEvent.
type Event any

// ConfigEvent carries a fresh system configuration document.
type ConfigEvent struct {
	Doc api.ConfigDoc
}

// AuthEvent carries a fresh lock-state report.
type AuthEvent struct {
	Status api.AuthStatus
}

// StatusEvent reports a reachability change.
type StatusEvent struct {
	Status Status
}

// ErrorEvent reports a failed fetch. Prior consumer state is left intact;
// the error is informational.
type ErrorEvent struct {
	Stream string
	Err    error
}

// Poller fetches config and auth status on a fixed interval. An immediate
// fetch runs at Start so the first render is not stuck waiting for an
// interval boundary. Each in-flight fetch carries a sequence number; a
// response superseded by a later completed response for the same stream is
// dropped, so out-of-order completions cannot roll state backwards. Fetch
// failures are reported but never clear previously delivered state.
type Poller struct {
	interval     time.Duration
	degradeAfter int
	fetchers     Fetchers
	sink         func(Event)

	seq struct {
		config, auth atomic.Uint64
	}

	mu           sync.Mutex
	cancel       context.CancelFunc
	running      bool
	configSeen   uint64
	authSeen     uint64
	status       Status
	bootstrapped bool
	failures     map[string]int // consecutive failures per stream

	wg sync.WaitGroup
}

// NewPoller builds a poller. degradeAfter is the number of consecutive
// failed fetches tolerated from an online state before the status degrades;
// values below 1 are clamped to 1.
func NewPoller(interval time.Duration, degradeAfter int, fetchers Fetchers, sink func(Event)) *Poller {
	if degradeAfter < 1 {
		degradeAfter = 1
	}
	return &Poller{
		interval:     interval,
		degradeAfter: degradeAfter,
		fetchers:     fetchers,
		sink:         sink,
		status:       StatusConnecting,
		failures:     make(map[string]int),
	}
}

// Start begins polling. The first fetch fires immediately. Calling Start on
// a running poller is a no-op.
func (p *Poller) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.running = true
	p.mu.Unlock()

	p.wg.Add(1)
	go p.loop(ctx)
}

// Stop cancels the repeating timer. Idempotent: stopping twice, or before
// Start, is a no-op. In-flight fetches are not waited on; their results are
// discarded by the relevance check in deliver.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
}

// Refresh triggers an immediate out-of-band fetch of both streams, e.g.
// after a save or a campaign switch. No-op when the poller is not running.
func (p *Poller) Refresh() {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()
	if running {
		p.tick(context.Background())
	}
}

func (p *Poller) loop(ctx context.Context) {
	defer p.wg.Done()

	p.tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if p.fetchers.Config != nil {
		seq := p.seq.config.Add(1)
		go func() {
			doc, err := p.fetchers.Config(ctx)
			p.deliver("config", seq, &p.configSeen, err, ConfigEvent{Doc: doc})
		}()
	}
	if p.fetchers.Auth != nil {
		seq := p.seq.auth.Add(1)
		go func() {
			st, err := p.fetchers.Auth(ctx)
			p.deliver("auth", seq, &p.authSeen, err, AuthEvent{Status: st})
		}()
	}
}

// deliver applies the relevance check and failure accounting, then emits
// events outside the lock.
func (p *Poller) deliver(stream string, seq uint64, seen *uint64, err error, ev Event) {
	p.mu.Lock()
	if !p.running || seq <= *seen {
		// stopped, or superseded by a later response
		p.mu.Unlock()
		return
	}
	*seen = seq

	var out []Event
	if err != nil {
		out = append(out, ErrorEvent{Stream: stream, Err: err})
		if next, changed := p.recordFailure(stream); changed {
			out = append(out, StatusEvent{Status: next})
		}
	} else {
		out = append(out, ev)
		if next, changed := p.recordSuccess(); changed {
			out = append(out, StatusEvent{Status: next})
		}
	}
	sink := p.sink
	p.mu.Unlock()

	if sink != nil {
		for _, e := range out {
			sink(e)
		}
	}
}

func (p *Poller) recordSuccess() (Status, bool) {
	p.bootstrapped = true
	clear(p.failures)
	if p.status != StatusOnline {
		p.status = StatusOnline
		return p.status, true
	}
	return p.status, false
}

// recordFailure counts consecutive failures per stream, so one tick in which
// both streams fail still moves each counter by one. Degraded requires a
// single stream to fail degradeAfter ticks in a row.
func (p *Poller) recordFailure(stream string) (Status, bool) {
	p.failures[stream]++
	if !p.bootstrapped {
		if p.status != StatusOffline {
			p.status = StatusOffline
			return p.status, true
		}
		return p.status, false
	}
	if p.status == StatusOnline && p.failures[stream] >= p.degradeAfter {
		p.status = StatusDegraded
		return p.status, true
	}
	return p.status, false
}

// Status returns the current reachability state.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}
