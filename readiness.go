package upload

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ProbeState is the lifecycle stage of a reachability probe.
type ProbeState string

const (
	// ProbePending means the probe was not launched or has not finished.
	ProbePending ProbeState = "pending"
	// ProbeReachable is set once the probe succeeded.
	ProbeReachable ProbeState = "reachable"
	// ProbeUnreachable is set once the probe failed. Never retried in a run.
	ProbeUnreachable ProbeState = "unreachable"
)

// ReadinessEntry is a snapshot of one backend probe.
type ReadinessEntry struct {
	Backend Backend
	State   ProbeState
	Err     error
}

type probe struct {
	backend Backend
	once    sync.Once
	done    chan struct{}
	state   ProbeState
	err     error
}

// Readiness probes the ranked backends and exposes the ones that answered,
// in rank order. The confirmed list only grows.
type Readiness struct {
	req     Requirements
	policy  ProbePolicy
	timeout time.Duration
	logger  Logger

	group errgroup.Group

	// drainMu serializes callers of Next so entries are consumed in order.
	drainMu sync.Mutex

	mu        sync.RWMutex
	probes    []*probe
	next      int
	confirmed []Backend
}

type ReadinessOption func(*Readiness)

func WithReadinessPolicy(p ProbePolicy) ReadinessOption {
	return func(r *Readiness) {
		if p != "" {
			r.policy = p
		}
	}
}

func WithReadinessTimeout(d time.Duration) ReadinessOption {
	return func(r *Readiness) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithReadinessLogger(l Logger) ReadinessOption {
	return func(r *Readiness) {
		if l != nil {
			r.logger = l
		}
	}
}

func NewReadiness(backends []Backend, req Requirements, opts ...ReadinessOption) *Readiness {
	r := &Readiness{
		req:     req,
		policy:  ProbeEager,
		timeout: DefaultProbeTimeout,
		logger:  nopLogger{},
		probes:  make([]*probe, 0, len(backends)),
	}

	for _, opt := range opts {
		opt(r)
	}

	for _, b := range backends {
		r.probes = append(r.probes, &probe{
			backend: b,
			done:    make(chan struct{}),
			state:   ProbePending,
		})
	}

	return r
}

// Start launches every probe when the policy is eager. With the deferred
// policy it does nothing and probes start from Next. Probes keep the values
// of ctx but not its cancellation, only the probe timeout bounds them.
func (r *Readiness) Start(ctx context.Context) {
	if r.policy != ProbeEager {
		return
	}

	for _, p := range r.probes {
		r.launch(ctx, p)
	}
}

// Confirmed returns a snapshot of the reachable backends found so far.
func (r *Readiness) Confirmed() []Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Backend(nil), r.confirmed...)
}

// Next resolves entries in rank order until one is reachable. It reports
// false once every entry has been consumed. It only blocks on the first
// unresolved entry.
func (r *Readiness) Next(ctx context.Context) (bool, error) {
	r.drainMu.Lock()
	defer r.drainMu.Unlock()

	for {
		r.mu.RLock()
		if r.next >= len(r.probes) {
			r.mu.RUnlock()
			return false, nil
		}
		p := r.probes[r.next]
		r.mu.RUnlock()

		r.launch(ctx, p)

		select {
		case <-p.done:
		case <-ctx.Done():
			return false, ctx.Err()
		}

		r.mu.Lock()
		r.next++
		if p.state == ProbeReachable {
			r.confirmed = append(r.confirmed, p.backend)
			r.mu.Unlock()
			return true, nil
		}
		r.mu.Unlock()
	}
}

// DrainAll resolves every remaining entry and returns the full confirmed list.
func (r *Readiness) DrainAll(ctx context.Context) ([]Backend, error) {
	for {
		more, err := r.Next(ctx)
		if err != nil {
			return r.Confirmed(), err
		}
		if !more {
			return r.Confirmed(), nil
		}
	}
}

// Entries returns a snapshot of every probe in rank order.
func (r *Readiness) Entries() []ReadinessEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ReadinessEntry, 0, len(r.probes))
	for _, p := range r.probes {
		entry := ReadinessEntry{Backend: p.backend, State: ProbePending}
		select {
		case <-p.done:
			entry.State = p.state
			entry.Err = p.err
		default:
		}
		out = append(out, entry)
	}

	return out
}

// Wait blocks until every launched probe has returned.
func (r *Readiness) Wait() {
	_ = r.group.Wait()
}

// launch starts the probe of p once. A probe outlives the caller that
// launched it since its result is shared by every later file.
func (r *Readiness) launch(ctx context.Context, p *probe) {
	p.once.Do(func() {
		base := context.WithoutCancel(ctx)
		r.group.Go(func() error {
			r.run(base, p)
			return nil
		})
	})
}

func (r *Readiness) run(base context.Context, p *probe) {
	ctx, cancel := context.WithTimeout(base, r.timeout)
	defer cancel()

	err := p.backend.CheckReachable(ctx, r.req)

	r.mu.Lock()
	if err != nil {
		p.state = ProbeUnreachable
		p.err = err
	} else {
		p.state = ProbeReachable
	}
	r.mu.Unlock()
	close(p.done)

	if err != nil {
		r.logger.Info("failed to check backend", "backend", p.backend.Name(), "error", err)
		return
	}

	r.logger.Debug("backend is reachable", "backend", p.backend.Name())
}
