package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

var _ Uploader = &Manager{}

// Uploader uploads single files or whole sources with backend fallback.
type Uploader interface {
	UploadFile(ctx context.Context, file *File) (*Result, error)
	UploadAll(ctx context.Context, source FileSource) (*Report, error)
}

// Manager negotiates backends against the requirements, keeps the readiness
// pipeline for the run and walks the confirmed backends for every file.
type Manager struct {
	logger          Logger
	backends        []Backend
	req             Requirements
	wanted          []string
	excluded        []string
	policy          ProbePolicy
	probeTimeout    time.Duration
	uploadTimeout   time.Duration
	continueOnError bool

	onComplete       UploadCallback
	callbackMode     CallbackMode
	callbackExecutor CallbackExecutor

	mu         sync.Mutex
	readiness  *Readiness
	ranked     []Backend
	prepareErr error
	prepared   bool
}

type Option func(m *Manager)

func WithLogger(l Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithBackends sets the pool in default priority order.
func WithBackends(backends ...Backend) Option {
	return func(m *Manager) {
		m.backends = append(m.backends, backends...)
	}
}

func WithRequirements(req Requirements) Option {
	return func(m *Manager) {
		m.req = req
	}
}

// WithWanted restricts the run to the named backends, tried in this order.
func WithWanted(names ...string) Option {
	return func(m *Manager) {
		m.wanted = append(m.wanted, names...)
	}
}

func WithExcluded(names ...string) Option {
	return func(m *Manager) {
		m.excluded = append(m.excluded, names...)
	}
}

func WithProbePolicy(p ProbePolicy) Option {
	return func(m *Manager) {
		if p != "" {
			m.policy = p
		}
	}
}

func WithProbeTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.probeTimeout = d
		}
	}
}

// WithUploadTimeout bounds each upload attempt. Zero means no limit.
func WithUploadTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.uploadTimeout = d
		}
	}
}

// WithContinueOnError records files no backend accepted and moves on
// instead of aborting the run.
func WithContinueOnError(v bool) Option {
	return func(m *Manager) {
		m.continueOnError = v
	}
}

func WithOnUploadComplete(cb UploadCallback) Option {
	return func(m *Manager) {
		m.onComplete = cb
	}
}

func WithCallbackMode(mode CallbackMode) Option {
	return func(m *Manager) {
		if mode != "" {
			m.callbackMode = mode
		}
	}
}

func WithCallbackExecutor(executor CallbackExecutor) Option {
	return func(m *Manager) {
		if executor != nil {
			m.callbackExecutor = executor
		}
	}
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		logger:           &DefaultLogger{},
		policy:           ProbeEager,
		probeTimeout:     DefaultProbeTimeout,
		uploadTimeout:    DefaultUploadTimeout,
		callbackMode:     CallbackModeBestEffort,
		callbackExecutor: syncCallbackExecutor{},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Prepare validates the configuration, ranks the backends and starts the
// readiness pipeline. It runs once; later calls return the first result.
// Every configuration error surfaces here, before any upload.
func (m *Manager) Prepare(ctx context.Context) error {
	_, err := m.ensureReadiness(ctx)
	return err
}

// Ranked returns the statically eligible backends in priority order.
func (m *Manager) Ranked(ctx context.Context) ([]Backend, error) {
	if _, err := m.ensureReadiness(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Backend(nil), m.ranked...), nil
}

// Available probes every eligible backend and returns the reachable ones
// in priority order.
func (m *Manager) Available(ctx context.Context) ([]Backend, error) {
	r, err := m.ensureReadiness(ctx)
	if err != nil {
		return nil, err
	}

	return r.DrainAll(ctx)
}

// Probes returns the probe state of every ranked backend in priority order.
// It is empty until the manager is prepared.
func (m *Manager) Probes() []ReadinessEntry {
	m.mu.Lock()
	r := m.readiness
	m.mu.Unlock()

	if r == nil {
		return nil
	}

	return r.Entries()
}

// UploadFile tries the confirmed backends in order and returns the first
// URL. When they are used up the next pending backend is probed on demand.
// If the pipeline runs dry the returned error wraps ErrNoBackendAccepted.
func (m *Manager) UploadFile(ctx context.Context, file *File) (*Result, error) {
	if file == nil {
		return nil, ErrInvalidPath
	}

	r, err := m.ensureReadiness(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result := &Result{File: file.Name()}

	var lastErr error
	pos := 0

	for {
		confirmed := r.Confirmed()

		for ; pos < len(confirmed); pos++ {
			backend := confirmed[pos]

			if !backend.StaticFileCheck(m.req, file) {
				m.logger.Debug("backend rejected file", "backend", backend.Name(), "file", file.Name())
				continue
			}

			url, err := m.attempt(ctx, backend, file)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					result.Err = ctxErr
					result.Duration = time.Since(start)
					return result, ctxErr
				}
				m.logger.Info("upload failed", "backend", backend.Name(), "file", file.Name(), "error", err)
				lastErr = err
				continue
			}

			result.Backend = backend.Name()
			result.URL = url
			result.Duration = time.Since(start)

			if err := m.notify(ctx, result); err != nil {
				return result, err
			}

			return result, nil
		}

		more, err := r.Next(ctx)
		if err != nil {
			result.Err = err
			result.Duration = time.Since(start)
			return result, err
		}

		if !more {
			break
		}
	}

	err = fmt.Errorf("%w: %s", ErrNoBackendAccepted, file.Name())
	if lastErr != nil {
		err = fmt.Errorf("%w: %s: last error: %v", ErrNoBackendAccepted, file.Name(), lastErr)
	}

	result.Err = err
	result.Duration = time.Since(start)
	return result, err
}

// UploadAll drains source. With continue on error disabled the first file
// that no backend accepts ends the run; the partial report is returned with
// the error either way.
func (m *Manager) UploadAll(ctx context.Context, source FileSource) (*Report, error) {
	report := &Report{}

	if source == nil {
		return report, nil
	}

	if _, err := m.ensureReadiness(ctx); err != nil {
		return report, err
	}

	for {
		file, err := source.Next(ctx)
		if errors.Is(err, io.EOF) {
			return report, nil
		}

		if err != nil {
			return report, err
		}

		result, err := m.UploadFile(ctx, file)
		report.Add(result)

		if err == nil {
			continue
		}

		if m.continueOnError && errors.Is(err, ErrNoBackendAccepted) {
			m.logger.Error("failed to upload file", "file", file.Name(), "error", err)
			continue
		}

		return report, err
	}
}

// Close waits for the probes still in flight.
func (m *Manager) Close() error {
	m.mu.Lock()
	r := m.readiness
	m.mu.Unlock()

	if r != nil {
		r.Wait()
	}

	return nil
}

func (m *Manager) attempt(ctx context.Context, backend Backend, file *File) (string, error) {
	if m.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.uploadTimeout)
		defer cancel()
	}

	m.logger.Debug("uploading file", "backend", backend.Name(), "file", file.Name(), "size", file.Size())

	url, err := backend.UploadFile(ctx, m.req, file)
	if err != nil {
		return "", err
	}

	if url == "" {
		return "", fmt.Errorf("%w: empty url", ErrUnexpectedResponse)
	}

	return url, nil
}

func (m *Manager) notify(ctx context.Context, result *Result) error {
	if m.onComplete == nil {
		return nil
	}

	executor := m.callbackExecutor
	if executor == nil {
		executor = syncCallbackExecutor{}
	}

	err := executor.Execute(ctx, m.onComplete, result)
	if err == nil {
		return nil
	}

	if m.callbackMode == CallbackModeStrict {
		result.Err = fmt.Errorf("%w: %v", ErrCallbackFailed, err)
		return result.Err
	}

	m.logger.Error("upload callback failed", "file", result.File, "error", err)
	return nil
}

func (m *Manager) ensureReadiness(ctx context.Context) (*Readiness, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.prepared {
		return m.readiness, m.prepareErr
	}

	m.prepared = true
	m.readiness, m.prepareErr = m.prepare(ctx)
	return m.readiness, m.prepareErr
}

func (m *Manager) prepare(ctx context.Context) (*Readiness, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := m.req.Validate(); err != nil {
		return nil, err
	}

	ranked, err := Rank(m.backends, m.wanted, m.excluded, m.req, m.logger)
	if err != nil {
		return nil, err
	}

	if len(ranked) == 0 {
		return nil, ErrNoBackends
	}

	m.ranked = ranked
	m.logger.Debug("ranked backends", "backends", Names(ranked))

	r := NewReadiness(ranked, m.req,
		WithReadinessPolicy(m.policy),
		WithReadinessTimeout(m.probeTimeout),
		WithReadinessLogger(m.logger),
	)
	r.Start(ctx)

	return r, nil
}
