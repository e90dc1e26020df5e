package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Brownie44l1/sketchpad/internal/metrics"
	"github.com/jonboulle/clockwork"
)

var (
	// ErrLoad reports that the model resource could not be fetched or parsed.
	// It is permanent for the lifetime of the Manager.
	ErrLoad = errors.New("model load failed")
	// ErrNotLoaded reports a read before the load completed or before it was started.
	ErrNotLoaded = errors.New("model not loaded yet")
	// ErrClosed reports a read after Close.
	ErrClosed = errors.New("model session closed")
)

// Status is the lifecycle phase of the managed session.
type Status int

const (
	StatusPending Status = iota
	StatusLoading
	StatusReady
	StatusFailed
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	case StatusClosed:
		return "closed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Handle is a reference to a loaded session. It exposes the model's declared
// input and output names; runs issued through a Manager's handle are tracked
// so Close waits for them.
type Handle struct {
	InputNames  []string
	OutputNames []string

	session Session
	m       *Manager
}

// NewHandle wraps session in a Handle that no Manager tracks.
func NewHandle(session Session) Handle {
	return Handle{
		InputNames:  session.InputNames(),
		OutputNames: session.OutputNames(),
		session:     session,
	}
}

func (h Handle) Ready() bool { return h.session != nil }

// Run feeds the session. It fails with ErrClosed once the owning Manager released the session.
func (h Handle) Run(ctx context.Context, feeds map[string]Tensor) (map[string]Value, error) {
	if h.session == nil {
		return nil, ErrNotLoaded
	}
	if h.m != nil {
		h.m.runs.RLock()
		defer h.m.runs.RUnlock()
		if h.m.released {
			return nil, ErrClosed
		}
	}
	return h.session.Run(ctx, feeds)
}

// Manager owns the single inference session of the process. The session is
// loaded at most once; a failed load is never retried.
type Manager struct {
	loader Loader
	clock  clockwork.Clock

	loadOnce sync.Once
	done     chan struct{}

	mu      sync.RWMutex
	status  Status
	session Session
	err     error

	// runs is held shared by every Handle.Run and exclusively by Close.
	runs     sync.RWMutex
	released bool
}

// NewManager creates a Manager that opens sessions with loader.
func NewManager(loader Loader, clock clockwork.Clock) *Manager {
	return &Manager{
		loader: loader,
		clock:  clock,
		done:   make(chan struct{}),
	}
}

// Load starts loading path in the background and returns immediately.
// Only the first call has any effect.
func (m *Manager) Load(ctx context.Context, path string) {
	m.loadOnce.Do(func() {
		m.mu.Lock()
		m.status = StatusLoading
		m.mu.Unlock()

		go m.load(ctx, path)
	})
}

func (m *Manager) load(ctx context.Context, path string) {
	defer close(m.done)

	start := m.clock.Now()
	slog.Info("Loading model", "path", path)

	session, err := m.loader(ctx, path)
	elapsed := m.clock.Since(start)
	metrics.ModelLoadDuration.Observe(elapsed.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status == StatusClosed {
		if session != nil {
			_ = session.Close()
		}
		return
	}

	if err != nil {
		m.status = StatusFailed
		m.err = fmt.Errorf("%w: %s: %w", ErrLoad, path, err)
		metrics.ModelLoadsTotal.WithLabelValues("error").Inc()
		slog.Error("Model load failed", "path", path, "error", err)
		return
	}

	m.status = StatusReady
	m.session = session
	metrics.ModelLoadsTotal.WithLabelValues("success").Inc()
	slog.Info("Model loaded",
		"path", path,
		"inputs", session.InputNames(),
		"outputs", session.OutputNames(),
		"duration", elapsed)
}

// Handle returns the loaded session, or an error wrapping ErrNotLoaded,
// ErrLoad or ErrClosed.
func (m *Manager) Handle() (Handle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch m.status {
	case StatusReady:
		h := NewHandle(m.session)
		h.m = m
		return h, nil
	case StatusFailed:
		return Handle{}, m.err
	case StatusClosed:
		return Handle{}, ErrClosed
	default:
		return Handle{}, ErrNotLoaded
	}
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) Loading() bool {
	return m.Status() == StatusLoading
}

// Done is closed once the load attempt resolves, successfully or not.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Wait blocks until the load attempt resolves or ctx ends, and returns the load error.
func (m *Manager) Wait(ctx context.Context) error {
	select {
	case <-m.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	_, err := m.Handle()
	return err
}

// Close releases the session once every run still inside the engine has
// returned. The Manager cannot be reloaded afterwards.
func (m *Manager) Close() error {
	m.loadOnce.Do(func() { close(m.done) })

	m.mu.Lock()
	session := m.session
	m.session = nil
	m.status = StatusClosed
	m.mu.Unlock()

	m.runs.Lock()
	defer m.runs.Unlock()
	m.released = true

	if session == nil {
		return nil
	}
	return session.Close()
}
