package manager

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/loykin/sitekeeper/internal/backend"
	"github.com/loykin/sitekeeper/internal/metrics"
	"github.com/loykin/sitekeeper/internal/site"
	"github.com/loykin/sitekeeper/internal/store"
	"github.com/loykin/sitekeeper/internal/tail"
)

// Options tune manager behavior; zero values pick the defaults.
type Options struct {
	TailLines    int
	PollInterval time.Duration
}

// Manager serializes lifecycle operations per site and fronts the active
// backend. All operations on the same site take the same lock, so a manual
// restart can never interleave with a watchdog restart of that site.
type Manager struct {
	reg    *site.Registry
	be     backend.Backend
	logger *slog.Logger
	opts   Options

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	storeMu sync.RWMutex
	store   store.Store

	wdMu     sync.Mutex
	wdCancel context.CancelFunc
	wdDone   chan struct{}
}

func New(reg *site.Registry, be backend.Backend, logger *slog.Logger, opts Options) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TailLines <= 0 {
		opts.TailLines = 200
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = tail.DefaultPollInterval
	}
	return &Manager{
		reg:    reg,
		be:     be,
		logger: logger,
		opts:   opts,
		locks:  make(map[string]*sync.Mutex),
	}
}

// SetStore attaches an optional history store. Nil detaches.
func (m *Manager) SetStore(s store.Store) {
	m.storeMu.Lock()
	m.store = s
	m.storeMu.Unlock()
}

func (m *Manager) Registry() *site.Registry { return m.reg }

func (m *Manager) lockFor(name string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[name]
	if !ok {
		l = &sync.Mutex{}
		m.locks[name] = l
	}
	return l
}

// Start brings the named site up. Starting a running site is a no-op and
// is neither counted nor recorded.
func (m *Manager) Start(name string) error {
	s, err := m.reg.Get(name)
	if err != nil {
		return err
	}
	l := m.lockFor(name)
	l.Lock()
	defer l.Unlock()
	wasRunning := m.be.Status(s).Running
	if err := m.be.Start(s); err != nil {
		metrics.IncStartError(name)
		return err
	}
	if wasRunning {
		return nil
	}
	metrics.IncStart(name)
	m.recordEvent(s, store.EventStart, "")
	m.logger.Info("site started", "site", name, "mode", m.be.Mode())
	return nil
}

// Stop brings the named site down. Stopping a stopped site is a no-op and
// is neither counted nor recorded.
func (m *Manager) Stop(name string) error {
	s, err := m.reg.Get(name)
	if err != nil {
		return err
	}
	l := m.lockFor(name)
	l.Lock()
	defer l.Unlock()
	wasRunning := m.be.Status(s).Running
	if err := m.be.Stop(s); err != nil {
		return err
	}
	if !wasRunning {
		return nil
	}
	metrics.IncStop(name)
	m.recordEvent(s, store.EventStop, "")
	m.logger.Info("site stopped", "site", name)
	return nil
}

// Restart stops then starts under a single lock acquisition.
func (m *Manager) Restart(name string) error {
	s, err := m.reg.Get(name)
	if err != nil {
		return err
	}
	l := m.lockFor(name)
	l.Lock()
	defer l.Unlock()
	if err := m.be.Restart(s); err != nil {
		metrics.IncStartError(name)
		return err
	}
	metrics.IncRestart(name)
	m.recordEvent(s, store.EventRestart, "")
	m.logger.Info("site restarted", "site", name)
	return nil
}

// Status probes one site.
func (m *Manager) Status(name string) (backend.Status, error) {
	s, err := m.reg.Get(name)
	if err != nil {
		return backend.Status{}, err
	}
	return m.be.Status(s), nil
}

// StatusAll probes every registered site in registration order.
func (m *Manager) StatusAll() []backend.Status {
	sites := m.reg.List()
	out := make([]backend.Status, 0, len(sites))
	running := 0
	for _, s := range sites {
		st := m.be.Status(s)
		if st.Running {
			running++
		}
		out = append(out, st)
	}
	metrics.SetSitesRunning(running)
	return out
}

// Tail returns the last n lines of the site's log file.
func (m *Manager) Tail(name string, n int) ([]string, error) {
	s, err := m.reg.Get(name)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = m.opts.TailLines
	}
	return tail.Tail(s.LogPath(), n)
}

// Follow streams log lines appended after the call until ctx is canceled.
func (m *Manager) Follow(ctx context.Context, name string) (<-chan string, <-chan error, error) {
	s, err := m.reg.Get(name)
	if err != nil {
		return nil, nil, err
	}
	fw := tail.NewFollower(s.LogPath(), m.opts.PollInterval)
	lines, errs := fw.Run(ctx)
	return lines, errs, nil
}

// AutostartOnce starts every site with autostart set. Failures are logged and
// do not block the remaining sites.
func (m *Manager) AutostartOnce() {
	for _, s := range m.reg.List() {
		if !s.Autostart {
			continue
		}
		if err := m.Start(s.Name); err != nil {
			m.logger.Error("autostart failed", "site", s.Name, "err", err)
		}
	}
}

func (m *Manager) recordEvent(s site.Spec, ev store.EventType, detail string) {
	m.storeMu.RLock()
	st := m.store
	m.storeMu.RUnlock()
	if st == nil {
		return
	}
	status := m.be.Status(s)
	rec := store.Record{
		Name:       s.Name,
		Event:      ev,
		Mode:       string(m.be.Mode()),
		PID:        status.PID,
		Detail:     detail,
		OccurredAt: time.Now().UTC(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := st.RecordEvent(ctx, rec); err != nil {
		m.logger.Warn("history record failed", "site", s.Name, "event", ev, "err", err)
	}
}
