package sitekeeper

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/loykin/sitekeeper/internal/backend"
	cfg "github.com/loykin/sitekeeper/internal/config"
	"github.com/loykin/sitekeeper/internal/logger"
	"github.com/loykin/sitekeeper/internal/manager"
	"github.com/loykin/sitekeeper/internal/metrics"
	iapi "github.com/loykin/sitekeeper/internal/server"
	"github.com/loykin/sitekeeper/internal/site"
	"github.com/loykin/sitekeeper/internal/store"
	"github.com/loykin/sitekeeper/internal/store/factory"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Spec = site.Spec

type Status = backend.Status

type Config = cfg.Config

// ErrNotFound is returned for operations on unknown site names.
var ErrNotFound = site.ErrNotFound

// Manager is a thin facade over internal/manager.Manager.
// It provides a stable public API for embedding.

type Manager struct{ inner *manager.Manager }

// Options configures an embedded Manager. Zero values pick defaults.
type Options struct {
	PIDDir       string
	GracePeriod  time.Duration
	PollInterval time.Duration
	TailLines    int
	Logger       *slog.Logger
}

func New(opts Options) *Manager {
	log := opts.Logger
	if log == nil {
		log = logger.New(logger.Config{})
	}
	be := backend.Select(backend.Config{
		PIDDir:      valOr(opts.PIDDir, cfg.DefaultPIDDir),
		GracePeriod: opts.GracePeriod,
	}, log)
	inner := manager.New(site.NewRegistry(), be, log, manager.Options{
		TailLines:    opts.TailLines,
		PollInterval: opts.PollInterval,
	})
	return &Manager{inner: inner}
}

// NewFromConfig builds a manager seeded with the config's sites.
func NewFromConfig(c *Config, log *slog.Logger) (*Manager, error) {
	m := New(Options{
		PIDDir:       c.PIDDir,
		GracePeriod:  c.GracePeriod,
		PollInterval: c.PollInterval,
		TailLines:    c.TailLines,
		Logger:       log,
	})
	for _, s := range c.Sites {
		if err := m.Add(s); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Manager) Add(s Spec) error          { return m.inner.Registry().Add(s) }
func (m *Manager) Remove(name string) error  { return m.inner.Registry().Remove(name) }
func (m *Manager) Start(name string) error   { return m.inner.Start(name) }
func (m *Manager) Stop(name string) error    { return m.inner.Stop(name) }
func (m *Manager) Restart(name string) error { return m.inner.Restart(name) }
func (m *Manager) Status(name string) (Status, error) {
	return m.inner.Status(name)
}
func (m *Manager) StatusAll() []Status { return m.inner.StatusAll() }
func (m *Manager) Tail(name string, n int) ([]string, error) {
	return m.inner.Tail(name, n)
}
func (m *Manager) Follow(ctx context.Context, name string) (<-chan string, <-chan error, error) {
	return m.inner.Follow(ctx, name)
}
func (m *Manager) AutostartOnce()                       { m.inner.AutostartOnce() }
func (m *Manager) StartWatchdog(interval time.Duration) { m.inner.StartWatchdog(interval) }
func (m *Manager) StopWatchdog()                        { m.inner.StopWatchdog() }
func (m *Manager) SetHistory(dsn string) (store.Store, error) {
	st, err := factory.NewFromDSN(dsn)
	if err != nil {
		return nil, err
	}
	m.inner.SetStore(st)
	return st, nil
}

func LoadConfig(path string) (*Config, error) { return cfg.Load(path) }

// SaveSites persists the site list back into the config file.
func SaveSites(path string, sites []Spec) error { return cfg.SaveSites(path, sites) }

// NewLogger builds a slog.Logger from a logging config section.
func NewLogger(c logger.Config) *slog.Logger { return logger.New(c) }

// Auth re-exports the credential config for embedding.
type Auth = cfg.Auth

// NewHandler returns the management API as a mountable http.Handler.
func NewHandler(m *Manager, basePath string, a Auth, onChange func([]Spec)) http.Handler {
	return iapi.NewRouter(m.inner, basePath, a, onChange).Handler()
}

// NewHTTPServer starts an HTTP server exposing the management API.
// onReload, when non-nil, backs POST {basePath}/reload: it re-reads the
// site list (typically from the config file) and the handler swaps the
// registry contents with it.
func NewHTTPServer(addr, basePath string, a cfg.Auth, m *Manager, onChange func([]Spec), onReload func() ([]Spec, error)) *http.Server {
	r := iapi.NewRouter(m.inner, basePath, a, onChange)
	if onReload != nil {
		r.SetReload(onReload)
	}
	return iapi.NewServer(addr, r)
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

func valOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
