package manager

import (
	"context"
	"time"

	"github.com/loykin/sitekeeper/internal/metrics"
	"github.com/loykin/sitekeeper/internal/store"
)

// StartWatchdog begins periodic supervision: every interval it probes each
// site marked autostart or autorestart and starts it again if it is down.
// Calling StartWatchdog while one is already running is a no-op.
func (m *Manager) StartWatchdog(interval time.Duration) {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	m.wdMu.Lock()
	defer m.wdMu.Unlock()
	if m.wdCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.wdCancel = cancel
	m.wdDone = done
	go m.watchdogLoop(ctx, interval, done)
}

// StopWatchdog halts supervision and waits for the loop to exit.
func (m *Manager) StopWatchdog() {
	m.wdMu.Lock()
	cancel := m.wdCancel
	done := m.wdDone
	m.wdCancel = nil
	m.wdDone = nil
	m.wdMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (m *Manager) watchdogLoop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.superviseOnce()
		}
	}
}

func (m *Manager) superviseOnce() {
	for _, s := range m.reg.List() {
		if !s.Autostart && !s.Autorestart {
			continue
		}
		l := m.lockFor(s.Name)
		l.Lock()
		st := m.be.Status(s)
		if st.Running {
			l.Unlock()
			continue
		}
		err := m.be.Start(s)
		l.Unlock()
		if err != nil {
			metrics.IncStartError(s.Name)
			m.logger.Warn("watchdog start failed", "site", s.Name, "err", err)
			continue
		}
		metrics.IncWatchdogRestart(s.Name)
		m.recordEvent(s, store.EventWatchdogRestart, "")
		m.logger.Info("watchdog restarted site", "site", s.Name)
	}
}
