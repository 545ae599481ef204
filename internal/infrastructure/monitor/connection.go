package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Check pings one dependency.
type Check func(ctx context.Context) error

type namedCheck struct {
	name  string
	check Check
}

// Monitor periodically pings the registered dependencies on a cron schedule
// and caches the result for the health endpoint.
type Monitor struct {
	checks   []namedCheck
	status   Status
	mu       sync.RWMutex
	interval time.Duration
	timeout  time.Duration
	cron     *cron.Cron
	logger   *zap.Logger
}

func New(interval time.Duration, logger *zap.Logger) *Monitor {
	if interval < time.Second {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		interval: interval,
		timeout:  3 * time.Second,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger,
	}
}

// Register adds a dependency check. It must be called before Start.
func (m *Monitor) Register(name string, check Check) {
	if check == nil {
		return
	}
	m.checks = append(m.checks, namedCheck{name: name, check: check})
}

// Start runs a first check synchronously and then schedules the rest.
func (m *Monitor) Start() error {
	m.Refresh(context.Background())
	m.cron.Schedule(every(m.interval), cron.FuncJob(func() { m.Refresh(context.Background()) }))
	m.cron.Start()
	return nil
}

// every fires at a fixed interval. cron's own "@every" drops sub-second
// precision, so 1.5s would run every second.
type every time.Duration

func (e every) Next(t time.Time) time.Time {
	return t.Add(time.Duration(e))
}

// Stop halts the scheduler, waiting for a running check unless ctx ends first.
func (m *Monitor) Stop(ctx context.Context) {
	stopCtx := m.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
}

func (m *Monitor) IsOnline() bool {
	return m.GetStatus().Healthy()
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	services := make(map[string]bool, len(m.status.Services))
	for k, v := range m.status.Services {
		services[k] = v
	}
	return Status{Services: services, LastCheck: m.status.LastCheck}
}

// Refresh pings every dependency now.
func (m *Monitor) Refresh(ctx context.Context) {
	services := make(map[string]bool, len(m.checks))
	for _, c := range m.checks {
		checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
		err := c.check(checkCtx)
		cancel()
		if err != nil {
			m.logger.Warn("dependency check failed", zap.String("service", c.name), zap.Error(err))
		}
		services[c.name] = err == nil
	}

	m.mu.Lock()
	m.status = Status{Services: services, LastCheck: time.Now()}
	m.mu.Unlock()
}
