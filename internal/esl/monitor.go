package esl

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"call-router/internal/common/errors"
	"call-router/internal/common/logging"
)

// StatusMonitor polls the switch on a cron schedule and records
// whether the control channel is healthy. Deploys consult the last
// observation to fail fast when the switch has been down.
type StatusMonitor struct {
	client   *Client
	schedule string
	timeout  time.Duration
	logger   logging.Logger

	cron    *cron.Cron
	entryID cron.EntryID

	mu   sync.Mutex
	last state
}

type state struct {
	healthy   bool
	checkedAt time.Time
	err       error
}

// NewStatusMonitor creates a monitor. schedule accepts cron specs and
// the @every form.
func NewStatusMonitor(client *Client, schedule string, timeout time.Duration, logger logging.Logger) *StatusMonitor {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &StatusMonitor{
		client:   client,
		schedule: schedule,
		timeout:  timeout,
		logger:   logger,
		cron:     cron.New(),
	}
}

// Start validates the schedule, runs one immediate check, and begins
// periodic polling.
func (m *StatusMonitor) Start() error {
	id, err := m.cron.AddFunc(m.schedule, m.check)
	if err != nil {
		return errors.ConfigError("invalid switch status schedule: " + m.schedule)
	}
	m.entryID = id
	m.cron.Start()
	go m.check()
	return nil
}

// Stop halts polling. Blocks until a running check finishes.
func (m *StatusMonitor) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
}

// Healthy reports the result of the most recent status check. Before
// the first check completes it reports false.
func (m *StatusMonitor) Healthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last.healthy
}

// LastChecked returns when the most recent check ran, zero before the
// first one.
func (m *StatusMonitor) LastChecked() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last.checkedAt
}

func (m *StatusMonitor) check() {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	err := m.client.Verify(ctx)
	next := state{healthy: err == nil, checkedAt: time.Now(), err: err}

	m.mu.Lock()
	prev := m.last
	m.last = next
	m.mu.Unlock()

	if err != nil {
		m.logger.Warn("Switch status check failed", logging.Err(err))
		return
	}
	if !prev.healthy {
		m.logger.Info("Switch status check passed")
	}
}
