package conversation

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/escriba/minuta/internal/common"
)

// Manager owns the live sessions and evicts idle ones on a schedule. State
// is in-memory only; an evicted session is gone.
type Manager struct {
	config  *common.Config
	logger  arbor.ILogger
	cron    *cron.Cron
	mu      sync.RWMutex
	entries map[string]*Session
}

// NewManager creates a session manager with its eviction janitor stopped.
func NewManager(cfg *common.Config, logger arbor.ILogger) *Manager {
	return &Manager{
		config:  cfg,
		logger:  logger,
		cron:    cron.New(),
		entries: make(map[string]*Session),
	}
}

// Create registers a new session and returns it.
func (m *Manager) Create() *Session {
	session := newSession(common.NewSessionID())

	m.mu.Lock()
	m.entries[session.ID] = session
	m.mu.Unlock()

	m.logger.Info().Str("session_id", session.ID).Msg("Session created")
	return session
}

// Get returns the session with the given ID, or nil.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[id]
}

// Delete removes a session.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	_, existed := m.entries[id]
	delete(m.entries, id)
	m.mu.Unlock()

	if existed {
		m.logger.Info().Str("session_id", id).Msg("Session deleted")
	}
}

// Count reports the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Start schedules the idle-session janitor.
func (m *Manager) Start() error {
	schedule := m.config.Session.EvictionSchedule
	if schedule == "" {
		schedule = "@every 10m"
	}

	if _, err := m.cron.AddFunc(schedule, m.evictIdle); err != nil {
		return err
	}
	m.cron.Start()

	m.logger.Info().
		Str("schedule", schedule).
		Str("idle_timeout", m.config.Session.IdleTimeout).
		Msg("Session eviction janitor started")
	return nil
}

// Stop halts the janitor, waiting for a running sweep to finish.
func (m *Manager) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
}

// evictIdle drops every session idle past the configured timeout. Busy
// sessions are skipped; the next sweep picks them up.
func (m *Manager) evictIdle() {
	cutoff := time.Now().Add(-m.config.IdleTimeoutDuration())

	m.mu.Lock()
	var evicted []string
	for id, session := range m.entries {
		if session.Busy() {
			continue
		}
		if session.LastActive().Before(cutoff) {
			delete(m.entries, id)
			evicted = append(evicted, id)
		}
	}
	m.mu.Unlock()

	for _, id := range evicted {
		m.logger.Info().Str("session_id", id).Msg("Idle session evicted")
	}
}
