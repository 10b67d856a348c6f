// Package session keeps one workflow controller per analysis session
package session

import (
	"context"
	"sync"

	"github.com/UnendingLoop/DamageOverlay/internal/model"
	"github.com/UnendingLoop/DamageOverlay/internal/mwlogger"
	"github.com/UnendingLoop/DamageOverlay/internal/slot"
	"github.com/UnendingLoop/DamageOverlay/internal/workflow"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
)

type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*workflow.Controller

	handles  slot.Lifecycle
	analyzer workflow.Analyzer
	opts     workflow.Options
}

func NewManager(handles slot.Lifecycle, analyzer workflow.Analyzer, opts workflow.Options) *Manager {
	return &Manager{
		sessions: make(map[string]*workflow.Controller),
		handles:  handles,
		analyzer: analyzer,
		opts:     opts,
	}
}

// Create opens a new session in Idle.
func (m *Manager) Create(ctx context.Context) *workflow.Controller {
	id := uuid.NewString()
	c := workflow.New(id, m.handles, m.analyzer, m.opts)

	m.mu.Lock()
	m.sessions[id] = c
	m.mu.Unlock()

	logger := mwlogger.LoggerFromContext(ctx)
	logger.Info().Str("session_id", id).Msg("Session created")
	return c
}

func (m *Manager) Get(id string) (*workflow.Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return c, nil
}

// Delete closes the session: the request in flight is canceled and every handle released.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	c, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return model.ErrSessionNotFound
	}
	c.Close()

	zlog.Logger.Info().Str("session_id", id).Msg("Session closed")
	return nil
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll is used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*workflow.Controller)
	m.mu.Unlock()

	for _, c := range sessions {
		c.Close()
	}
	zlog.Logger.Info().Int("sessions", len(sessions)).Msg("All sessions closed")
}
