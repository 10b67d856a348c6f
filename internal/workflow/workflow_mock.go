package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/UnendingLoop/DamageOverlay/internal/model"
)

// MOCK ANALYZER

type mockAnalyzer struct {
	mu        sync.Mutex
	calls     int
	analyzeFn func(ctx context.Context, pre, post model.Payload) (model.Payload, error)
}

func (m *mockAnalyzer) Analyze(ctx context.Context, pre, post model.Payload) (model.Payload, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.analyzeFn(ctx, pre, post)
}

func (m *mockAnalyzer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MOCK LIFECYCLE - ловит утечки и двойные освобождения

type mockLifecycle struct {
	mu        sync.Mutex
	next      int
	live      map[model.Handle]model.Payload
	released  map[model.Handle]int
	badFrees  []model.Handle
	acquireOK int
}

func newMockLifecycle() *mockLifecycle {
	return &mockLifecycle{
		live:     make(map[model.Handle]model.Payload),
		released: make(map[model.Handle]int),
	}
}

func (m *mockLifecycle) Acquire(p model.Payload) model.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	h := model.Handle(fmt.Sprintf("blob:%d", m.next))
	m.live[h] = p
	m.acquireOK++
	return h
}

func (m *mockLifecycle) Release(h model.Handle) {
	if h == model.NoHandle {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.live[h]; !ok {
		m.badFrees = append(m.badFrees, h)
		return
	}
	delete(m.live, h)
	m.released[h]++
}

func (m *mockLifecycle) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

func (m *mockLifecycle) Payload(h model.Handle) (model.Payload, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.live[h]
	return p, ok
}

func (m *mockLifecycle) BadFrees() []model.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Handle(nil), m.badFrees...)
}

func (m *mockLifecycle) Acquired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquireOK
}

// MOCK NOTIFIER

type mockNotifier struct {
	mu   sync.Mutex
	sent []model.Notification
}

func (m *mockNotifier) Notify(ctx context.Context, n model.Notification) {
	m.mu.Lock()
	m.sent = append(m.sent, n)
	m.mu.Unlock()
}

func (m *mockNotifier) Sent() []model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Notification(nil), m.sent...)
}
