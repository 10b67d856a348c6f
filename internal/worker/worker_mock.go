package worker

import (
	"context"
	"sync"

	"github.com/UnendingLoop/DamageOverlay/internal/model"
	kafkago "github.com/segmentio/kafka-go"
)

type mockCommitter struct {
	mu        sync.Mutex
	committed []kafkago.Message
	commitErr error
}

func (m *mockCommitter) Commit(ctx context.Context, msg kafkago.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed = append(m.committed, msg)
	return m.commitErr
}

func (m *mockCommitter) Committed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.committed)
}

//----------------------------------

type mockSink struct {
	mu  sync.Mutex
	got []model.Notification
}

func (m *mockSink) Notify(ctx context.Context, n model.Notification) {
	m.mu.Lock()
	m.got = append(m.got, n)
	m.mu.Unlock()
}

func (m *mockSink) Got() []model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Notification(nil), m.got...)
}
