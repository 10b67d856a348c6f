package slot

import (
	"fmt"

	"github.com/UnendingLoop/DamageOverlay/internal/model"
)

// MOCK LIFECYCLE - считает выдачи и освобождения хендлов

type mockLifecycle struct {
	next     int
	live     map[model.Handle]bool
	acquired []model.Handle
	released []model.Handle
	events   []string
}

func newMockLifecycle() *mockLifecycle {
	return &mockLifecycle{live: make(map[model.Handle]bool)}
}

func (m *mockLifecycle) Acquire(p model.Payload) model.Handle {
	m.next++
	h := model.Handle(fmt.Sprintf("blob:%d", m.next))
	m.live[h] = true
	m.acquired = append(m.acquired, h)
	m.events = append(m.events, "acquire:"+string(h))
	return h
}

func (m *mockLifecycle) Release(h model.Handle) {
	if h == model.NoHandle {
		return
	}
	m.released = append(m.released, h)
	m.events = append(m.events, "release:"+string(h))
	delete(m.live, h)
}
