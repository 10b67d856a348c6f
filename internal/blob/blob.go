// Package blob provides a registry of local display handles for binary images:
// every acquired handle is bound to one payload until it is released.
package blob

import (
	"strings"
	"sync"

	"github.com/UnendingLoop/DamageOverlay/internal/model"
	"github.com/google/uuid"
)

const handlePrefix = "blob:"

type Registry struct {
	mu    sync.RWMutex
	blobs map[model.Handle]model.Payload
}

func NewRegistry() *Registry {
	return &Registry{blobs: make(map[model.Handle]model.Payload)}
}

// Acquire binds payload to a fresh handle. The registry keeps the payload as is,
// callers must not mutate p.Data afterwards.
func (r *Registry) Acquire(p model.Payload) model.Handle {
	h := model.Handle(handlePrefix + uuid.NewString())

	r.mu.Lock()
	r.blobs[h] = p
	r.mu.Unlock()

	return h
}

// Release invalidates h. Unknown, already released and empty handles are ignored.
func (r *Registry) Release(h model.Handle) {
	if h == model.NoHandle {
		return
	}

	r.mu.Lock()
	delete(r.blobs, h)
	r.mu.Unlock()
}

// Open dereferences a live handle.
func (r *Registry) Open(h model.Handle) (model.Payload, error) {
	r.mu.RLock()
	p, ok := r.blobs[h]
	r.mu.RUnlock()

	if !ok {
		return model.Payload{}, model.ErrHandleNotFound
	}
	return p, nil
}

// Outstanding returns the number of handles acquired and not yet released.
func (r *Registry) Outstanding() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.blobs)
}

// ParseHandle accepts both "blob:<uuid>" and a bare uuid, as it comes from URL params.
func ParseHandle(raw string) (model.Handle, error) {
	id := strings.TrimPrefix(raw, handlePrefix)
	if err := uuid.Validate(id); err != nil {
		return model.NoHandle, model.ErrHandleNotFound
	}
	return model.Handle(handlePrefix + id), nil
}

// ID returns the URL-safe part of a handle.
func ID(h model.Handle) string {
	return strings.TrimPrefix(string(h), handlePrefix)
}
