// Package slot provides a holder for a single uploaded image and its display handle
package slot

import (
	"github.com/UnendingLoop/DamageOverlay/internal/model"
)

// Lifecycle - контракт для выдачи и освобождения display-хендлов
type Lifecycle interface {
	Acquire(p model.Payload) model.Handle
	Release(h model.Handle)
}

// Slot keeps at most one payload. The handle is set iff the payload is set.
type Slot struct {
	name     model.SlotName
	handles  Lifecycle
	onUpload func(model.SlotName)
	payload  model.Payload
	handle   model.Handle
}

// New creates an empty slot. onUpload is called after every successful upload
// so the owner can drop a stale analysis result; it may be nil.
func New(name model.SlotName, handles Lifecycle, onUpload func(model.SlotName)) *Slot {
	return &Slot{name: name, handles: handles, onUpload: onUpload}
}

func (s *Slot) Name() model.SlotName {
	return s.name
}

// Upload replaces the current payload: the old handle is released before the new one is acquired.
func (s *Slot) Upload(p model.Payload) error {
	if p.IsEmpty() {
		return model.ErrEmptyPayload
	}

	s.handles.Release(s.handle)
	s.payload = p
	s.handle = s.handles.Acquire(p)

	if s.onUpload != nil {
		s.onUpload(s.name)
	}
	return nil
}

// Clear releases the handle and empties the slot. Clearing an empty slot is a no-op.
func (s *Slot) Clear() {
	if !s.IsFilled() {
		return
	}
	s.handles.Release(s.handle)
	s.payload = model.Payload{}
	s.handle = model.NoHandle
}

func (s *Slot) IsFilled() bool {
	return !s.payload.IsEmpty()
}

func (s *Slot) Handle() model.Handle {
	return s.handle
}

func (s *Slot) Payload() model.Payload {
	return s.payload
}
