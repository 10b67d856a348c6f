package slot

import (
	"testing"

	"github.com/UnendingLoop/DamageOverlay/internal/model"
	"github.com/stretchr/testify/require"
)

func payload(s string) model.Payload {
	return model.Payload{Data: []byte(s), Filename: s + ".png", ContentType: model.PNG}
}

// UPLOAD - SUCCESS
func TestSlot_Upload_OK(t *testing.T) {
	lc := newMockLifecycle()
	var signaled []model.SlotName
	s := New(model.SlotPre, lc, func(n model.SlotName) { signaled = append(signaled, n) })

	require.False(t, s.IsFilled())
	require.Equal(t, model.NoHandle, s.Handle())

	require.NoError(t, s.Upload(payload("imgA")))
	require.True(t, s.IsFilled())
	require.Equal(t, model.Handle("blob:1"), s.Handle())
	require.Equal(t, []byte("imgA"), s.Payload().Data)
	require.Equal(t, []model.SlotName{model.SlotPre}, signaled)
}

// UPLOAD - REPLACE: release-before-acquire, ровно один раз
func TestSlot_Upload_ReplaceReleasesOldHandleFirst(t *testing.T) {
	lc := newMockLifecycle()
	s := New(model.SlotPost, lc, nil)

	require.NoError(t, s.Upload(payload("imgA")))
	require.NoError(t, s.Upload(payload("imgB")))
	require.NoError(t, s.Upload(payload("imgC")))

	require.Equal(t, []string{
		"acquire:blob:1",
		"release:blob:1",
		"acquire:blob:2",
		"release:blob:2",
		"acquire:blob:3",
	}, lc.events)
	require.Len(t, lc.live, 1)
	require.True(t, lc.live[s.Handle()])
	require.Equal(t, []byte("imgC"), s.Payload().Data)
}

// UPLOAD - FAIL - EMPTY
func TestSlot_Upload_Empty(t *testing.T) {
	lc := newMockLifecycle()
	called := false
	s := New(model.SlotPre, lc, func(model.SlotName) { called = true })

	require.NoError(t, s.Upload(payload("imgA")))
	called = false

	err := s.Upload(model.Payload{})
	require.ErrorIs(t, err, model.ErrEmptyPayload)
	require.False(t, called)
	// прежнее содержимое не тронуто
	require.Equal(t, []byte("imgA"), s.Payload().Data)
	require.Empty(t, lc.released)
}

// CLEAR
func TestSlot_Clear(t *testing.T) {
	lc := newMockLifecycle()
	s := New(model.SlotPre, lc, nil)

	s.Clear()
	require.Empty(t, lc.released)

	require.NoError(t, s.Upload(payload("imgA")))
	h := s.Handle()

	s.Clear()
	require.False(t, s.IsFilled())
	require.Equal(t, model.NoHandle, s.Handle())
	require.Equal(t, []model.Handle{h}, lc.released)

	s.Clear()
	require.Len(t, lc.released, 1)
}
