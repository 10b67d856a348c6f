package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/UnendingLoop/DamageOverlay/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func img(s string) model.Payload {
	return model.Payload{Data: []byte(s), Filename: s + ".png", ContentType: model.PNG}
}

func returns(res model.Payload, err error) *mockAnalyzer {
	return &mockAnalyzer{
		analyzeFn: func(ctx context.Context, pre, post model.Payload) (model.Payload, error) {
			return res, err
		},
	}
}

// blocking возвращает анализатор, который ждет сигнала или отмены контекста
func blocking(release <-chan struct{}, res model.Payload) *mockAnalyzer {
	return &mockAnalyzer{
		analyzeFn: func(ctx context.Context, pre, post model.Payload) (model.Payload, error) {
			select {
			case <-release:
				return res, nil
			case <-ctx.Done():
				return model.Payload{}, ctx.Err()
			}
		},
	}
}

func newController(a Analyzer, opts Options) (*Controller, *mockLifecycle) {
	lc := newMockLifecycle()
	nop := zerolog.Nop()
	opts.Logger = &nop
	return New("session-1", lc, a, opts), lc
}

func wait(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("analysis outcome was not applied in time")
	}
}

func fill(t *testing.T, c *Controller, pre, post string) {
	t.Helper()
	require.NoError(t, c.Upload(model.SlotPre, img(pre)))
	require.NoError(t, c.Upload(model.SlotPost, img(post)))
}

// SCENARIO A: upload pre, upload post -> Ready -> submit -> Completed(R1)
func TestController_ScenarioA_SubmitCompletes(t *testing.T) {
	var gotPre, gotPost model.Payload
	a := &mockAnalyzer{
		analyzeFn: func(ctx context.Context, pre, post model.Payload) (model.Payload, error) {
			gotPre, gotPost = pre, post
			return img("R1"), nil
		},
	}
	c, lc := newController(a, Options{})

	require.NoError(t, c.Upload(model.SlotPre, img("imgA")))
	require.Equal(t, model.StateIdle, c.State().Kind)
	require.False(t, c.CanSubmit())

	require.NoError(t, c.Upload(model.SlotPost, img("imgB")))
	require.Equal(t, model.StateReady, c.State().Kind)
	require.True(t, c.CanSubmit())

	done, err := c.Submit(context.Background())
	require.NoError(t, err)
	wait(t, done)

	require.Equal(t, model.StateCompleted, c.State().Kind)
	require.Equal(t, []byte("imgA"), gotPre.Data)
	require.Equal(t, []byte("imgB"), gotPost.Data)

	h, err := c.Result()
	require.NoError(t, err)
	p, ok := lc.Payload(h)
	require.True(t, ok)
	require.Equal(t, []byte("R1"), p.Data)
	require.Equal(t, 3, lc.Live())
}

// SCENARIO B: из Completed новая загрузка pre сбрасывает результат, post остается
func TestController_ScenarioB_UploadAfterCompletedDropsResult(t *testing.T) {
	c, lc := newController(returns(img("R1"), nil), Options{})
	fill(t, c, "imgA", "imgB")

	done, err := c.Submit(context.Background())
	require.NoError(t, err)
	wait(t, done)
	result, err := c.Result()
	require.NoError(t, err)
	postHandle := c.Snapshot().Post

	require.NoError(t, c.Upload(model.SlotPre, img("imgC")))

	snap := c.Snapshot()
	require.Equal(t, model.StateReady, snap.State.Kind)
	require.Equal(t, model.NoHandle, snap.Result)
	require.Equal(t, postHandle, snap.Post)
	_, ok := lc.Payload(result)
	require.False(t, ok)
	_, err = c.Result()
	require.ErrorIs(t, err, model.ErrNoResult)

	p, ok := lc.Payload(snap.Post)
	require.True(t, ok)
	require.Equal(t, []byte("imgB"), p.Data)
	require.Equal(t, 2, lc.Live())
	require.Empty(t, lc.BadFrees())
}

// SCENARIO C: submit только с pre -> отказ, Idle, запроса нет
func TestController_ScenarioC_SubmitWithoutBothSlots(t *testing.T) {
	a := returns(img("R1"), nil)
	c, _ := newController(a, Options{})

	require.NoError(t, c.Upload(model.SlotPre, img("imgA")))

	done, err := c.Submit(context.Background())
	require.ErrorIs(t, err, model.ErrMissingInput)
	require.Nil(t, done)
	require.Equal(t, model.StateIdle, c.State().Kind)
	require.Equal(t, 0, a.Calls())
}

// SCENARIO D: ошибка -> Failed, слоты целы, повторная отправка проходит
func TestController_ScenarioD_FailureThenResubmit(t *testing.T) {
	fail := true
	a := &mockAnalyzer{
		analyzeFn: func(ctx context.Context, pre, post model.Payload) (model.Payload, error) {
			if fail {
				return model.Payload{}, model.ErrRequestFailed
			}
			return img("R2"), nil
		},
	}
	n := &mockNotifier{}
	c, lc := newController(a, Options{Notifier: n})
	fill(t, c, "imgA", "imgB")
	before := c.Snapshot()

	done, err := c.Submit(context.Background())
	require.NoError(t, err)
	wait(t, done)

	snap := c.Snapshot()
	require.Equal(t, model.Failed(model.MsgAnalyzeFailed), snap.State)
	require.Equal(t, before.Pre, snap.Pre)
	require.Equal(t, before.Post, snap.Post)
	require.Equal(t, model.NoHandle, snap.Result)
	require.True(t, snap.CanSubmit)
	require.Equal(t, 2, lc.Live())

	fail = false
	done, err = c.Submit(context.Background())
	require.NoError(t, err)
	wait(t, done)
	require.Equal(t, model.StateCompleted, c.State().Kind)

	sent := n.Sent()
	require.Len(t, sent, 2)
	require.Equal(t, model.StateFailed, sent[0].Kind)
	require.Equal(t, model.MsgAnalyzeFailed, sent[0].Message)
	require.Equal(t, model.StateCompleted, sent[1].Kind)
	require.Equal(t, "session-1", sent[1].SessionID)
}

// Ready тогда и только тогда, когда оба слота заполнены
func TestController_ReadyIffBothFilled(t *testing.T) {
	type op struct {
		upload bool
		slot   model.SlotName
	}
	up := func(s model.SlotName) op { return op{upload: true, slot: s} }
	clr := func(s model.SlotName) op { return op{upload: false, slot: s} }

	seq := []op{
		up(model.SlotPre), clr(model.SlotPost), up(model.SlotPost), up(model.SlotPost),
		clr(model.SlotPre), clr(model.SlotPre), up(model.SlotPre), clr(model.SlotPost),
		up(model.SlotPost), up(model.SlotPre), clr(model.SlotPost), clr(model.SlotPre),
	}

	c, lc := newController(returns(img("R"), nil), Options{})
	filled := map[model.SlotName]bool{}

	for i, o := range seq {
		if o.upload {
			require.NoError(t, c.Upload(o.slot, img("x")))
		} else {
			require.NoError(t, c.ClearSlot(o.slot))
		}
		filled[o.slot] = o.upload

		both := filled[model.SlotPre] && filled[model.SlotPost]
		require.Equal(t, both, c.State().Kind == model.StateReady, "step %d", i)
		require.Equal(t, both, c.CanSubmit(), "step %d", i)
	}
	require.Equal(t, 0, lc.Live())
	require.Empty(t, lc.BadFrees())
}

// повторный submit во время InFlight ничего не запускает
func TestController_SubmitWhileInFlightIsNoop(t *testing.T) {
	release := make(chan struct{})
	a := blocking(release, img("R1"))
	c, _ := newController(a, Options{})
	fill(t, c, "imgA", "imgB")

	done1, err := c.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, model.StateInFlight, c.State().Kind)
	require.False(t, c.CanSubmit())

	done2, err := c.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, done1, done2)

	close(release)
	wait(t, done1)
	require.Equal(t, 1, a.Calls())
	require.Equal(t, model.StateCompleted, c.State().Kind)
}

func TestController_SlotChangesRejectedWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	c, _ := newController(blocking(release, img("R1")), Options{})
	fill(t, c, "imgA", "imgB")
	before := c.Snapshot()

	done, err := c.Submit(context.Background())
	require.NoError(t, err)

	require.ErrorIs(t, c.Upload(model.SlotPre, img("imgC")), model.ErrBusy)
	require.ErrorIs(t, c.ClearSlot(model.SlotPost), model.ErrBusy)

	close(release)
	wait(t, done)

	after := c.Snapshot()
	require.Equal(t, before.Pre, after.Pre)
	require.Equal(t, before.Post, after.Post)
}

// clear-all из любого состояния: все пусто, все хендлы освобождены ровно один раз, Idle
func TestController_ClearAllFromEveryState(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, c *Controller, release chan struct{})
		want  model.StateKind
	}{
		{
			name:  "idle",
			setup: func(t *testing.T, c *Controller, _ chan struct{}) {},
			want:  model.StateIdle,
		},
		{
			name: "idle with one slot",
			setup: func(t *testing.T, c *Controller, _ chan struct{}) {
				require.NoError(t, c.Upload(model.SlotPost, img("imgB")))
			},
			want: model.StateIdle,
		},
		{
			name: "ready",
			setup: func(t *testing.T, c *Controller, _ chan struct{}) {
				fill(t, c, "imgA", "imgB")
			},
			want: model.StateReady,
		},
		{
			name: "completed",
			setup: func(t *testing.T, c *Controller, release chan struct{}) {
				fill(t, c, "imgA", "imgB")
				done, err := c.Submit(context.Background())
				require.NoError(t, err)
				close(release)
				wait(t, done)
			},
			want: model.StateCompleted,
		},
		{
			name: "in flight",
			setup: func(t *testing.T, c *Controller, _ chan struct{}) {
				fill(t, c, "imgA", "imgB")
				_, err := c.Submit(context.Background())
				require.NoError(t, err)
			},
			want: model.StateInFlight,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			release := make(chan struct{})
			c, lc := newController(blocking(release, img("R1")), Options{})
			tt.setup(t, c, release)
			require.Equal(t, tt.want, c.State().Kind)

			require.NoError(t, c.ClearAll())

			snap := c.Snapshot()
			require.Equal(t, model.Idle(), snap.State)
			require.Equal(t, model.NoHandle, snap.Pre)
			require.Equal(t, model.NoHandle, snap.Post)
			require.Equal(t, model.NoHandle, snap.Result)
			require.Equal(t, 0, lc.Live())
			require.Empty(t, lc.BadFrees())
		})
	}
}

func TestController_ClearAllFromFailed(t *testing.T) {
	c, lc := newController(returns(model.Payload{}, errors.New("boom")), Options{})
	fill(t, c, "imgA", "imgB")

	done, err := c.Submit(context.Background())
	require.NoError(t, err)
	wait(t, done)
	require.Equal(t, model.StateFailed, c.State().Kind)

	require.NoError(t, c.ClearAll())
	require.Equal(t, model.Idle(), c.State())
	require.Equal(t, 0, lc.Live())
}

// исход запроса, отмененного через clear-all, отбрасывается и не создает хендл
func TestController_StaleOutcomeAfterClearAllIsDiscarded(t *testing.T) {
	started := make(chan struct{})
	proceed := make(chan struct{})
	a := &mockAnalyzer{
		analyzeFn: func(ctx context.Context, pre, post model.Payload) (model.Payload, error) {
			close(started)
			<-proceed
			// медленный ответ, игнорирующий отмену
			return img("late"), nil
		},
	}
	n := &mockNotifier{}
	c, lc := newController(a, Options{Notifier: n})
	fill(t, c, "imgA", "imgB")

	done, err := c.Submit(context.Background())
	require.NoError(t, err)
	<-started

	require.NoError(t, c.ClearAll())
	close(proceed)
	wait(t, done)

	require.Equal(t, model.StateIdle, c.State().Kind)
	require.Equal(t, 0, lc.Live())
	require.Equal(t, 2, lc.Acquired())
	require.Empty(t, n.Sent())
}

// новый submit из Completed освобождает прежний результат до нового
func TestController_ResubmitReplacesResult(t *testing.T) {
	results := []model.Payload{img("R1"), img("R2")}
	i := 0
	a := &mockAnalyzer{
		analyzeFn: func(ctx context.Context, pre, post model.Payload) (model.Payload, error) {
			r := results[i]
			i++
			return r, nil
		},
	}
	c, lc := newController(a, Options{})
	fill(t, c, "imgA", "imgB")

	done, err := c.Submit(context.Background())
	require.NoError(t, err)
	wait(t, done)
	first, _ := c.Result()

	done, err = c.Submit(context.Background())
	require.NoError(t, err)
	wait(t, done)
	second, _ := c.Result()

	require.NotEqual(t, first, second)
	_, ok := lc.Payload(first)
	require.False(t, ok)
	p, ok := lc.Payload(second)
	require.True(t, ok)
	require.Equal(t, []byte("R2"), p.Data)
	require.Equal(t, 3, lc.Live())
	require.Empty(t, lc.BadFrees())
}

func TestController_CancelReturnsToReady(t *testing.T) {
	var gotErr error
	a := &mockAnalyzer{
		analyzeFn: func(ctx context.Context, pre, post model.Payload) (model.Payload, error) {
			<-ctx.Done()
			gotErr = ctx.Err()
			return model.Payload{}, ctx.Err()
		},
	}
	n := &mockNotifier{}
	c, _ := newController(a, Options{Notifier: n})
	fill(t, c, "imgA", "imgB")

	// отмена вне InFlight - no-op
	c.Cancel()
	require.Equal(t, model.StateReady, c.State().Kind)

	done, err := c.Submit(context.Background())
	require.NoError(t, err)

	c.Cancel()
	require.Equal(t, model.StateReady, c.State().Kind)
	wait(t, done)

	require.ErrorIs(t, gotErr, context.Canceled)
	require.Equal(t, model.StateReady, c.State().Kind)
	require.Empty(t, n.Sent())
}

// дедлайн задается контроллером, клиент его не ставит
func TestController_TimeoutFails(t *testing.T) {
	a := &mockAnalyzer{
		analyzeFn: func(ctx context.Context, pre, post model.Payload) (model.Payload, error) {
			<-ctx.Done()
			return model.Payload{}, ctx.Err()
		},
	}
	c, _ := newController(a, Options{Timeout: 20 * time.Millisecond})
	fill(t, c, "imgA", "imgB")

	done, err := c.Submit(context.Background())
	require.NoError(t, err)
	wait(t, done)

	require.Equal(t, model.Failed(model.MsgAnalyzeFailed), c.State())
}

// отмена HTTP-запроса пользователя не прерывает анализ
func TestController_SubmitOutlivesCallerContext(t *testing.T) {
	release := make(chan struct{})
	c, _ := newController(blocking(release, img("R1")), Options{})
	fill(t, c, "imgA", "imgB")

	ctx, cancel := context.WithCancel(context.Background())
	done, err := c.Submit(ctx)
	require.NoError(t, err)
	cancel()

	close(release)
	wait(t, done)
	require.Equal(t, model.StateCompleted, c.State().Kind)
}

func TestController_EmptyResultIsFailure(t *testing.T) {
	c, lc := newController(returns(model.Payload{}, nil), Options{})
	fill(t, c, "imgA", "imgB")

	done, err := c.Submit(context.Background())
	require.NoError(t, err)
	wait(t, done)

	require.Equal(t, model.StateFailed, c.State().Kind)
	require.Equal(t, 2, lc.Live())
}

func TestController_Close(t *testing.T) {
	release := make(chan struct{})
	c, lc := newController(blocking(release, img("R1")), Options{})
	fill(t, c, "imgA", "imgB")

	done, err := c.Submit(context.Background())
	require.NoError(t, err)

	c.Close()
	c.Close()
	wait(t, done)

	require.Equal(t, 0, lc.Live())
	require.ErrorIs(t, c.Upload(model.SlotPre, img("x")), model.ErrSessionClosed)
	require.ErrorIs(t, c.ClearSlot(model.SlotPre), model.ErrSessionClosed)
	require.ErrorIs(t, c.ClearAll(), model.ErrSessionClosed)
	_, err = c.Submit(context.Background())
	require.ErrorIs(t, err, model.ErrSessionClosed)
	require.False(t, c.CanSubmit())
}

func TestController_InvalidInput(t *testing.T) {
	c, lc := newController(returns(img("R"), nil), Options{})

	require.ErrorIs(t, c.Upload("side", img("x")), model.ErrUnknownSlot)
	require.ErrorIs(t, c.ClearSlot("side"), model.ErrUnknownSlot)
	require.ErrorIs(t, c.Upload(model.SlotPre, model.Payload{}), model.ErrEmptyPayload)
	require.Equal(t, model.StateIdle, c.State().Kind)
	require.Equal(t, 0, lc.Live())
}
