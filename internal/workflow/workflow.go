// Package workflow provides the controller of one analysis session: two image slots,
// the single in-flight analysis request and the displayed result.
package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/UnendingLoop/DamageOverlay/internal/model"
	"github.com/UnendingLoop/DamageOverlay/internal/slot"
	"github.com/wb-go/wbf/zlog"
)

// Analyzer - контракт для сервиса инференса
type Analyzer interface {
	Analyze(ctx context.Context, pre, post model.Payload) (model.Payload, error)
}

// Notifier - контракт для уведомления пользователя об исходе анализа
type Notifier interface {
	Notify(ctx context.Context, n model.Notification)
}

type Options struct {
	// Timeout bounds every analysis request; zero means no deadline.
	Timeout  time.Duration
	Notifier Notifier
	Logger   *zlog.Zerolog
}

type Controller struct {
	mu       sync.Mutex
	id       string
	handles  slot.Lifecycle
	analyzer Analyzer
	notifier Notifier
	timeout  time.Duration
	logger   zlog.Zerolog

	pre    *slot.Slot
	post   *slot.Slot
	state  model.State
	result model.Handle

	// gen растет при каждом старте/отмене запроса; исход с устаревшим gen отбрасывается
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

func New(id string, handles slot.Lifecycle, analyzer Analyzer, opts Options) *Controller {
	logger := zlog.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	c := &Controller{
		id:       id,
		handles:  handles,
		analyzer: analyzer,
		notifier: opts.Notifier,
		timeout:  opts.Timeout,
		logger:   logger.With().Str("session_id", id).Logger(),
		state:    model.Idle(),
	}
	c.pre = slot.New(model.SlotPre, handles, c.onSlotUpload)
	c.post = slot.New(model.SlotPost, handles, c.onSlotUpload)

	return c
}

func (c *Controller) ID() string {
	return c.id
}

// Upload puts p into the named slot. Uploads are rejected while a request is in flight.
func (c *Controller) Upload(name model.SlotName, p model.Payload) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.slotFor(name)
	if err != nil {
		return err
	}
	if c.state.Kind == model.StateInFlight {
		return model.ErrBusy
	}

	if err := s.Upload(p); err != nil {
		return err
	}
	c.setState(c.byFilled())

	return nil
}

// ClearSlot empties one slot and drops the result if the slot held an image.
func (c *Controller) ClearSlot(name model.SlotName) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.slotFor(name)
	if err != nil {
		return err
	}
	if c.state.Kind == model.StateInFlight {
		return model.ErrBusy
	}
	if !s.IsFilled() {
		return nil
	}

	s.Clear()
	c.dropResult()
	c.setState(c.byFilled())

	return nil
}

// ClearAll releases both slots and the result and resets to Idle from any state.
// A request in flight is canceled and its outcome discarded.
func (c *Controller) ClearAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return model.ErrSessionClosed
	}
	c.teardown()

	return nil
}

// Submit starts the analysis. The returned channel is closed when the outcome has been applied.
// Submitting while a request is in flight starts nothing and returns the running request's channel.
func (c *Controller) Submit(ctx context.Context) (<-chan struct{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, model.ErrSessionClosed
	}
	if c.state.Kind == model.StateInFlight {
		return c.done, nil
	}
	if !c.pre.IsFilled() || !c.post.IsFilled() {
		return nil, model.ErrMissingInput
	}

	// результат существует только в Completed
	c.dropResult()

	c.gen++
	gen := c.gen

	// запрос живет дольше HTTP-запроса пользователя, поэтому отвязываемся от его отмены
	base := context.WithoutCancel(ctx)
	var (
		reqCtx context.Context
		cancel context.CancelFunc
	)
	if c.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(base, c.timeout)
	} else {
		reqCtx, cancel = context.WithCancel(base)
	}

	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	c.setState(model.InFlight())

	go c.run(reqCtx, gen, c.pre.Payload(), c.post.Payload(), done)

	return done, nil
}

// Cancel aborts the request in flight, if any, and returns to Ready. It is a no-op otherwise.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Kind != model.StateInFlight {
		return
	}
	c.abort()
	c.setState(c.byFilled())
}

// Close tears the session down: cancels the request, releases every handle.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.teardown()
	c.closed = true
}

func (c *Controller) State() model.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canSubmit()
}

func (c *Controller) Snapshot() model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return model.Snapshot{
		SessionID: c.id,
		State:     c.state,
		Pre:       c.pre.Handle(),
		Post:      c.post.Handle(),
		Result:    c.result,
		CanSubmit: c.canSubmit(),
	}
}

// Result returns the handle of the displayed result.
func (c *Controller) Result() (model.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.result == model.NoHandle {
		return model.NoHandle, model.ErrNoResult
	}
	return c.result, nil
}

//---------------------

func (c *Controller) run(ctx context.Context, gen uint64, pre, post model.Payload, done chan struct{}) {
	defer close(done)

	res, err := c.analyzer.Analyze(ctx, pre, post)

	n, ok := c.apply(gen, res, err)
	if ok && c.notifier != nil {
		c.notifier.Notify(context.Background(), n)
	}
}

func (c *Controller) apply(gen uint64, res model.Payload, err error) (model.Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.closed {
		c.logger.Debug().Uint64("generation", gen).Msg("Discarding stale analysis outcome")
		return model.Notification{}, false
	}

	c.cancel()
	c.cancel = nil

	n := model.Notification{SessionID: c.id, At: time.Now().UTC()}

	if err == nil && res.IsEmpty() {
		err = model.ErrRequestFailed
	}
	if err != nil {
		c.logger.Error().Err(err).Msg("Analysis failed")
		c.setState(model.Failed(model.MsgAnalyzeFailed))
		n.Kind = model.StateFailed
		n.Message = model.MsgAnalyzeFailed
		return n, true
	}

	// прежний результат освобождается до выдачи нового хендла
	c.dropResult()
	c.result = c.handles.Acquire(res)
	c.setState(model.Completed())

	n.Kind = model.StateCompleted
	n.Message = "Analysis completed"
	return n, true
}

// onSlotUpload вызывается слотом под уже захваченным c.mu
func (c *Controller) onSlotUpload(name model.SlotName) {
	if c.result != model.NoHandle {
		c.logger.Debug().Str("slot", string(name)).Msg("New upload invalidates analysis result")
	}
	c.dropResult()
}

func (c *Controller) teardown() {
	if c.state.Kind == model.StateInFlight {
		c.abort()
	}
	c.pre.Clear()
	c.post.Clear()
	c.dropResult()
	c.setState(model.Idle())
}

func (c *Controller) abort() {
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) dropResult() {
	c.handles.Release(c.result)
	c.result = model.NoHandle
}

func (c *Controller) byFilled() model.State {
	if c.pre.IsFilled() && c.post.IsFilled() {
		return model.Ready()
	}
	return model.Idle()
}

func (c *Controller) canSubmit() bool {
	return !c.closed && c.state.Submittable() && c.pre.IsFilled() && c.post.IsFilled()
}

func (c *Controller) setState(next model.State) {
	if next == c.state {
		return
	}
	c.logger.Info().
		Str("from", string(c.state.Kind)).
		Str("to", string(next.Kind)).
		Msg("Workflow state changed")
	c.state = next
}

func (c *Controller) slotFor(name model.SlotName) (*slot.Slot, error) {
	if c.closed {
		return nil, model.ErrSessionClosed
	}
	switch name {
	case model.SlotPre:
		return c.pre, nil
	case model.SlotPost:
		return c.post, nil
	default:
		return nil, model.ErrUnknownSlot
	}
}
