// Package worker consumes analysis outcome events from the queue and forwards them to a sink
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/UnendingLoop/DamageOverlay/internal/model"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/zlog"
)

var errMalformedEvent = errors.New("malformed outcome event")

// Committer - то, что нужно воркеру от wbf/kafka.Consumer
type Committer interface {
	Commit(ctx context.Context, msg kafkago.Message) error
}

// Sink - получатель разобранных событий
type Sink interface {
	Notify(ctx context.Context, n model.Notification)
}

type Worker struct {
	queue    <-chan kafkago.Message
	consumer Committer
	sink     Sink

	mu    sync.Mutex
	tally map[model.StateKind]int
}

func NewWorkerInstance(q <-chan kafkago.Message, cons Committer, sink Sink) *Worker {
	return &Worker{
		queue:    q,
		consumer: cons,
		sink:     sink,
		tally:    make(map[model.StateKind]int),
	}
}

func (w *Worker) StartWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-w.queue:
			if !ok {
				zlog.Logger.Info().Msg("Queue channel closed, stopping worker...")
				return
			}
			// битое событие не переигрывается - коммитим и идем дальше
			if err := w.handle(ctx, msg); err != nil {
				zlog.Logger.Warn().Err(err).Int64("offset", msg.Offset).Str("key", string(msg.Key)).Msg("Skipping outcome event")
			}
			if err := w.consumer.Commit(ctx, msg); err != nil {
				zlog.Logger.Error().Err(err).Msg("Failed to commit queue-message")
			}
		}
	}
}

// Tally returns how many outcomes of each kind were seen.
func (w *Worker) Tally() map[model.StateKind]int {
	w.mu.Lock()
	defer w.mu.Unlock()

	res := make(map[model.StateKind]int, len(w.tally))
	for k, v := range w.tally {
		res[k] = v
	}
	return res
}

func (w *Worker) handle(ctx context.Context, msg kafkago.Message) error {
	var n model.Notification
	if err := json.Unmarshal(msg.Value, &n); err != nil {
		return errors.Join(errMalformedEvent, err)
	}
	if n.Kind != model.StateCompleted && n.Kind != model.StateFailed {
		return errMalformedEvent
	}
	if n.SessionID == "" {
		n.SessionID = string(msg.Key)
	}

	w.mu.Lock()
	w.tally[n.Kind]++
	w.mu.Unlock()

	w.sink.Notify(ctx, n)
	return nil
}
