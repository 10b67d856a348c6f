package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/UnendingLoop/DamageOverlay/internal/model"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// Producer - то, что нужно паблишеру от wbf/kafka.Producer
type Producer interface {
	SendWithRetry(ctx context.Context, strategy retry.Strategy, key, value []byte) error
}

var DefaultStrategy = retry.Strategy{
	Attempts: 3,
	Delay:    500 * time.Millisecond,
	Backoff:  2,
}

// Publisher отправляет исходы анализа в топик; ключ сообщения - id сессии
type Publisher struct {
	producer Producer
	strategy retry.Strategy
	timeout  time.Duration
}

func NewPublisher(p Producer, strategy retry.Strategy) *Publisher {
	return &Publisher{producer: p, strategy: strategy, timeout: 10 * time.Second}
}

// Notify never blocks the workflow longer than the publisher timeout; delivery errors are only logged.
func (p *Publisher) Notify(ctx context.Context, n model.Notification) {
	value, err := json.Marshal(n)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("session_id", n.SessionID).Msg("Failed to encode outcome event")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.producer.SendWithRetry(ctx, p.strategy, []byte(n.SessionID), value); err != nil {
		zlog.Logger.Error().Err(err).Str("session_id", n.SessionID).Msg("Failed to publish outcome event")
	}
}
