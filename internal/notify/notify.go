// Package notify delivers analysis outcomes to the user-facing side: log lines and event streams.
package notify

import (
	"context"

	"github.com/UnendingLoop/DamageOverlay/internal/model"
	"github.com/wb-go/wbf/zlog"
)

// Sender - контракт получателя уведомления, совпадает с workflow.Notifier
type Sender interface {
	Notify(ctx context.Context, n model.Notification)
}

// LogNotifier пишет исход анализа в лог; неудача уходит уровнем warn
type LogNotifier struct {
	logger zlog.Zerolog
}

func NewLogNotifier(logger zlog.Zerolog) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, n model.Notification) {
	ev := l.logger.Info()
	if n.Kind == model.StateFailed {
		ev = l.logger.Warn()
	}
	ev.Str("session_id", n.SessionID).
		Str("outcome", string(n.Kind)).
		Time("at", n.At).
		Msg(n.Message)
}

// Multi рассылает уведомление всем получателям по порядку; nil-получатели пропускаются
type Multi []Sender

func NewMulti(senders ...Sender) Multi {
	res := make(Multi, 0, len(senders))
	for _, s := range senders {
		if s != nil {
			res = append(res, s)
		}
	}
	return res
}

func (m Multi) Notify(ctx context.Context, n model.Notification) {
	for _, s := range m {
		s.Notify(ctx, n)
	}
}
