package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/UnendingLoop/DamageOverlay/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	got []model.Notification
}

func (r *recorder) Notify(ctx context.Context, n model.Notification) {
	r.got = append(r.got, n)
}

func TestLogNotifier(t *testing.T) {
	tests := []struct {
		name      string
		n         model.Notification
		wantLevel string
	}{
		{
			name:      "completed",
			n:         model.Notification{SessionID: "s1", Kind: model.StateCompleted, Message: "Analysis completed", At: time.Now()},
			wantLevel: "info",
		},
		{
			name:      "failed",
			n:         model.Notification{SessionID: "s1", Kind: model.StateFailed, Message: model.MsgAnalyzeFailed, At: time.Now()},
			wantLevel: "warn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewLogNotifier(zerolog.New(&buf)).Notify(context.Background(), tt.n)

			var line map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
			require.Equal(t, tt.wantLevel, line["level"])
			require.Equal(t, "s1", line["session_id"])
			require.Equal(t, string(tt.n.Kind), line["outcome"])
			require.Equal(t, tt.n.Message, line["message"])
		})
	}
}

func TestMulti_FanOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := NewMulti(a, nil, b)
	require.Len(t, m, 2)

	n := model.Notification{SessionID: "s1", Kind: model.StateCompleted}
	m.Notify(context.Background(), n)

	require.Equal(t, []model.Notification{n}, a.got)
	require.Equal(t, []model.Notification{n}, b.got)
}
