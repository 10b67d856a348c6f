// Package storage exports analysis results to object storage
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/UnendingLoop/DamageOverlay/internal/model"
	"github.com/UnendingLoop/DamageOverlay/internal/storage/miniostorage"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/zlog"
)

// ObjectPutter - контракт объектного хранилища
type ObjectPutter interface {
	Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error
}

// NewResultStorage connects to MinIO, retrying every delay until ctx is done.
func NewResultStorage(ctx context.Context, cfg *config.Config, delay time.Duration) (*miniostorage.MinioResultStorage, error) {
	for {
		zlog.Logger.Info().Msg("Connecting to result storage...")
		client, err := miniostorage.NewMinioClient(ctx, cfg)
		if err == nil {
			zlog.Logger.Info().Str("bucket", client.Bucket()).Msg("Successfully connected result storage")
			return client, nil
		}
		zlog.Logger.Warn().Err(err).Dur("retry_in", delay).Msg("Failed to init connection to result storage")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

// Exporter копирует текущий результат анализа в хранилище под ключом prefix+uuid+ext
type Exporter struct {
	store  ObjectPutter
	prefix string
}

func NewExporter(store ObjectPutter, prefix string) *Exporter {
	return &Exporter{store: store, prefix: prefix}
}

// Export returns the object key the result was stored under.
// A nil Exporter reports ErrExportDisabled.
func (e *Exporter) Export(ctx context.Context, sessionID string, p model.Payload) (string, error) {
	if e == nil || e.store == nil {
		return "", model.ErrExportDisabled
	}
	if p.IsEmpty() {
		return "", model.ErrNoResult
	}

	ext, ok := model.GetImageFileExt[p.ContentType]
	if !ok {
		ext = ".png"
	}
	key := e.prefix + sessionID + "/" + uuid.NewString() + ext

	if err := e.store.Put(ctx, key, int64(len(p.Data)), p.ContentType, bytes.NewReader(p.Data)); err != nil {
		return "", fmt.Errorf("failed to export result of session %q: %w", sessionID, err)
	}

	return key, nil
}
