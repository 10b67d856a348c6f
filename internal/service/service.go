// Package service provides business-logic for the app: sessions, uploads, analysis and rendering
package service

import (
	"context"

	"github.com/UnendingLoop/DamageOverlay/internal/blob"
	"github.com/UnendingLoop/DamageOverlay/internal/model"
	"github.com/UnendingLoop/DamageOverlay/internal/mwlogger"
	"github.com/UnendingLoop/DamageOverlay/internal/workflow"
)

// SessionStore - контракт реестра сессий
type SessionStore interface {
	Create(ctx context.Context) *workflow.Controller
	Get(id string) (*workflow.Controller, error)
	Delete(id string) error
	Count() int
}

// BlobStore - контракт хранилища дисплейных хендлов
type BlobStore interface {
	Open(h model.Handle) (model.Payload, error)
	Outstanding() int
}

// ResultExporter - контракт выгрузки результата во внешнее хранилище
type ResultExporter interface {
	Export(ctx context.Context, sessionID string, p model.Payload) (string, error)
}

type AnalysisService struct {
	sessions SessionStore
	blobs    BlobStore
	exporter ResultExporter
}

func NewAnalysisService(sessions SessionStore, blobs BlobStore, exp ResultExporter) *AnalysisService {
	return &AnalysisService{
		sessions: sessions,
		blobs:    blobs,
		exporter: exp,
	}
}

func (s AnalysisService) CreateSession(ctx context.Context) model.Snapshot {
	return s.sessions.Create(ctx).Snapshot()
}

func (s AnalysisService) GetSession(ctx context.Context, id string) (model.Snapshot, error) {
	c, err := s.sessions.Get(id)
	if err != nil {
		return model.Snapshot{}, err
	}
	return c.Snapshot(), nil
}

func (s AnalysisService) CloseSession(ctx context.Context, id string) error {
	return s.sessions.Delete(id)
}

func (s AnalysisService) Upload(ctx context.Context, id, slotName string, p model.Payload) (model.Snapshot, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	name, err := validateSlot(slotName)
	if err != nil {
		return model.Snapshot{}, err
	}
	if err := normalizePayload(&p); err != nil {
		logger.Debug().Err(err).Str("slot", slotName).Msg("Upload rejected")
		return model.Snapshot{}, err
	}

	c, err := s.sessions.Get(id)
	if err != nil {
		return model.Snapshot{}, err
	}
	if err := c.Upload(name, p); err != nil {
		return model.Snapshot{}, err
	}

	logger.Info().Str("session_id", id).Str("slot", slotName).Int("size", len(p.Data)).Msg("Image uploaded")
	return c.Snapshot(), nil
}

func (s AnalysisService) ClearSlot(ctx context.Context, id, slotName string) (model.Snapshot, error) {
	name, err := validateSlot(slotName)
	if err != nil {
		return model.Snapshot{}, err
	}

	c, err := s.sessions.Get(id)
	if err != nil {
		return model.Snapshot{}, err
	}
	if err := c.ClearSlot(name); err != nil {
		return model.Snapshot{}, err
	}
	return c.Snapshot(), nil
}

func (s AnalysisService) ClearAll(ctx context.Context, id string) (model.Snapshot, error) {
	c, err := s.sessions.Get(id)
	if err != nil {
		return model.Snapshot{}, err
	}
	if err := c.ClearAll(); err != nil {
		return model.Snapshot{}, err
	}
	return c.Snapshot(), nil
}

// Analyze starts the analysis and returns without waiting for its outcome.
func (s AnalysisService) Analyze(ctx context.Context, id string) (model.Snapshot, error) {
	c, err := s.sessions.Get(id)
	if err != nil {
		return model.Snapshot{}, err
	}
	if _, err := c.Submit(ctx); err != nil {
		return model.Snapshot{}, err
	}
	return c.Snapshot(), nil
}

func (s AnalysisService) Cancel(ctx context.Context, id string) (model.Snapshot, error) {
	c, err := s.sessions.Get(id)
	if err != nil {
		return model.Snapshot{}, err
	}
	c.Cancel()
	return c.Snapshot(), nil
}

func (s AnalysisService) ExportResult(ctx context.Context, id string) (model.Export, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	if s.exporter == nil {
		return model.Export{}, model.ErrExportDisabled
	}

	c, err := s.sessions.Get(id)
	if err != nil {
		return model.Export{}, err
	}
	h, err := c.Result()
	if err != nil {
		return model.Export{}, err
	}
	// результат мог быть освобожден между Result и Open - тогда его уже нет
	p, err := s.blobs.Open(h)
	if err != nil {
		return model.Export{}, model.ErrNoResult
	}

	key, err := s.exporter.Export(ctx, id, p)
	if err != nil {
		logger.Error().Err(err).Str("session_id", id).Msg("Failed to export result")
		return model.Export{}, err
	}

	logger.Info().Str("session_id", id).Str("key", key).Msg("Result exported")
	return model.Export{Key: key}, nil
}

// OpenBlob dereferences a display handle taken from a URL.
func (s AnalysisService) OpenBlob(ctx context.Context, raw string) (model.Payload, error) {
	h, err := blob.ParseHandle(raw)
	if err != nil {
		return model.Payload{}, err
	}
	return s.blobs.Open(h)
}

func (s AnalysisService) Health(ctx context.Context) model.Health {
	return model.Health{
		Sessions: s.sessions.Count(),
		Handles:  s.blobs.Outstanding(),
	}
}
