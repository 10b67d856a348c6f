package service

import (
	"context"

	"github.com/UnendingLoop/DamageOverlay/internal/model"
)

// MOCK ANALYZER

type mockAnalyzer struct {
	analyzeFn func(ctx context.Context, pre, post model.Payload) (model.Payload, error)
}

func (m *mockAnalyzer) Analyze(ctx context.Context, pre, post model.Payload) (model.Payload, error) {
	return m.analyzeFn(ctx, pre, post)
}

// MOCK EXPORTER

type mockExporter struct {
	exportFn func(ctx context.Context, sessionID string, p model.Payload) (string, error)
}

func (m *mockExporter) Export(ctx context.Context, sessionID string, p model.Payload) (string, error) {
	return m.exportFn(ctx, sessionID, p)
}
