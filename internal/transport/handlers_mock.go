package transport

import (
	"context"

	"github.com/UnendingLoop/DamageOverlay/internal/model"
	"github.com/gin-gonic/gin"
)

type mockAnalysisService struct {
	createFn    func(ctx context.Context) model.Snapshot
	getFn       func(ctx context.Context, id string) (model.Snapshot, error)
	closeFn     func(ctx context.Context, id string) error
	uploadFn    func(ctx context.Context, id, slot string, p model.Payload) (model.Snapshot, error)
	clearSlotFn func(ctx context.Context, id, slot string) (model.Snapshot, error)
	clearAllFn  func(ctx context.Context, id string) (model.Snapshot, error)
	analyzeFn   func(ctx context.Context, id string) (model.Snapshot, error)
	cancelFn    func(ctx context.Context, id string) (model.Snapshot, error)
	exportFn    func(ctx context.Context, id string) (model.Export, error)
	openBlobFn  func(ctx context.Context, raw string) (model.Payload, error)
	healthFn    func(ctx context.Context) model.Health
}

func (m *mockAnalysisService) CreateSession(ctx context.Context) model.Snapshot {
	return m.createFn(ctx)
}

func (m *mockAnalysisService) GetSession(ctx context.Context, id string) (model.Snapshot, error) {
	return m.getFn(ctx, id)
}

func (m *mockAnalysisService) CloseSession(ctx context.Context, id string) error {
	return m.closeFn(ctx, id)
}

func (m *mockAnalysisService) Upload(ctx context.Context, id, slot string, p model.Payload) (model.Snapshot, error) {
	return m.uploadFn(ctx, id, slot, p)
}

func (m *mockAnalysisService) ClearSlot(ctx context.Context, id, slot string) (model.Snapshot, error) {
	return m.clearSlotFn(ctx, id, slot)
}

func (m *mockAnalysisService) ClearAll(ctx context.Context, id string) (model.Snapshot, error) {
	return m.clearAllFn(ctx, id)
}

func (m *mockAnalysisService) Analyze(ctx context.Context, id string) (model.Snapshot, error) {
	return m.analyzeFn(ctx, id)
}

func (m *mockAnalysisService) Cancel(ctx context.Context, id string) (model.Snapshot, error) {
	return m.cancelFn(ctx, id)
}

func (m *mockAnalysisService) ExportResult(ctx context.Context, id string) (model.Export, error) {
	return m.exportFn(ctx, id)
}

func (m *mockAnalysisService) OpenBlob(ctx context.Context, raw string) (model.Payload, error) {
	return m.openBlobFn(ctx, raw)
}

func (m *mockAnalysisService) Health(ctx context.Context) model.Health {
	return m.healthFn(ctx)
}

func init() {
	gin.SetMode(gin.TestMode)
}
