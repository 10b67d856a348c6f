// Package transport provides methods for processing requests from endpoints
package transport

import (
	"context"
	"io"

	"github.com/UnendingLoop/DamageOverlay/internal/model"
	"github.com/UnendingLoop/DamageOverlay/internal/mwlogger"
	"github.com/wb-go/wbf/ginext"
)

// лимит на одно загружаемое изображение
const maxUploadSize = 32 << 20

type AnalysisHandler struct {
	service AnalysisService
}

type AnalysisService interface {
	CreateSession(ctx context.Context) model.Snapshot
	GetSession(ctx context.Context, id string) (model.Snapshot, error)
	CloseSession(ctx context.Context, id string) error // отмена запроса и освобождение всех хендлов
	Upload(ctx context.Context, id, slot string, p model.Payload) (model.Snapshot, error)
	ClearSlot(ctx context.Context, id, slot string) (model.Snapshot, error)
	ClearAll(ctx context.Context, id string) (model.Snapshot, error)
	Analyze(ctx context.Context, id string) (model.Snapshot, error) // не ждет исхода
	Cancel(ctx context.Context, id string) (model.Snapshot, error)
	ExportResult(ctx context.Context, id string) (model.Export, error)
	OpenBlob(ctx context.Context, raw string) (model.Payload, error)
	Health(ctx context.Context) model.Health
}

func NewAnalysisHandler(svc AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		service: svc,
	}
}

func (h AnalysisHandler) SimplePinger(ctx *ginext.Context) {
	ctx.JSON(200, map[string]string{"message": "pong"})
}

func (h AnalysisHandler) Health(ctx *ginext.Context) {
	ctx.JSON(200, h.service.Health(ctx.Request.Context()))
}

func (h AnalysisHandler) CreateSession(ctx *ginext.Context) {
	ctx.JSON(201, h.service.CreateSession(ctx.Request.Context()))
}

func (h AnalysisHandler) GetSession(ctx *ginext.Context) {
	res, err := h.service.GetSession(ctx.Request.Context(), ctx.Param("id"))
	respond(ctx, 200, res, err)
}

func (h AnalysisHandler) DeleteSession(ctx *ginext.Context) {
	if err := h.service.CloseSession(ctx.Request.Context(), ctx.Param("id")); err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.Status(204)
}

func (h AnalysisHandler) Upload(ctx *ginext.Context) {
	file, header, err := ctx.Request.FormFile("image")
	if err != nil {
		ctx.JSON(400, map[string]string{"error": "image is required"})
		return
	}
	defer closeFileFlow(file)

	if header.Size > maxUploadSize {
		ctx.JSON(413, map[string]string{"error": "image is too large"})
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		ctx.JSON(400, map[string]string{"error": "failed to read image"})
		return
	}

	p := model.Payload{
		Data:        data,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	}

	res, err := h.service.Upload(ctx.Request.Context(), ctx.Param("id"), ctx.Param("slot"), p)
	respond(ctx, 200, res, err)
}

func (h AnalysisHandler) ClearSlot(ctx *ginext.Context) {
	res, err := h.service.ClearSlot(ctx.Request.Context(), ctx.Param("id"), ctx.Param("slot"))
	respond(ctx, 200, res, err)
}

func (h AnalysisHandler) ClearAll(ctx *ginext.Context) {
	res, err := h.service.ClearAll(ctx.Request.Context(), ctx.Param("id"))
	respond(ctx, 200, res, err)
}

func (h AnalysisHandler) Analyze(ctx *ginext.Context) {
	res, err := h.service.Analyze(ctx.Request.Context(), ctx.Param("id"))
	respond(ctx, 202, res, err)
}

func (h AnalysisHandler) Cancel(ctx *ginext.Context) {
	res, err := h.service.Cancel(ctx.Request.Context(), ctx.Param("id"))
	respond(ctx, 200, res, err)
}

func (h AnalysisHandler) ExportResult(ctx *ginext.Context) {
	res, err := h.service.ExportResult(ctx.Request.Context(), ctx.Param("id"))
	respond(ctx, 201, res, err)
}

// Blob renders a display handle, the way a browser renders an object URL.
func (h AnalysisHandler) Blob(ctx *ginext.Context) {
	p, err := h.service.OpenBlob(ctx.Request.Context(), ctx.Param("handle"))
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.Header("Cache-Control", "no-store")
	ctx.Data(200, p.ContentType, p.Data)
}

func respond(ctx *ginext.Context, code int, body any, err error) {
	if err != nil {
		status := errorCodeDefiner(err)
		if status == 500 {
			logger := mwlogger.LoggerFromContext(ctx.Request.Context())
			logger.Error().Err(err).Msg("Request failed")
			err = model.ErrCommon500
		}
		ctx.JSON(status, map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(code, body)
}
