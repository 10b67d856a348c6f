package transport

import (
	"io"
	"mime/multipart"

	"github.com/UnendingLoop/DamageOverlay/internal/model"
	"github.com/UnendingLoop/DamageOverlay/internal/mwlogger"
	"github.com/wb-go/wbf/ginext"
)

// OverlayFunc - построение маски изменений по паре снимков
type OverlayFunc func(pre, post io.Reader) (io.Reader, int64, error)

// PredictHandler imitates the inference service for local runs: same route, same form parts,
// one PNG in the response body.
type PredictHandler struct {
	overlay OverlayFunc
}

func NewPredictHandler(fn OverlayFunc) *PredictHandler {
	return &PredictHandler{overlay: fn}
}

func (h PredictHandler) Predict(ctx *ginext.Context) {
	logger := mwlogger.LoggerFromContext(ctx.Request.Context())

	pre, err := formPart(ctx, model.FormFieldBySlot[model.SlotPre])
	if err != nil {
		ctx.JSON(422, map[string]string{"error": "pre_image is required"})
		return
	}
	defer closeFileFlow(pre)

	post, err := formPart(ctx, model.FormFieldBySlot[model.SlotPost])
	if err != nil {
		ctx.JSON(422, map[string]string{"error": "post_image is required"})
		return
	}
	defer closeFileFlow(post)

	res, size, err := h.overlay(pre, post)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to build damage overlay")
		ctx.JSON(500, map[string]string{"error": "prediction failed"})
		return
	}

	ctx.DataFromReader(200, size, model.PNG, res, nil)
}

func formPart(ctx *ginext.Context, field string) (multipart.File, error) {
	f, _, err := ctx.Request.FormFile(field)
	return f, err
}
