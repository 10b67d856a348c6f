package transport

import (
	"errors"
	"io"

	"github.com/UnendingLoop/DamageOverlay/internal/model"
	"github.com/wb-go/wbf/zlog"
)

func errorCodeDefiner(err error) int {
	switch {
	case errors.Is(err, model.ErrCommon500):
		return 500
	case errors.Is(err, model.ErrSessionNotFound),
		errors.Is(err, model.ErrSessionClosed),
		errors.Is(err, model.ErrHandleNotFound),
		errors.Is(err, model.ErrNoResult):
		return 404
	case errors.Is(err, model.ErrMissingInput),
		errors.Is(err, model.ErrBusy):
		return 409
	case errors.Is(err, model.ErrEmptyPayload),
		errors.Is(err, model.ErrUnsupportedFormat),
		errors.Is(err, model.ErrUnknownSlot):
		return 400
	case errors.Is(err, model.ErrExportDisabled):
		return 503
	default:
		return 500
	}
}

func closeFileFlow(res io.ReadCloser) {
	if res == nil {
		return
	}
	if err := res.Close(); err != nil {
		zlog.Logger.Warn().Err(err).Msg("Handler failed to close fileflow")
	}
}
