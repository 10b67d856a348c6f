// Package imageproc provides image helpers: upload format detection and a change overlay
// used by the local inference stub.
package imageproc

import (
	"bytes"
	"image"

	"github.com/UnendingLoop/DamageOverlay/internal/model"
	"github.com/disintegration/imaging"
)

// DetectContentType reads only the image header and returns its MIME type.
func DetectContentType(data []byte) (string, error) {
	if len(data) == 0 {
		return "", model.ErrEmptyPayload
	}

	_, f, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", model.ErrUnsupportedFormat
	}

	format, err := imaging.FormatFromExtension(f)
	if err != nil {
		return "", model.ErrUnsupportedFormat
	}

	cType, ok := model.GetCType[format]
	if !ok {
		return "", model.ErrUnsupportedFormat
	}
	return cType, nil
}
