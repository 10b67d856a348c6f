package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
)

// Классы повреждений в порядке палитры сервиса сегментации
const (
	ClassBackground = iota
	ClassNoDamage
	ClassMinor
	ClassMajor
	ClassDestroyed
)

var Palette = [...]color.NRGBA{
	ClassBackground: {0, 0, 0, 255},
	ClassNoDamage:   {0, 255, 0, 255},
	ClassMinor:      {255, 255, 0, 255},
	ClassMajor:      {255, 128, 0, 255},
	ClassDestroyed:  {255, 0, 0, 255},
}

// прозрачность маски при наложении на post-снимок
const OverlayOpacity = 100.0 / 255.0

// ClassifyChange maps an absolute luminance difference to a damage class.
func ClassifyChange(diff uint8) int {
	switch {
	case diff < 16:
		return ClassNoDamage
	case diff < 48:
		return ClassMinor
	case diff < 96:
		return ClassMajor
	default:
		return ClassDestroyed
	}
}

// DamageOverlay compares pre and post by luminance and blends the classified change mask
// onto post. The result is PNG-encoded and has post's dimensions.
func DamageOverlay(pre, post io.Reader) (io.Reader, int64, error) {
	if pre == nil {
		return nil, 0, errors.New("nil-reader pre image provided")
	}
	if post == nil {
		return nil, 0, errors.New("nil-reader post image provided")
	}

	preImg, err := imaging.Decode(pre)
	if err != nil {
		return nil, 0, fmt.Errorf("decode pre image: %w", err)
	}

	postImg, err := imaging.Decode(post)
	if err != nil {
		return nil, 0, fmt.Errorf("decode post image: %w", err)
	}

	base := imaging.Clone(postImg)
	w := base.Bounds().Dx()
	h := base.Bounds().Dy()

	// приводим pre к размеру post, сравниваем в оттенках серого
	preGray := imaging.Grayscale(imaging.Resize(preImg, w, h, imaging.Lanczos))
	postGray := imaging.Grayscale(base)

	mask := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := preGray.Pix[y*preGray.Stride+x*4]
			b := postGray.Pix[y*postGray.Stride+x*4]
			mask.SetNRGBA(x, y, Palette[ClassifyChange(absDiff(a, b))])
		}
	}

	result := imaging.Overlay(base, mask, image.Pt(0, 0), OverlayOpacity)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, result, imaging.PNG); err != nil {
		return nil, 0, fmt.Errorf("encode result image: %w", err)
	}

	return &buf, int64(buf.Len()), nil
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
