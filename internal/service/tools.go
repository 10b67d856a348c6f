package service

import (
	"strings"

	"github.com/UnendingLoop/DamageOverlay/internal/imageproc"
	"github.com/UnendingLoop/DamageOverlay/internal/model"
)

func validateSlot(raw string) (model.SlotName, error) {
	name := model.SlotName(strings.ToLower(strings.TrimSpace(raw)))
	if !model.SlotsMap[name] {
		return "", model.ErrUnknownSlot
	}
	return name, nil
}

// normalizePayload проверяет заголовок файла и подменяет присланный клиентом Content-Type реальным
func normalizePayload(p *model.Payload) error {
	if p.IsEmpty() {
		return model.ErrEmptyPayload
	}

	ct, err := imageproc.DetectContentType(p.Data)
	if err != nil {
		return err
	}
	p.ContentType = ct

	if p.Filename == "" {
		p.Filename = "image" + model.GetImageFileExt[ct]
	}
	return nil
}
