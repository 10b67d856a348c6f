// Package inference provides the HTTP client for the remote damage-segmentation service
package inference

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/UnendingLoop/DamageOverlay/internal/model"
)

const DefaultEndpoint = "http://localhost:8000/predict/"

type HTTPClient struct {
	endpoint string
	client   *http.Client
}

// NewHTTPClient creates a client for endpoint. The client sets no timeout of its own:
// callers bound each call through the context.
func NewHTTPClient(endpoint string, client *http.Client) *HTTPClient {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPClient{endpoint: endpoint, client: client}
}

func (c *HTTPClient) Endpoint() string {
	return c.endpoint
}

// Analyze posts both images as one multipart request and returns the whole response body as one image.
func (c *HTTPClient) Analyze(ctx context.Context, pre, post model.Payload) (model.Payload, error) {
	body, cType, err := buildForm(pre, post)
	if err != nil {
		return model.Payload{}, fmt.Errorf("%w: build form: %w", model.ErrRequestFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return model.Payload{}, fmt.Errorf("%w: build request: %w", model.ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", cType)

	resp, err := c.client.Do(req)
	if err != nil {
		return model.Payload{}, fmt.Errorf("%w: %w", model.ErrRequestFailed, err)
	}
	defer closeBody(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// тело ошибки игнорируем
		return model.Payload{}, fmt.Errorf("%w: status %d", model.ErrRequestFailed, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Payload{}, fmt.Errorf("%w: read body: %w", model.ErrRequestFailed, err)
	}
	if len(data) == 0 {
		return model.Payload{}, fmt.Errorf("%w: empty body", model.ErrRequestFailed)
	}

	resCType := resp.Header.Get("Content-Type")
	if resCType == "" {
		resCType = model.PNG
	}

	return model.Payload{
		Data:        data,
		Filename:    "overlay" + extOrPNG(resCType),
		ContentType: resCType,
	}, nil
}

func buildForm(pre, post model.Payload) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	parts := []struct {
		slot model.SlotName
		p    model.Payload
	}{
		{model.SlotPre, pre},
		{model.SlotPost, post},
	}

	for _, part := range parts {
		field := model.FormFieldBySlot[part.slot]
		filename := part.p.Filename
		if filename == "" {
			filename = field + extOrPNG(part.p.ContentType)
		}

		fw, err := w.CreateFormFile(field, filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := fw.Write(part.p.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func extOrPNG(cType string) string {
	if ext, ok := model.GetImageFileExt[cType]; ok {
		return ext
	}
	return ".png"
}

func closeBody(b io.ReadCloser) {
	if b == nil {
		return
	}
	_ = b.Close()
}
