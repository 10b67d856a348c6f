package storage

import (
	"context"
	"io"
)

type mockPutter struct {
	putFn func(ctx context.Context, key string, size int64, contentType string, r io.Reader) error
}

func (m *mockPutter) Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error {
	return m.putFn(ctx, key, size, contentType, r)
}
