package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeCloser struct {
	err error
}

func (f fakeCloser) Close() error { return f.err }

func TestCloseLoudly(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := context.Background()

	closeLoudly(ctx, logger, "database", fakeCloser{})
	assert.Empty(t, buf.String())

	closeLoudly(ctx, logger, "redis", fakeCloser{err: errors.New("connection reset")})
	assert.Contains(t, buf.String(), "close redis failed")
	assert.Contains(t, buf.String(), "connection reset")
}
