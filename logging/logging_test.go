package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLoggerDiscards(t *testing.T) {
	assert.False(t, L().Enabled(context.Background(), slog.LevelError))
}

func TestSetAndReset(t *testing.T) {
	var buf bytes.Buffer
	Set(slog.New(slog.NewTextHandler(&buf, nil)))
	defer Set(nil)

	For("space").Error("add rejected", "tag", 7)
	assert.Contains(t, buf.String(), "component=space")
	assert.Contains(t, buf.String(), "tag=7")

	Set(nil)
	assert.False(t, L().Enabled(context.Background(), slog.LevelError))
}
