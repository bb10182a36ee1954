package archive

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.FixedZone("CET", 3600))
	tests := []struct {
		name     string
		matrixID string
		filename string
		expected string
	}{
		{"plain", "mtx_1", "roadmap-2026-03-14.xlsx", "exports/mtx_1/20260314T082653Z-roadmap-2026-03-14.xlsx"},
		{"separators", "a/b", "..\\x.pdf", "exports/a-b/20260314T082653Z-..-x.pdf"},
		{"blank", " ", "", "exports/unnamed/20260314T082653Z-unnamed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ObjectKey(tt.matrixID, tt.filename, at))
		})
	}
}

func TestConfigEnabled(t *testing.T) {
	assert.False(t, Config{}.Enabled())
	assert.False(t, Config{Endpoint: "localhost:9000"}.Enabled())
	assert.False(t, Config{Bucket: "exports"}.Enabled())
	assert.True(t, Config{Endpoint: "localhost:9000", Bucket: "exports"}.Enabled())
}

func TestNewDisabled(t *testing.T) {
	store, err := New(context.Background(), Config{}, zerolog.Nop())
	assert.Nil(t, store)
	assert.ErrorIs(t, err, ErrDisabled)
}
