package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{name: "console debug", level: "debug", format: "console"},
		{name: "json info", level: "INFO", format: "json"},
		{name: "default format", level: "warn", format: ""},
		{name: "bad level", level: "loud", format: "json", wantErr: true},
		{name: "bad format", level: "info", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.level, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestContextRoundTrip(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := zap.New(core).Sugar()

	ctx := ToContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))

	Infof(ctx, "booking %s confirmed", "b-1")
	Errorf(ctx, "payment failed: %v", "declined")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "booking b-1 confirmed", entries[0].Message)
	assert.Equal(t, "payment failed: declined", entries[1].Message)
}

func TestFromContextFallback(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
}
