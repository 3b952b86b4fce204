package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		debug   bool
		info    bool
		warning bool
	}{
		{"quiet", Options{}, false, false, true},
		{"verbose", Options{Verbose: true}, false, true, true},
		{"debug", Options{Debug: true}, true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.opts.Output = &buf
			l := New(tt.opts)
			ctx := context.Background()

			assert.Equal(t, tt.debug, l.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tt.info, l.Enabled(ctx, slog.LevelInfo))
			assert.Equal(t, tt.warning, l.Enabled(ctx, slog.LevelWarn))
		})
	}
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Verbose: true, Output: &buf})

	ctx := WithLogger(context.Background(), l)
	ctx = With(ctx, "run_id", "abc")

	Info(ctx, "stage finished", "stage", "REVIEWED")
	Error(ctx, "send failed", errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "run_id=abc")
	assert.Contains(t, out, "stage=REVIEWED")
	assert.Contains(t, out, "error=boom")
}

func TestFromContext_FallsBackToDefault(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))
}

func TestPrettyHandler(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	var buf bytes.Buffer
	l := New(Options{Verbose: true, Output: &buf, Pretty: true})

	l.With("run_id", "r1").WithGroup("notify").Info("dispatched", "completed", 2)
	l.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "dispatched")
	assert.Contains(t, out, "run_id=r1")
	assert.Contains(t, out, "notify.completed=2")
	assert.NotContains(t, out, "hidden")
}
