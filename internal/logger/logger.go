package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

type contextKey struct{}

var loggerKey = contextKey{}

// Options controls the default logger built by Initialize.
type Options struct {
	Debug   bool
	Verbose bool
	// Output defaults to os.Stderr.
	Output io.Writer
	// Pretty forces the colored handler; when false it is used only if Output is a terminal.
	Pretty bool
}

// Initialize installs the process-wide default logger.
func Initialize(debug, verbose bool) {
	slog.SetDefault(New(Options{Debug: debug, Verbose: verbose}))
}

// New builds a logger. CI logs stay plain text, interactive runs get the pretty handler.
func New(o Options) *slog.Logger {
	level := slog.LevelWarn
	if o.Debug {
		level = slog.LevelDebug
	} else if o.Verbose {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: o.Debug,
	}

	w := o.Output
	if w == nil {
		w = os.Stderr
	}

	if o.Pretty || isTerminal(w) {
		return slog.New(NewPrettyHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// With returns a context whose logger carries args on every record.
func With(ctx context.Context, args ...any) context.Context {
	l := FromContext(ctx).With(args...)
	return WithLogger(ctx, l)
}

func Debug(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Debug(msg, args...)
}

func Info(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Info(msg, args...)
}

func Warn(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Warn(msg, args...)
}

func Error(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, slog.Any("error", err))
	}
	FromContext(ctx).Error(msg, args...)
}
