package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// Extractor pulls one attribute out of a context. Returning false skips the
// attribute for that record.
type Extractor func(ctx context.Context) (slog.Attr, bool)

// Extract builds an Extractor for a string value read by fn.
func Extract(key string, fn func(ctx context.Context) string) Extractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if v := fn(ctx); v != "" {
			return slog.String(key, v), true
		}
		return slog.Attr{}, false
	}
}

// New returns a JSON logger writing to stdout at Info level, with the given
// context extractors applied on every record.
func New(extractors ...Extractor) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(decorate(h, extractors))
}

// NewNop returns a logger that discards all output. Library components use
// it when no logger was configured.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SentryConfig configures the Sentry fan-out.
type SentryConfig struct {
	DSN         string `env:"SENTRY_DSN" yaml:"dsn"`
	Environment string `env:"SENTRY_ENVIRONMENT" yaml:"environment"`
}

// NewWithSentry returns a stdout JSON logger that also reports warnings and
// errors to Sentry. An empty DSN, or a failed Sentry init, degrades to
// stdout only.
func NewWithSentry(cfg SentryConfig, extractors ...Extractor) *slog.Logger {
	stdout := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})

	if cfg.DSN == "" {
		return slog.New(decorate(stdout, extractors))
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		EnableLogs:  true,
	}); err != nil {
		slog.New(stdout).Error("sentry init failed, logging to stdout only", "error", err)
		return slog.New(decorate(stdout, extractors))
	}

	sentryHandler := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelError},
	}.NewSentryHandler(context.Background())

	return slog.New(decorate(fanout{stdout, sentryHandler}, extractors))
}

// extracting decorates a handler with per-record context extraction.
type extracting struct {
	next       slog.Handler
	extractors []Extractor
}

func decorate(next slog.Handler, extractors []Extractor) slog.Handler {
	clean := make([]Extractor, 0, len(extractors))
	for _, ex := range extractors {
		if ex != nil {
			clean = append(clean, ex)
		}
	}
	if len(clean) == 0 {
		return next
	}
	return &extracting{next: next, extractors: clean}
}

func (h *extracting) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *extracting) Handle(ctx context.Context, rec slog.Record) error {
	for _, ex := range h.extractors {
		if attr, ok := ex(ctx); ok {
			rec.AddAttrs(attr)
		}
	}
	return h.next.Handle(ctx, rec)
}

func (h *extracting) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &extracting{next: h.next.WithAttrs(attrs), extractors: h.extractors}
}

func (h *extracting) WithGroup(name string) slog.Handler {
	return &extracting{next: h.next.WithGroup(name), extractors: h.extractors}
}

// fanout forwards each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, rec slog.Record) error {
	for _, h := range f {
		if h.Enabled(ctx, rec.Level) {
			if err := h.Handle(ctx, rec.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make(fanout, len(f))
	for i, h := range f {
		next[i] = h.WithAttrs(attrs)
	}
	return next
}

func (f fanout) WithGroup(name string) slog.Handler {
	next := make(fanout, len(f))
	for i, h := range f {
		next[i] = h.WithGroup(name)
	}
	return next
}
