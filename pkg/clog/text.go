package clog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/fatih/color"
)

type TextHandlerConfig struct {
	Color bool
	Level *slog.Level
}

type TextHandlerOption func(*TextHandlerConfig)

func WithColor(c bool) TextHandlerOption {
	return func(cfg *TextHandlerConfig) {
		cfg.Color = c
	}
}

func WithLevel(level slog.Level) TextHandlerOption {
	return func(cfg *TextHandlerConfig) {
		cfg.Level = &level
	}
}

// TextHandler is a human oriented slog.Handler for local development.
// Request columns are printed first, then the message, then the
// remaining attributes one per line.
type TextHandler struct {
	cfg   TextHandlerConfig
	attrs []slog.Attr
	mu    *sync.Mutex
	w     io.Writer
}

func NewTextHandler(w io.Writer, opts ...TextHandlerOption) *TextHandler {
	cfg := TextHandlerConfig{
		Color: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &TextHandler{
		cfg: cfg,
		mu:  &sync.Mutex{},
		w:   w,
	}
}

func (h *TextHandler) Enabled(_ context.Context, l slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.cfg.Level != nil {
		minLevel = h.cfg.Level.Level()
	}
	return l >= minLevel
}

func (h *TextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &nh
}

// WithGroup is a no-op; the text output is flat.
func (h *TextHandler) WithGroup(_ string) slog.Handler {
	return h
}

var textColumns = []string{"proto", "method", "path", "procedure", "status"}

func (h *TextHandler) newColor(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if h.cfg.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func (h *TextHandler) Handle(_ context.Context, record slog.Record) error {
	buf := bytes.NewBuffer(make([]byte, 0, 1024))

	fmt.Fprintf(buf, "%s ", record.Time.Format(time.RFC3339))
	var levelColor *color.Color
	switch {
	case record.Level >= slog.LevelError:
		levelColor = h.newColor(color.FgRed)
	case record.Level >= slog.LevelWarn:
		levelColor = h.newColor(color.FgYellow)
	case record.Level >= slog.LevelInfo:
		levelColor = h.newColor(color.FgBlue)
	default:
		levelColor = h.newColor(color.FgCyan)
	}
	levelColor.Fprintf(buf, "%s ", record.Level)

	kv := map[string]slog.Value{}
	for _, attr := range h.attrs {
		kv[attr.Key] = attr.Value
	}
	record.Attrs(func(attr slog.Attr) bool {
		kv[attr.Key] = attr.Value
		return true
	})
	for _, key := range textColumns {
		if v, ok := kv[key]; ok {
			fmt.Fprintf(buf, "%s ", v)
			delete(kv, key)
		}
	}

	h.newColor(color.FgGreen).Fprintf(buf, "%q", record.Message)
	if e, ok := kv[ErrorAttributeKey]; ok {
		delete(kv, ErrorAttributeKey)
		h.newColor(color.FgRed).Fprintf(buf, " %q", e.String())
	}
	buf.WriteString("\n")

	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "    %s=%s\n", k, kv[k])
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("can't write log record: %w", err)
	}
	return nil
}
