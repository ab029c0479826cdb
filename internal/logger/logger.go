// Copyright 2025 Nguyen Nhat Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	color "github.com/fatih/color"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type Mode string

const (
	ModeDebug   Mode = "debug"
	ModeRelease Mode = "release"
)

type Exporter string

const (
	ExporterNone     Exporter = "none"
	ExporterOTLPHTTP Exporter = "otlp-http"
	ExporterOTLPGRPC Exporter = "otlp-grpc"
)

type Logger struct {
	Slogger *slog.Logger
	*sdklog.LoggerProvider
}

type LoggerOptions struct {
	// Mode specifies the application mode (debug/release)
	Mode Mode

	// Writer is the writer to write the logs to
	Writer io.Writer

	// Level is the minimum level written to Writer in release mode.
	Level slog.Level

	// Exporter ships records to an OTLP collector in release mode. The
	// endpoint comes from the standard OTEL_EXPORTER_OTLP_* variables.
	Exporter Exporter

	ServiceName    string
	ServiceVersion string
}

func NewLogger(ctx context.Context, opts *LoggerOptions) (*Logger, error) {
	if opts == nil || opts.Writer == nil {
		return nil, fmt.Errorf("no log writer")
	}
	handlers := make([]slog.Handler, 0, 2)
	var loggerFactory *sdklog.LoggerProvider

	if opts.Mode == ModeDebug {
		handlers = append(handlers, &DebugHandler{out: opts.Writer, mut: &sync.Mutex{}})
		return &Logger{Slogger: slog.New(&MultiHandler{handlers})}, nil
	}

	handlers = append(handlers, slog.NewJSONHandler(opts.Writer, &slog.HandlerOptions{Level: opts.Level}))

	if opts.Exporter != "" && opts.Exporter != ExporterNone {
		exporter, err := newExporter(ctx, opts.Exporter)
		if err != nil {
			return nil, err
		}
		res, err := resource.Merge(
			resource.Default(),
			resource.NewSchemaless(
				semconv.ServiceName(valueOr(opts.ServiceName, "durabletask")),
				semconv.ServiceVersion(valueOr(opts.ServiceVersion, "v0.1.0")),
			),
		)
		if err != nil {
			return nil, fmt.Errorf("log resource: %w", err)
		}

		loggerFactory = sdklog.NewLoggerProvider(
			sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
			sdklog.WithResource(res),
		)
		handlers = append(handlers, otelslog.NewHandler("durabletask", otelslog.WithLoggerProvider(loggerFactory)))
	}

	return &Logger{
		Slogger:        slog.New(&MultiHandler{handlers}),
		LoggerProvider: loggerFactory,
	}, nil
}

// Shutdown flushes the OTLP pipeline, if any.
func (l *Logger) Shutdown(ctx context.Context) error {
	if l == nil || l.LoggerProvider == nil {
		return nil
	}
	return l.LoggerProvider.Shutdown(ctx)
}

func newExporter(ctx context.Context, kind Exporter) (sdklog.Exporter, error) {
	switch kind {
	case ExporterOTLPHTTP:
		return otlploghttp.New(ctx)
	case ExporterOTLPGRPC:
		return otlploggrpc.New(ctx)
	default:
		return nil, errors.New("unknown log exporter " + string(kind))
	}
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

type (
	DebugHandler struct {
		out   io.Writer
		attrs []slog.Attr
		mut   *sync.Mutex
	}

	MultiHandler struct {
		handlers []slog.Handler
	}
)

var _ slog.Handler = (*DebugHandler)(nil)

// NewDebugHandler writes colored single line records to out.
func NewDebugHandler(out io.Writer) *DebugHandler {
	return &DebugHandler{out: out, mut: &sync.Mutex{}}
}

// Handle implements slog.Handler
func (h *DebugHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	logEntry := fmt.Sprintf("%s %s %s%s\n",
		color.New(color.FgHiBlack).Sprint(r.Time.Format("15:04:05")),
		levelColor(r.Level),
		r.Message,
		formatAttributes(attrs),
	)

	h.mut.Lock()
	defer h.mut.Unlock()
	_, err := h.out.Write([]byte(logEntry))
	return err
}

// WithAttrs implements slog.Handler
func (h *DebugHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &DebugHandler{
		out:   h.out,
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
		mut:   h.mut,
	}
}

// WithGroup implements slog.Handler
func (h *DebugHandler) WithGroup(name string) slog.Handler {
	return h
}

// Enabled implements slog.Handler
func (h *DebugHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelDebug
}

// Enabled implements slog.Handler
func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle implements slog.Handler
func (m *MultiHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, h := range m.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil {
			fmt.Fprintf(os.Stderr, "error from slog handler: %v\n", err)
		}
	}
	return nil
}

// WithAttrs implements slog.Handler
func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: newHandlers}
}

// WithGroup implements slog.Handler
func (m *MultiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithGroup(name)
	}
	return &MultiHandler{handlers: newHandlers}
}

// levelColor returns a colored string representation of the log level.
func levelColor(level slog.Level) string {
	var bg, fg color.Attribute
	switch level {
	case slog.LevelDebug:
		bg, fg = color.BgMagenta, color.FgWhite
	case slog.LevelInfo:
		bg, fg = color.BgBlue, color.FgWhite
	case slog.LevelWarn:
		bg, fg = color.BgYellow, color.FgBlack
	case slog.LevelError:
		bg, fg = color.BgRed, color.FgWhite
	default:
		bg, fg = color.BgWhite, color.FgBlack
	}

	return color.New(bg, fg, color.Bold).Sprint(" " + strings.ToUpper(level.String()) + " ")
}

func formatAttributes(attrs []slog.Attr) string {
	if len(attrs) == 0 {
		return ""
	}

	parts := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		parts = append(parts, fmt.Sprintf("%s=%s", attr.Key, formatAttrValue(attr.Value)))
	}

	return " " + strings.Join(parts, " ")
}

func formatAttrValue(v slog.Value) string {
	v = v.Resolve()

	switch v.Kind() {
	case slog.KindString:
		return fmt.Sprintf("%q", v.String())
	case slog.KindInt64:
		return fmt.Sprintf("%d", v.Int64())
	case slog.KindUint64:
		return fmt.Sprintf("%d", v.Uint64())
	case slog.KindFloat64:
		return fmt.Sprintf("%f", v.Float64())
	case slog.KindBool:
		return fmt.Sprintf("%t", v.Bool())
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindAny:
		if m, ok := v.Any().(map[string]string); ok {
			parts := make([]string, 0, len(m))
			for k, v := range m {
				parts = append(parts, fmt.Sprintf("%s:%s", k, v))
			}

			return strings.Join(parts, " ")
		}

		return fmt.Sprintf("%v", v.Any())
	default:
		return fmt.Sprintf("%v", v)
	}
}
