package slogobs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// Handler is a slog.Handler that writes compact, text or JSON lines.
// Attribute order is preserved in every format.
type Handler struct {
	format Format
	level  slog.Leveler
	colors bool
	mu     *sync.Mutex
	output io.Writer
	attrs  []slog.Attr
	groups []string
}

// HandlerOptions configures a Handler.
type HandlerOptions struct {
	Format Format
	Level  slog.Leveler
	Output io.Writer
	// Colors forces ANSI colors on or off; nil means auto-detect.
	Colors *bool
}

// NewHandler creates a new Handler with the given options.
func NewHandler(opts *HandlerOptions) *Handler {
	if opts == nil {
		opts = &HandlerOptions{}
	}
	output := opts.Output
	if output == nil {
		output = os.Stderr
	}
	format := opts.Format
	if format == "" {
		format = FormatCompact
	}
	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}

	var colors bool
	if opts.Colors != nil {
		colors = *opts.Colors
	} else if f, ok := output.(*os.File); ok {
		colors = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	if format == FormatJSON {
		colors = false
	}

	return &Handler{
		format: format,
		level:  level,
		colors: colors,
		mu:     &sync.Mutex{},
		output: output,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and writes a log record.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	fields := h.collect(r)

	var line []byte
	switch h.format {
	case FormatJSON:
		line = h.formatJSON(r, fields)
	case FormatText:
		line = h.formatText(r, fields)
	default:
		line = h.formatCompact(r, fields)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.output.Write(line)
	return err
}

// WithAttrs returns a new Handler with additional attributes.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, a := range attrs {
		clone.attrs = append(clone.attrs, slog.Attr{Key: h.prefix(a.Key), Value: a.Value})
	}
	return &clone
}

// WithGroup returns a new Handler with a group name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

type field struct {
	key   string
	value any
}

func (h *Handler) prefix(key string) string {
	if len(h.groups) == 0 {
		return key
	}
	return strings.Join(h.groups, ".") + "." + key
}

func (h *Handler) collect(r slog.Record) []field {
	fields := make([]field, 0, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		fields = appendAttr(fields, "", a)
	}
	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}
	r.Attrs(func(a slog.Attr) bool {
		fields = appendAttr(fields, prefix, a)
		return true
	})
	return fields
}

func appendAttr(fields []field, prefix string, a slog.Attr) []field {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return fields
	}
	if a.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if a.Key != "" {
			groupPrefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			fields = appendAttr(fields, groupPrefix, ga)
		}
		return fields
	}
	return append(fields, field{key: prefix + a.Key, value: plainValue(a.Value)})
}

func plainValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	default:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return v.Any()
	}
}

func (h *Handler) header(r slog.Record) []byte {
	buf := make([]byte, 0, 256)
	buf = append(buf, r.Time.Format("2006-01-02 15:04:05")...)
	buf = append(buf, ' ')
	level := fmt.Sprintf("%5s", levelString(r.Level))
	if h.colors {
		buf = append(buf, colorForLevel(r.Level)...)
		buf = append(buf, level...)
		buf = append(buf, colorReset...)
	} else {
		buf = append(buf, level...)
	}
	buf = append(buf, ' ')
	return append(buf, r.Message...)
}

func (h *Handler) formatCompact(r slog.Record, fields []field) []byte {
	buf := h.header(r)
	if len(fields) > 0 {
		buf = append(buf, " → "...)
		buf = appendObject(buf, fields)
	}
	return append(buf, '\n')
}

func (h *Handler) formatText(r slog.Record, fields []field) []byte {
	buf := h.header(r)
	for _, f := range fields {
		buf = append(buf, ' ')
		buf = append(buf, f.key...)
		buf = append(buf, '=')
		s := fmt.Sprint(f.value)
		if strings.ContainsAny(s, " \t\n\"=") || s == "" {
			s = strconv.Quote(s)
		}
		buf = append(buf, s...)
	}
	return append(buf, '\n')
}

func (h *Handler) formatJSON(r slog.Record, fields []field) []byte {
	head := []field{
		{key: "time", value: r.Time.Format(time.RFC3339)},
		{key: "level", value: levelString(r.Level)},
		{key: "msg", value: r.Message},
	}
	buf := appendObject(make([]byte, 0, 256), append(head, fields...))
	return append(buf, '\n')
}

// appendObject writes fields as a JSON object, keeping their order.
func appendObject(buf []byte, fields []field) []byte {
	buf = append(buf, '{')
	for i, f := range fields {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, _ := json.Marshal(f.key)
		buf = append(buf, key...)
		buf = append(buf, ':')
		data, err := json.Marshal(f.value)
		if err != nil {
			data, _ = json.Marshal(fmt.Sprint(f.value))
		}
		buf = append(buf, data...)
	}
	return append(buf, '}')
}

func levelString(level slog.Level) string {
	switch {
	case level < slog.LevelDebug:
		return "TRACE"
	case level < slog.LevelInfo:
		return "DEBUG"
	case level < slog.LevelWarn:
		return "INFO"
	case level < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[90m"
)

func colorForLevel(level slog.Level) string {
	switch {
	case level < slog.LevelDebug:
		return colorGray
	case level < slog.LevelInfo:
		return colorBlue
	case level < slog.LevelWarn:
		return colorGreen
	case level < slog.LevelError:
		return colorYellow
	default:
		return colorRed
	}
}
