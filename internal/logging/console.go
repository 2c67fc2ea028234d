package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	consoleTimeLayout = "2006-01-02 15:04:05"
	maxErrorValueLen  = 200
)

// consoleHandler renders one human-oriented line per record:
//
//	2026-03-01 10:00:00 INFO  [pipeline] u42 run 01234567/fetch: clip fetched  output_bytes=2.0 KiB
//
// Identity keys move into the prefix. Below debug verbosity, plumbing keys
// such as chat and message IDs or filesystem paths are left to the JSON log.
type consoleHandler struct {
	mu      *sync.Mutex
	w       io.Writer
	level   slog.Leveler
	verbose bool
	attrs   []consoleField
	prefix  string
}

type consoleField struct {
	key   string
	value slog.Value
}

func newConsoleHandler(w io.Writer, level slog.Leveler) *consoleHandler {
	return &consoleHandler{
		mu:      &sync.Mutex{},
		w:       w,
		level:   level,
		verbose: level.Level() <= slog.LevelDebug,
	}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = slices.Clip(h.attrs)
	for _, attr := range attrs {
		clone.attrs = appendField(clone.attrs, h.prefix, attr)
	}
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	fields := slices.Clone(h.attrs)
	record.Attrs(func(attr slog.Attr) bool {
		fields = appendField(fields, h.prefix, attr)
		return true
	})

	var id identity
	var body, tail []string
	seen := make(map[string]int, len(fields))
	for _, f := range fields {
		if id.take(f) {
			continue
		}
		if !h.verbose && debugOnlyKey(f.key) {
			continue
		}
		rendered := f.key + "=" + renderValue(f.key, f.value)
		switch f.key {
		case FieldEventType, FieldErrorHint, FieldImpact:
			tail = append(tail, rendered)
			continue
		}
		if idx, dup := seen[f.key]; dup {
			body[idx] = rendered
			continue
		}
		seen[f.key] = len(body)
		body = append(body, rendered)
	}

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var b strings.Builder
	b.WriteString(ts.Local().Format(consoleTimeLayout))
	fmt.Fprintf(&b, " %-5s ", levelName(record.Level))
	if id.component != "" {
		b.WriteString("[" + id.component + "] ")
	}
	if subject := id.subject(); subject != "" {
		b.WriteString(subject + ": ")
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(msg)
	if kvs := append(body, tail...); len(kvs) > 0 {
		b.WriteString("  ")
		b.WriteString(strings.Join(kvs, " "))
	}
	if h.verbose && record.PC != 0 {
		if src := record.Source(); src != nil && src.File != "" {
			fmt.Fprintf(&b, " (%s:%d)", filepath.Base(src.File), src.Line)
		}
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

// identity collects the keys rendered in the line prefix. The last value
// wins so that per-call attributes override logger defaults.
type identity struct {
	component, user, run, stage string
}

func (id *identity) take(f consoleField) bool {
	switch f.key {
	case FieldComponent:
		id.component = f.value.String()
	case FieldUserID:
		id.user = f.value.String()
	case FieldRunID:
		id.run = f.value.String()
	case FieldStage:
		id.stage = f.value.String()
	default:
		return false
	}
	return true
}

func (id identity) subject() string {
	var parts []string
	if id.user != "" {
		parts = append(parts, "u"+id.user)
	}
	run := id.run
	if len(run) > 8 {
		run = run[:8]
	}
	switch {
	case run != "" && id.stage != "":
		parts = append(parts, "run "+run+"/"+id.stage)
	case run != "":
		parts = append(parts, "run "+run)
	case id.stage != "":
		parts = append(parts, id.stage)
	}
	return strings.Join(parts, " ")
}

func appendField(dst []consoleField, prefix string, attr slog.Attr) []consoleField {
	attr.Value = attr.Value.Resolve()
	if attr.Key == "" && attr.Value.Kind() != slog.KindGroup {
		return dst
	}
	if attr.Value.Kind() == slog.KindGroup {
		if attr.Key != "" {
			prefix += attr.Key + "."
		}
		for _, member := range attr.Value.Group() {
			dst = appendField(dst, prefix, member)
		}
		return dst
	}
	return append(dst, consoleField{key: prefix + attr.Key, value: attr.Value})
}

func debugOnlyKey(key string) bool {
	switch key {
	case FieldCorrelationID, "chat_id", "message_id", "callback_id", "update_id", "args", "stderr":
		return true
	}
	return strings.HasSuffix(key, "_path") || strings.HasSuffix(key, "_dir") || key == "path"
}

func renderValue(key string, v slog.Value) string {
	switch v.Kind() {
	case slog.KindInt64:
		if strings.HasSuffix(key, "_bytes") {
			return humanBytes(v.Int64())
		}
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindDuration:
		return roundDuration(v.Duration()).String()
	case slog.KindTime:
		return v.Time().Local().Format(consoleTimeLayout)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			msg := err.Error()
			if len(msg) > maxErrorValueLen {
				msg = msg[:maxErrorValueLen] + "…"
			}
			return quoteIfNeeded(msg)
		}
	}
	return quoteIfNeeded(v.String())
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

func humanBytes(n int64) string {
	if n < 1024 {
		return strconv.FormatInt(n, 10) + " B"
	}
	value := float64(n)
	units := "KMGTPE"
	i := -1
	for value >= 1024 && i < len(units)-1 {
		value /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %ciB", value, units[i])
}

func roundDuration(d time.Duration) time.Duration {
	switch {
	case d < time.Second:
		return d.Round(time.Millisecond)
	case d < time.Minute:
		return d.Round(100 * time.Millisecond)
	}
	return d.Round(time.Second)
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}
