package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const logTimestampLayout = "2006-01-02 15:04:05"

// prettyHandler renders one header line per record followed by an indented
// list of fields:
//
//	2026-01-02 15:04:05 INFO [matcher] req 0123abcd - match completed
//	    - Card: Lightning Bolt
//	    - Score: 0.813
type prettyHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	level     *slog.LevelVar
	attrs     []slog.Attr
	groups    []string
	addSource bool
}

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &prettyHandler{mu: &sync.Mutex{}, writer: w, level: lvl, addSource: addSource}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, record slog.Record) error {
	if !h.Enabled(context.Background(), record.Level) {
		return nil
	}

	fields := newFieldSet(record.NumAttrs() + len(h.attrs))
	fields.addAll(h.groups, h.attrs)
	record.Attrs(func(attr slog.Attr) bool {
		fields.add(h.groups, attr)
		return true
	})

	var buf bytes.Buffer
	buf.Grow(192 + len(fields.kvs)*32)
	h.writeHeader(&buf, record, fields)

	shown, hidden := selectInfoFields(fields.withoutKey(FieldComponent), record.Level < slog.LevelInfo)
	for _, field := range shown {
		buf.WriteString("    - " + field.label + ": " + field.value + "\n")
	}
	switch {
	case hidden == 1:
		buf.WriteString("    + 1 more field hidden\n")
	case hidden > 1:
		buf.WriteString("    + " + strconv.Itoa(hidden) + " more fields hidden\n")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

func (h *prettyHandler) writeHeader(buf *bytes.Buffer, record slog.Record, fields *fieldSet) {
	timestamp := record.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	buf.WriteString(timestamp.In(time.Local).Format(logTimestampLayout))
	buf.WriteString(" " + levelLabel(record.Level))
	if component := fields.str(FieldComponent); component != "" {
		buf.WriteString(" [" + component + "]")
	}
	if subject := fields.subject(); subject != "" {
		buf.WriteString(" " + subject)
	}

	message := strings.TrimSpace(record.Message)
	if message == "" {
		message = "(no message)"
	}
	buf.WriteString(" - " + message)
	if h.addSource {
		if src := record.Source(); src != nil {
			buf.WriteString(" [" + filepath.Base(src.File) + ":" + strconv.Itoa(src.Line) + "]")
		}
	}
	buf.WriteByte('\n')
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

type kv struct {
	key   string
	value slog.Value
}

// fieldSet holds flattened attributes in first-seen order. A repeated key
// keeps its position and takes the latest value.
type fieldSet struct {
	kvs []kv
	pos map[string]int
}

func newFieldSet(capacity int) *fieldSet {
	return &fieldSet{kvs: make([]kv, 0, capacity), pos: make(map[string]int, capacity)}
}

func (f *fieldSet) addAll(prefix []string, attrs []slog.Attr) {
	for _, attr := range attrs {
		f.add(prefix, attr)
	}
}

func (f *fieldSet) add(prefix []string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		if attr.Key != "" {
			prefix = append(append([]string(nil), prefix...), attr.Key)
		}
		f.addAll(prefix, attr.Value.Group())
		return
	}
	key := attr.Key
	if len(prefix) > 0 {
		key = strings.Join(prefix, ".") + "." + key
	}
	if key == "" {
		return
	}
	if i, ok := f.pos[key]; ok {
		f.kvs[i].value = attr.Value
		return
	}
	f.pos[key] = len(f.kvs)
	f.kvs = append(f.kvs, kv{key: key, value: attr.Value})
}

func (f *fieldSet) str(key string) string {
	if i, ok := f.pos[key]; ok {
		return attrString(f.kvs[i].value)
	}
	return ""
}

func (f *fieldSet) withoutKey(key string) []kv {
	i, ok := f.pos[key]
	if !ok {
		return f.kvs
	}
	out := make([]kv, 0, len(f.kvs)-1)
	out = append(out, f.kvs[:i]...)
	return append(out, f.kvs[i+1:]...)
}

// subject names what a line is about: a match request, a card or an index
// build, plus the stage when one is set.
func (f *fieldSet) subject() string {
	var parts []string
	switch {
	case f.str(FieldRequestID) != "":
		parts = append(parts, "req "+shortID(f.str(FieldRequestID)))
	case f.str(FieldCardID) != "":
		parts = append(parts, "card "+f.str(FieldCardID))
	case f.str(FieldBuildID) != "":
		parts = append(parts, "build "+shortID(f.str(FieldBuildID)))
	}
	if stage := f.str(FieldStage); stage != "" {
		parts = append(parts, "("+stage+")")
	}
	return strings.Join(parts, " ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
