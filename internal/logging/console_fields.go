package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

type infoField struct {
	label string
	value string
}

// infoAttrLimit caps the fields printed under an info line; debug lines
// print everything.
const infoAttrLimit = 8

var infoHighlightKeys = []string{
	FieldEventType,
	"outcome",
	"card_name",
	"card",
	"score",
	"margin",
	"latency",
	"candidates",
	"cards",
	"skipped",
	"descriptors",
	"percent",
	"artifact_bytes",
	"size_bytes",
	FieldErrorHint,
	FieldImpact,
	"error",
	"reason",
}

func selectInfoFields(attrs []kv, includeAll bool) ([]infoField, int) {
	if len(attrs) == 0 {
		return nil, 0
	}
	limit := infoAttrLimit
	if includeAll {
		limit = 0
	}
	used := make([]bool, len(attrs))
	result := make([]infoField, 0, infoAttrLimit)
	hidden := 0

	add := func(idx int) {
		used[idx] = true
		attr := attrs[idx]
		if !includeAll && skipInfoKey(attr.key) {
			return
		}
		if limit > 0 && len(result) >= limit {
			hidden++
			return
		}
		result = append(result, infoField{label: displayLabel(attr.key), value: formatValueForKey(attr.key, attr.value)})
	}

	for _, key := range infoHighlightKeys {
		for idx, attr := range attrs {
			if !used[idx] && attr.key == key {
				add(idx)
				break
			}
		}
	}
	for idx := range attrs {
		if !used[idx] {
			add(idx)
		}
	}
	return result, hidden
}

// skipInfoKey hides identifiers already rendered in the header and paths
// that clutter the console.
func skipInfoKey(key string) bool {
	switch key {
	case FieldRequestID, FieldCardID, FieldStage, FieldBuildID:
		return true
	}
	return strings.HasSuffix(key, "_path") || strings.HasSuffix(key, "_dir")
}

func formatValueForKey(key string, v slog.Value) string {
	v = v.Resolve()
	switch {
	case strings.HasSuffix(key, "_bytes") && (v.Kind() == slog.KindInt64 || v.Kind() == slog.KindUint64):
		if v.Kind() == slog.KindInt64 && v.Int64() >= 0 {
			return humanize.Bytes(uint64(v.Int64()))
		}
		if v.Kind() == slog.KindUint64 {
			return humanize.Bytes(v.Uint64())
		}
	case v.Kind() == slog.KindDuration:
		return v.Duration().Round(time.Millisecond).String()
	case (key == "score" || key == "margin") && v.Kind() == slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', 3, 64)
	case key == "percent" && v.Kind() == slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', 1, 64) + "%"
	case (key == "cards" || key == "descriptors") && v.Kind() == slog.KindInt64:
		return humanize.Comma(v.Int64())
	}
	return formatValue(v)
}

func displayLabel(key string) string {
	switch key {
	case FieldEventType:
		return "Event"
	case FieldErrorHint:
		return "Hint"
	case "card_name", "card":
		return "Card"
	case "size_bytes", "artifact_bytes":
		return "Size"
	default:
		return titleizeKey(key)
	}
}

func titleizeKey(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	for i, part := range parts {
		parts[i] = strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
	}
	return strings.Join(parts, " ")
}

func attrString(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return formatValue(v)
	}
}

func formatValue(v slog.Value) string {
	v = v.Resolve()
	var s string
	switch v.Kind() {
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().In(time.Local).Format(logTimestampLayout)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = fmt.Sprint(v.Any())
		}
	default:
		s = v.String()
	}
	if needsQuotes(s) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuotes(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r < ' ' || r == '"' {
			return true
		}
	}
	return false
}
