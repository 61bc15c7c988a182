package activity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/keyxmakerx/bizledger/internal/sanitize"
)

// DefaultDateLayout renders timestamps as day.month.year hour:minute.
const DefaultDateLayout = "02.01.2006 15:04"

// truncatedIDLength is how much of an unresolved id is shown inside a list.
const truncatedIDLength = 8

// statusFields are rendered through the status registry.
var statusFields = map[string]bool{
	"status":         true,
	"approvalStatus": true,
	"priority":       true,
}

// richTextFields hold editor HTML and are rendered as plain text.
var richTextFields = map[string]bool{
	"content":     true,
	"body":        true,
	"notes":       true,
	"description": true,
}

// FormatOptions configures date rendering.
type FormatOptions struct {
	DateLayout string
	Location   *time.Location
}

// Formatter renders raw snapshot values as display strings.
type Formatter struct {
	labels *Labels
	layout string
	loc    *time.Location
}

// NewFormatter creates a formatter reading from the given labels.
func NewFormatter(labels *Labels, opts FormatOptions) *Formatter {
	if labels == nil {
		labels = DefaultLabels()
	}
	layout := opts.DateLayout
	if layout == "" {
		layout = DefaultDateLayout
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{labels: labels, layout: layout, loc: loc}
}

// FormatTime renders t in the configured layout and zone.
func (f *Formatter) FormatTime(t time.Time) string {
	return t.In(f.loc).Format(f.layout)
}

// Format renders one field value. It always returns a printable string.
func (f *Formatter) Format(collection Collection, field string, value any, ix *NameIndex) string {
	if value == nil {
		return f.labels.Phrases.None
	}

	if b, ok := value.(bool); ok {
		if b {
			return f.labels.Phrases.Yes
		}
		return f.labels.Phrases.No
	}

	if t, ok := asTime(value, f.loc); ok {
		return f.FormatTime(t)
	}

	switch v := value.(type) {
	case []any:
		return f.formatList(field, v, ix)
	case []string:
		items := make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
		return f.formatList(field, items, ix)
	case map[string]any:
		return canonical(v)
	case string:
		return f.formatString(field, v, ix)
	}

	return scalarString(value)
}

// formatString applies the reference and status rules to a string value.
func (f *Formatter) formatString(field, s string, ix *NameIndex) string {
	if looksLikeID(s) {
		if kind, ok := kindForField(field); ok {
			if name, ok := ix.Name(kind, s); ok {
				return name
			}
		}
	}
	if statusFields[field] {
		return f.labels.Status(s)
	}
	if richTextFields[field] {
		return sanitize.PlainText(s)
	}
	return s
}

// formatList renders an array value. Arrays of ids are mapped to names;
// anything else collapses to an item count.
func (f *Formatter) formatList(field string, items []any, ix *NameIndex) string {
	if len(items) == 0 {
		return f.labels.Phrases.Empty
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok || !looksLikeID(s) {
			return f.labels.Phrases.ItemCount(len(items))
		}
		ids = append(ids, s)
	}

	kind, hasKind := kindForField(field)
	names := make([]string, len(ids))
	for i, id := range ids {
		if hasKind {
			if name, ok := ix.Name(kind, id); ok {
				names[i] = name
				continue
			}
		}
		names[i] = truncateID(id)
	}
	return strings.Join(names, ", ")
}

// truncateID shortens an unresolved id for list display.
func truncateID(id string) string {
	r := []rune(id)
	if len(r) <= truncatedIDLength {
		return id
	}
	return string(r[:truncatedIDLength]) + "…"
}

// localLayouts are zone-less date shapes written by the dashboard forms.
// They are read in the display zone.
var localLayouts = []string{
	time.DateTime,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// asTime recognizes the timestamp shapes found in snapshots: native
// times, RFC 3339 strings, zone-less date strings and serialized
// {seconds, nanoseconds} objects.
func asTime(v any, loc *time.Location) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return *t, true
	case string:
		if len(t) < len(time.DateOnly) || t[4] != '-' || t[7] != '-' {
			return time.Time{}, false
		}
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed, true
		}
		for _, layout := range localLayouts {
			if parsed, err := time.ParseInLocation(layout, t, loc); err == nil {
				return parsed, true
			}
		}
	case map[string]any:
		secs, ok := numberField(t, "seconds", "_seconds")
		if !ok || len(t) > 2 {
			return time.Time{}, false
		}
		nanos, _ := numberField(t, "nanoseconds", "_nanoseconds")
		return time.Unix(int64(secs), int64(nanos)), true
	}
	return time.Time{}, false
}

func numberField(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch n := m[k].(type) {
		case float64:
			return n, true
		case int64:
			return float64(n), true
		case int:
			return float64(n), true
		case json.Number:
			f, err := n.Float64()
			return f, err == nil
		}
	}
	return 0, false
}

// scalarString stringifies numbers without exponent notation and falls
// back to fmt for everything else.
func scalarString(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	case json.Number:
		return n.String()
	case fmt.Stringer:
		return n.String()
	}
	return fmt.Sprint(v)
}
