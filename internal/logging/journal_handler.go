package logging

import (
	"context"
	"log/slog"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/journal"
)

// SyslogIdentifier tags every journal entry.
const SyslogIdentifier = "framesource"

// JournalHandler is a slog.Handler that sends records to the systemd
// journal as structured fields. Attribute keys become upper-case field
// names, prefixed by any open groups.
type JournalHandler struct {
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// NewJournalHandler creates a journal handler.
// The level is consulted on every record so a *slog.LevelVar stays live.
func NewJournalHandler(level slog.Leveler) *JournalHandler {
	return &JournalHandler{level: level}
}

func (h *JournalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *JournalHandler) Handle(_ context.Context, r slog.Record) error {
	fields := map[string]string{
		"SYSLOG_IDENTIFIER": SyslogIdentifier,
	}
	if r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		fields["CODE_FILE"] = frame.File
		fields["CODE_LINE"] = strconv.Itoa(frame.Line)
		fields["CODE_FUNC"] = frame.Function
	}

	for _, attr := range h.attrs {
		addAttrToFields(fields, attr, h.groups)
	}
	r.Attrs(func(attr slog.Attr) bool {
		addAttrToFields(fields, attr, h.groups)
		return true
	})

	return journal.Send(r.Message, mapLevelToPriority(r.Level), fields)
}

func (h *JournalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &JournalHandler{
		level:  h.level,
		attrs:  append(slices.Clip(h.attrs), attrs...),
		groups: h.groups,
	}
}

func (h *JournalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &JournalHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: append(slices.Clip(h.groups), name),
	}
}

func mapLevelToPriority(level slog.Level) journal.Priority {
	switch {
	case level >= slog.LevelError:
		return journal.PriErr
	case level >= slog.LevelWarn:
		return journal.PriWarning
	case level >= slog.LevelInfo:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}

// fieldName maps an attribute key to a valid journal field name:
// upper-case letters, digits and underscores, not starting with one.
func fieldName(groups []string, key string) string {
	var b strings.Builder
	for _, part := range append(slices.Clip(groups), key) {
		if b.Len() > 0 {
			b.WriteByte('_')
		}
		for _, c := range strings.ToUpper(part) {
			switch {
			case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
				b.WriteRune(c)
			default:
				b.WriteByte('_')
			}
		}
	}
	return strings.TrimLeft(b.String(), "_0123456789")
}

func addAttrToFields(fields map[string]string, attr slog.Attr, groups []string) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}

	if attr.Value.Kind() == slog.KindGroup {
		sub := groups
		if attr.Key != "" {
			sub = append(slices.Clip(groups), attr.Key)
		}
		for _, a := range attr.Value.Group() {
			addAttrToFields(fields, a, sub)
		}
		return
	}

	key := fieldName(groups, attr.Key)
	if key == "" {
		return
	}

	switch attr.Value.Kind() {
	case slog.KindInt64:
		fields[key] = strconv.FormatInt(attr.Value.Int64(), 10)
	case slog.KindUint64:
		fields[key] = strconv.FormatUint(attr.Value.Uint64(), 10)
	case slog.KindFloat64:
		fields[key] = strconv.FormatFloat(attr.Value.Float64(), 'g', -1, 64)
	case slog.KindBool:
		fields[key] = strconv.FormatBool(attr.Value.Bool())
	case slog.KindTime:
		fields[key] = attr.Value.Time().Format(time.RFC3339Nano)
	default:
		fields[key] = attr.Value.String()
	}
}

// IsJournalAvailable reports whether the journal socket is reachable.
func IsJournalAvailable() bool {
	return journal.Enabled()
}
