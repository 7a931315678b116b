package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ConsoleTimeFormat is the clock format printed in front of console lines.
const ConsoleTimeFormat = "03:04:05 PM"

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

// ConsoleOptions configures a ConsoleHandler.
type ConsoleOptions struct {
	Level  slog.Leveler
	Colors bool
	Now    func() time.Time
}

// consoleState is shared by a handler and every handler derived from it, so
// consecutive lines compare against the same previous timestamp.
type consoleState struct {
	mu            sync.Mutex
	lastTimestamp string
}

// ConsoleHandler is a slog.Handler for humans watching a terminal. Each line
// starts with a bracketed wall-clock time colored by level; when a line falls
// in the same second as the previous one the time is replaced by blanks of
// the same width so bursts of output stay readable.
type ConsoleHandler struct {
	out    io.Writer
	opts   ConsoleOptions
	state  *consoleState
	attrs  []slog.Attr
	groups []string
}

// NewConsoleHandler creates a console handler writing to out.
func NewConsoleHandler(out io.Writer, opts *ConsoleOptions) *ConsoleHandler {
	h := &ConsoleHandler{
		out:   out,
		state: &consoleState{},
	}
	if opts != nil {
		h.opts = *opts
	}
	if h.opts.Level == nil {
		h.opts.Level = slog.LevelInfo
	}
	if h.opts.Now == nil {
		h.opts.Now = time.Now
	}
	return h
}

// Enabled reports whether the handler emits records at level.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

// Handle formats and writes a single record.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	timestamp := "[" + h.opts.Now().Format(ConsoleTimeFormat) + "]"

	var buf bytes.Buffer

	h.state.mu.Lock()
	defer h.state.mu.Unlock()

	printed := timestamp
	if timestamp == h.state.lastTimestamp {
		printed = strings.Repeat(" ", len(timestamp))
	}
	h.state.lastTimestamp = timestamp

	if h.opts.Colors {
		buf.WriteString(levelColor(r.Level))
		buf.WriteString(printed)
		buf.WriteString(colorReset)
	} else {
		buf.WriteString(printed)
	}
	buf.WriteByte(' ')
	buf.WriteString(r.Message)

	prefix := strings.Join(h.groups, ".")
	writeAttr := func(a slog.Attr) bool {
		if a.Equal(slog.Attr{}) {
			return true
		}
		key := a.Key
		if prefix != "" {
			key = prefix + "." + key
		}
		fmt.Fprintf(&buf, " %s=%v", key, a.Value.Resolve().Any())
		return true
	}
	for _, a := range h.attrs {
		writeAttr(a)
	}
	r.Attrs(writeAttr)
	buf.WriteByte('\n')

	_, err := h.out.Write(buf.Bytes())
	return err
}

// WithAttrs returns a handler that prints attrs on every line.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

// WithGroup returns a handler that qualifies attribute keys with name.
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return colorRed
	case level >= slog.LevelWarn:
		return colorYellow
	case level >= slog.LevelInfo:
		return colorGreen
	default:
		return colorCyan
	}
}
