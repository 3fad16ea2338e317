package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

const loggerNameKey = "logger"

const (
	ansiCodeReset     = "\033[0m"
	ansiCodeRed       = "\033[31m"
	ansiCodeGreen     = "\033[32m"
	ansiCodeYellow    = "\033[33m"
	ansiCodeCyan      = "\033[36m"
	ansiCodeGray      = "\033[90m"
	ansiCodeUnderline = "\033[4m"
)

//nolint:gochecknoglobals
var ansiCodeMap = map[slog.Level]string{
	slog.LevelDebug: ansiCodeCyan,
	slog.LevelInfo:  ansiCodeGreen,
	slog.LevelWarn:  ansiCodeYellow,
	slog.LevelError: ansiCodeRed,
}

// ConsoleHandler implements slog.Handler with human-readable single-record output
// suitable for development. Colors are only emitted when Color is set.
type ConsoleHandler struct {
	// Output is the destination for log output
	Output io.Writer
	// Level is the minimum level for records without a matching NameLevels entry
	Level slog.Leveler
	// NameLevels maps dotted logger names (and their parents) to minimum levels
	NameLevels map[string]slog.Level
	// Color enables ANSI escape codes
	Color bool

	attrs  []slog.Attr
	groups []string
	mu     *sync.Mutex
}

var _ slog.Handler = (*ConsoleHandler)(nil)

// Enabled implements slog.Handler.Enabled.
// Name based overrides are resolved in Handle, so any override may lower the threshold here.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.Level.Level() || len(h.NameLevels) > 0
}

// Handle implements slog.Handler.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}

	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		a.Key = prefix + a.Key
		attrs = append(attrs, a)

		return true
	})

	if r.Level < h.minLevel(attrs) {
		return nil
	}

	var sb strings.Builder

	sb.WriteString(h.paint(ansiCodeGray, r.Time.Format("15:04:05.000000")))
	sb.WriteString(" ")
	sb.WriteString(h.paint(ansiCodeMap[r.Level], "["+r.Level.String()+"]"))
	sb.WriteString(" ")
	sb.WriteString(r.Message)

	if len(attrs) > 0 {
		sb.WriteString(" " + h.paint(ansiCodeGray, "|"))
		h.writeAttrs(&sb, "", attrs)
	}

	if r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		fn := frame.Function[strings.LastIndex(frame.Function, string(os.PathSeparator))+1:]

		sb.WriteString("\n-> ")
		sb.WriteString(h.paint(ansiCodeGray, fn+"()"))
		sb.WriteString(" in ")
		sb.WriteString(h.paint(ansiCodeUnderline, frame.File+":"+strconv.Itoa(frame.Line)))
	}

	sb.WriteString("\n")

	if h.mu != nil {
		h.mu.Lock()
		defer h.mu.Unlock()
	}

	_, err := io.WriteString(h.Output, sb.String())

	return err //nolint:wrapcheck
}

// minLevel walks the logger name from most to least specific and returns the
// first configured override, or the handler level.
func (h *ConsoleHandler) minLevel(attrs []slog.Attr) slog.Level {
	if len(h.NameLevels) == 0 {
		return h.Level.Level()
	}

	var name string

	for _, attr := range attrs {
		if attr.Key == loggerNameKey {
			name = attr.Value.String()
		}
	}

	for name != "" {
		if level, ok := h.NameLevels[name]; ok {
			return level
		}

		idx := strings.LastIndex(name, ".")
		if idx < 0 {
			break
		}

		name = name[:idx]
	}

	return h.Level.Level()
}

func (h *ConsoleHandler) writeAttrs(sb *strings.Builder, prefix string, attrs []slog.Attr) {
	for _, attr := range attrs {
		if attr.Value.Kind() == slog.KindGroup {
			h.writeAttrs(sb, prefix+attr.Key+".", attr.Value.Group())

			continue
		}

		sb.WriteString(" " + prefix + attr.Key + "=")
		sb.WriteString(h.paint(ansiCodeGray, attr.Value.String()))
	}
}

func (h *ConsoleHandler) paint(code, s string) string {
	if !h.Color {
		return s
	}

	return code + s + ansiCodeReset
}

func (h *ConsoleHandler) clone() *ConsoleHandler {
	mu := h.mu
	if mu == nil {
		mu = new(sync.Mutex)
	}

	return &ConsoleHandler{
		Output:     h.Output,
		Level:      h.Level,
		NameLevels: h.NameLevels,
		Color:      h.Color,
		attrs:      append([]slog.Attr(nil), h.attrs...),
		groups:     append([]string(nil), h.groups...),
		mu:         mu,
	}
}

// WithAttrs implements slog.Handler.WithAttrs.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) Handler {
	c := h.clone()

	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}

	for _, a := range attrs {
		a.Key = prefix + a.Key
		c.attrs = append(c.attrs, a)
	}

	return c
}

// WithGroup implements slog.Handler.WithGroup.
func (h *ConsoleHandler) WithGroup(name string) Handler {
	if name == "" {
		return h
	}

	c := h.clone()
	c.groups = append(c.groups, name)

	return c
}
