// ABOUTME: Builds the slog logger shared by the client and engine
// ABOUTME: Output is rendered by charmbracelet/log
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// Options controls logger construction
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text, json or logfmt
	Prefix string
	Output io.Writer
}

// New returns a slog logger backed by a charm log handler. An empty
// level means info and a nil output means stderr.
func New(opts Options) (*slog.Logger, error) {
	level := charmlog.InfoLevel
	if opts.Level != "" {
		parsed, err := charmlog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	formatter, err := parseFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	handler := charmlog.NewWithOptions(out, charmlog.Options{
		Level:           level,
		Formatter:       formatter,
		Prefix:          opts.Prefix,
		ReportTimestamp: true,
	})
	return slog.New(handler), nil
}

// Discard returns a logger that drops everything
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func parseFormat(format string) (charmlog.Formatter, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return charmlog.TextFormatter, nil
	case "json":
		return charmlog.JSONFormatter, nil
	case "logfmt":
		return charmlog.LogfmtFormatter, nil
	default:
		return 0, fmt.Errorf("unknown log format %q", format)
	}
}
