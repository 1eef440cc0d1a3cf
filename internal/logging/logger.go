package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lemonberrylabs/lindenmaker/pkg/ast"
	"github.com/lemonberrylabs/lindenmaker/pkg/runtime"
)

// New creates a configured application logger.
// It writes to Stderr so stdout stays free for command output.
// It standardizes common keys (e.g., "error" -> "err").
func New(level slog.Level) *slog.Logger {
	return NewWithWriter(os.Stderr, level)
}

// NewWithWriter is New with a custom destination.
func NewWithWriter(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Standardize 'error' key to 'err'
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}))
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps debug, info, warn and error (any case) to a slog level.
// An empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Hooks returns interpreter hooks that log every command at debug level and
// the outcome of the run.
func Hooks(logger *slog.Logger) runtime.Hooks {
	return runtime.Hooks{
		OnCommand: func(cmd ast.Command, _ runtime.Turtle) {
			logger.Debug("command",
				"kind", cmd.Kind.String(),
				"raw", cmd.Raw,
				"pos", cmd.Pos,
			)
		},
		OnFinish: func(res *runtime.Result, err error) {
			if err != nil {
				logger.Error("interpretation failed",
					"commands", res.Commands,
					"error", err,
				)
				return
			}
			logger.Info("interpretation finished",
				"commands", res.Commands,
				"skipped", res.Skipped,
				"duration", res.Duration,
			)
		},
	}
}
