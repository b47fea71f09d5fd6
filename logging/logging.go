// Package logging builds the hclog root logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"demo-labeler/config"
)

// New returns the root logger described by cfg. When cfg.File is set the
// returned closer releases the file; otherwise it is a no-op.
func New(name string, cfg config.LoggingConfig, fallback io.Writer) (hclog.Logger, io.Closer, error) {
	level := hclog.LevelFromString(cfg.Level)
	if level == hclog.NoLevel {
		return nil, nil, fmt.Errorf("unknown log level %q", cfg.Level)
	}

	var out io.Writer = fallback
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
		closer = f
	}
	if out == nil {
		out = os.Stderr
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      level,
		Output:     out,
		JSONFormat: cfg.JSON,
	})
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
