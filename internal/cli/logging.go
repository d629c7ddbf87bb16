package cli

import (
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/sptk-project/sptkdl/internal/logger"
)

// newLogger builds the command logger from the global flags.
// All logs go to the app's error writer to keep stdout clean for command output.
func newLogger(c *cli.Context) (*slog.Logger, error) {
	l, err := logger.New(c.String("log-level"), c.String("log-format"), c.App.ErrWriter)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return l, nil
}

// gormLogLevel maps the command log level onto the database logger.
// Database logs are verbose, so only debug surfaces anything below warnings.
func gormLogLevel(level string) string {
	switch logger.ParseLevelOrDefault(level) {
	case slog.LevelDebug:
		return "info"
	case slog.LevelError:
		return "error"
	default:
		return "warn"
	}
}
