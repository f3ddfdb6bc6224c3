// Package cli implements the skelgen command-line interface.
//
// The render command reads a document (HTML, Markdown, JSON tree, text,
// CSV, PDF or DOCX), turns it into its skeleton and writes the result as
// HTML or as a JSON tree. The styles command prints the placeholder table in
// the YAML form accepted by --styles.
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// newLogger creates a logger with timestamp formatting, writing to w at level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the command logger, or log.Default() when none
// was attached.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// slogFromContext adapts the command logger for packages that log via slog.
func slogFromContext(ctx context.Context) *slog.Logger {
	return slog.New(loggerFromContext(ctx))
}

// Execute runs the skelgen CLI.
func Execute(ctx context.Context) error {
	return NewRootCmd(os.Stderr).ExecuteContext(ctx)
}

// NewRootCmd builds the command tree. Logs go to logOut; command output goes
// to the command's configured stdout.
func NewRootCmd(logOut io.Writer) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "skelgen",
		Short:        "skelgen renders loading skeletons for markup documents",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(logOut, level)))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newRenderCmd())
	root.AddCommand(newStylesCmd())
	return root
}
