package errors

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger, out: os.Stderr}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	classified, ok := AsClassified(err)
	if !ok {
		return 1
	}
	switch classified.Category() {
	case CategoryValidation:
		return 2
	case CategoryPolicy:
		return 3
	case CategoryTimeout:
		return 4
	case CategoryStage:
		return 5
	case CategoryCanceled:
		return 6
	case CategoryConfig:
		return 7
	case CategoryGit, CategoryNetwork:
		return 8
	case CategoryFileSystem, CategoryStore:
		return 9
	case CategoryInternal:
		return 10
	default:
		return 1
	}
}

// FormatError formats an error for user-facing display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	classified, ok := AsClassified(err)
	if !ok || a.verbose {
		return fmt.Sprintf("Error: %v", err)
	}
	if field, ok := classified.Context().GetString("field"); ok {
		return fmt.Sprintf("Error: %s (%s)", classified.Message(), field)
	}
	return "Error: " + classified.Message()
}

// Report logs and prints err and returns the exit code the process should use.
func (a *CLIErrorAdapter) Report(err error) int {
	if err == nil {
		return 0
	}
	code := a.ExitCodeFor(err)
	attrs := []any{slog.Int("exit_code", code), slog.String("category", string(GetCategory(err)))}
	if classified, ok := AsClassified(err); ok {
		for k, v := range classified.Context() {
			attrs = append(attrs, slog.Any(k, v))
		}
	}
	a.logger.Error("Command failed", append(attrs, slog.String("error", err.Error()))...)
	_, _ = fmt.Fprintln(a.out, a.FormatError(err))
	return code
}
