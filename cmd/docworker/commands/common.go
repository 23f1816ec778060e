// Package commands implements the docworker CLI commands.
package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (defaults apply when empty)" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	LogJSON bool             `name:"log-json" help:"Emit logs as JSON"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run      RunCmd      `cmd:"" help:"Validate and run a single push job"`
	Validate ValidateCmd `cmd:"" help:"Validate a push job without building it"`
	Worker   WorkerCmd   `cmd:"" help:"Consume push jobs from NATS JetStream"`
	Enqueue  EnqueueCmd  `cmd:"" help:"Publish a push job to NATS JetStream"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if c.LogJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}
