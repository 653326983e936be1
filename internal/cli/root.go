// Package cli implements the receivingctl operator commands.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xelth-com/receivinggo/internal/app"
)

// AppLoader builds the service graph a command runs against
type AppLoader func(ctx context.Context, withDB bool) (*app.App, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // "json" | "text"
	WithDB bool

	load AppLoader
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for receivingctl
func NewRootCommand(load AppLoader) *cobra.Command {
	opts := &RootOptions{load: load}

	cmd := &cobra.Command{
		Use:   "receivingctl",
		Short: "Operate the PO receiving service",
		Long:  "Search POs, inspect completion, manage the backlog and export inspection sheets from the command line.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVar(&opts.WithDB, "db", false, "connect Postgres for notification log and sweep history")

	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewCompletionCommand(opts))
	cmd.AddCommand(NewBacklogCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

// withApp loads the app, runs fn and releases it
func (o *RootOptions) withApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	a, err := o.load(cmd.Context(), o.WithDB)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
