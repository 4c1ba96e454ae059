package main

import (
	"github.com/spf13/cobra"
)

// defaultConfigPath is read when --config is not given. A missing file means
// defaults: in-memory storage with sample data.
const defaultConfigPath = "records.yaml"

// withApp wraps a command body with app setup and teardown.
func withApp(configPath *string, body func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), *configPath, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()
		return body(cmd, a, args)
	}
}

// runLine runs one console line; used by the one-shot commands.
func runLine(line string) func(cmd *cobra.Command, a *app, args []string) error {
	return func(cmd *cobra.Command, a *app, args []string) error {
		return a.console.Exec(cmd.Context(), line)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	runShell := withApp(&configPath, func(cmd *cobra.Command, a *app, _ []string) error {
		if a.cfg.Seed.Enabled {
			if err := a.seed(cmd.Context()); err != nil {
				return err
			}
		}
		return a.console.Run(cmd.Context())
	})

	rootCmd := &cobra.Command{
		Use:           "records",
		Short:         "Keep students, disciplines and grades with undo and redo",
		Long:          `Records stores students, disciplines and grades in memory, text files, binary snapshots, SQLite, PostgreSQL or Redis. Every change can be undone and redone from the interactive shell.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runShell,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath,
		"settings file (.yaml, or legacy .properties)")

	shellCmd := &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive console",
		Args:  cobra.NoArgs,
		RunE:  runShell,
	}

	listCmd := func(collection string) *cobra.Command {
		parent := &cobra.Command{
			Use:   collection,
			Short: "Work with " + collection,
		}
		parent.AddCommand(&cobra.Command{
			Use:   "list",
			Short: "Print all " + collection + " in insertion order",
			Args:  cobra.NoArgs,
			RunE:  withApp(&configPath, runLine("list "+collection)),
		})
		return parent
	}

	reportCmd := &cobra.Command{
		Use:       "report failing|best|best-disciplines|grades",
		Short:     "Print a report",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"failing", "best", "best-disciplines", "grades"},
		RunE: withApp(&configPath, func(cmd *cobra.Command, a *app, args []string) error {
			return a.console.Exec(cmd.Context(), "report "+args[0])
		}),
	}

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill empty collections with random sample data",
		Args:  cobra.NoArgs,
		RunE: withApp(&configPath, func(cmd *cobra.Command, a *app, _ []string) error {
			return a.seed(cmd.Context())
		}),
	}

	rootCmd.AddCommand(shellCmd, listCmd("students"), listCmd("disciplines"), listCmd("grades"), reportCmd, seedCmd)
	return rootCmd
}
