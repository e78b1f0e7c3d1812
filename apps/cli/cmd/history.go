package cmd

import (
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/rq/packages/core/config"
	"github.com/abdul-hamid-achik/rq/packages/history"
	"github.com/abdul-hamid-achik/rq/packages/output"
	"github.com/spf13/cobra"
)

var (
	historyLimitFlag   int
	historyVerboseFlag bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently sent requests",
	Long: `Show requests recorded by rq run, newest first. History is kept in
~/.rq/history.db unless historyPath is set in the config file.

Examples:
  rq history
  rq history --limit 50
  rq history show 3f2a9c1e
  rq history clear`,
	Args: cobra.NoArgs,
	RunE: historyCommand,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one history entry (an ID prefix is enough)",
	Args:  cobra.ExactArgs(1),
	RunE:  historyShowCommand,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every history entry",
	Args:  cobra.NoArgs,
	RunE:  historyClearCommand,
}

func init() {
	historyCmd.PersistentFlags().StringVar(&configFlag, "config", getEnvString("RQ_CONFIG", ""), "Path to config file (env: RQ_CONFIG)")
	historyCmd.Flags().IntVarP(&historyLimitFlag, "limit", "l", 20, "Number of entries to show")
	historyCmd.Flags().BoolVarP(&historyVerboseFlag, "verbose", "v", false, "Show transport errors")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyClearCmd)
}

func withHistory(fn func(*history.Store) error) error {
	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return &configError{err}
	}
	store, err := openHistory(fileConfig)
	if err != nil {
		return &configError{err}
	}
	defer store.Close()
	return fn(store)
}

func historyCommand(cmd *cobra.Command, args []string) error {
	if historyLimitFlag < 1 {
		return &usageError{fmt.Errorf("--limit must be 1 or greater")}
	}
	return withHistory(func(store *history.Store) error {
		entries, err := store.Recent(cmd.Context(), historyLimitFlag)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No requests recorded")
			return nil
		}
		output.NewConsoleFormatter(
			output.WithWriter(cmd.OutOrStdout()),
			output.WithVerbose(historyVerboseFlag),
		).FormatHistory(entries)
		return nil
	})
}

func historyShowCommand(cmd *cobra.Command, args []string) error {
	return withHistory(func(store *history.Store) error {
		e, err := store.Get(cmd.Context(), args[0])
		if errors.Is(err, history.ErrNotFound) {
			return &usageError{err}
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ID:       %s\n", e.ID)
		fmt.Fprintf(out, "Time:     %s\n", e.Time.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "File:     %s\n", e.File)
		if e.Name != "" {
			fmt.Fprintf(out, "Name:     %s\n", e.Name)
		}
		fmt.Fprintf(out, "Request:  %s %s\n", e.Method, e.URL)
		if e.Error != "" {
			fmt.Fprintf(out, "Error:    %s\n", e.Error)
		} else {
			fmt.Fprintf(out, "Status:   %d\n", e.Status)
		}
		fmt.Fprintf(out, "Duration: %dms\n", e.DurationMs)
		return nil
	})
}

func historyClearCommand(cmd *cobra.Command, args []string) error {
	return withHistory(func(store *history.Store) error {
		n, err := store.Clear(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d entries\n", n)
		return nil
	})
}
