package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/rq/packages/core/parser"
	"github.com/abdul-hamid-achik/rq/packages/output"
	"github.com/spf13/cobra"
)

var listRawFlag bool

var listCmd = &cobra.Command{
	Use:   "list <file|directory>...",
	Short: "List the requests in request files",
	Long: `List every request defined in .http or .rest files with its 1-based
index, the value --index expects.

Examples:
  rq list api.http
  rq list ./requests/ --raw`,
	Args: cobra.MinimumNArgs(1),
	RunE: listCommand,
}

func init() {
	listCmd.Flags().BoolVar(&listRawFlag, "raw", false, "Print the requests in request-file syntax")
}

func listCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return &usageError{err}
	}

	if len(files) == 0 {
		return &usageError{fmt.Errorf("no .http or .rest files found")}
	}

	formatter := output.NewConsoleFormatter(
		output.WithWriter(cmd.OutOrStdout()),
		output.WithNoColor(noColorFlag || listRawFlag),
	)

	var firstErr error
	for _, file := range files {
		f, err := parser.ParseFile(file)
		if err != nil {
			formatter.FormatError(err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if len(files) > 1 {
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s:\n", file)
		}
		formatter.FormatRequests(f, listRawFlag)
	}

	if firstErr != nil {
		return &reportedError{firstErr}
	}
	return nil
}
