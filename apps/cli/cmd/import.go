package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/rq/packages/core/parser"
	"github.com/abdul-hamid-achik/rq/packages/curl"
	"github.com/spf13/cobra"
)

var (
	importCommandFlag string
	importOutputFlag  string
	importNoNamesFlag bool
)

var importCmd = &cobra.Command{
	Use:   "import [file|-]",
	Short: "Convert curl commands into a request file",
	Long: `Convert curl commands into request-file syntax. Commands are read from
a file, from standard input ("-" or no argument) or from --command. Long
commands may be continued with a trailing backslash.

Examples:
  rq import -c "curl -X POST https://api.example.com/users -d '{\"name\":\"ada\"}'"
  rq import commands.sh -o api.http
  pbpaste | rq import`,
	Args: cobra.MaximumNArgs(1),
	RunE: importCommand,
}

func init() {
	importCmd.Flags().StringVarP(&importCommandFlag, "command", "c", "", "Convert this curl command instead of reading input")
	importCmd.Flags().StringVarP(&importOutputFlag, "output", "o", "", "Write the request file here (default: stdout)")
	importCmd.Flags().BoolVar(&importNoNamesFlag, "no-names", false, "Do not name requests after their method and path")
}

func importCommand(cmd *cobra.Command, args []string) error {
	converter := curl.NewConverter(curl.WithNames(!importNoNamesFlag))

	var (
		file     *parser.File
		commands []*curl.Command
		err      error
	)
	switch {
	case importCommandFlag != "":
		if len(args) > 0 {
			return &usageError{fmt.Errorf("--command and a file argument are mutually exclusive")}
		}
		file, commands, err = converter.Convert(strings.NewReader(importCommandFlag))
	case len(args) == 0 || args[0] == "-":
		file, commands, err = converter.Convert(cmd.InOrStdin())
	default:
		file, commands, err = converter.ConvertFile(args[0])
	}
	if err != nil {
		return err
	}
	if len(file.Requests) == 0 {
		return &usageError{fmt.Errorf("no curl commands found")}
	}

	for i, c := range commands {
		if c.Insecure {
			warnf("command %d: -k has no per-request form, pass --insecure to rq run", i+1)
		}
		if c.FollowRedirects {
			warnf("command %d: -L is the default, set followRedirects: false in the config to disable", i+1)
		}
	}

	text := parser.RenderFile(file)
	if importOutputFlag == "" {
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	}
	if err := os.WriteFile(importOutputFlag, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", importOutputFlag, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s (%d requests)\n", importOutputFlag, len(file.Requests))
	return nil
}
