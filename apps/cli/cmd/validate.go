package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/rq/packages/core/config"
	"github.com/abdul-hamid-achik/rq/packages/core/parser"
	"github.com/abdul-hamid-achik/rq/packages/output"
	"github.com/spf13/cobra"
)

var validateStrictFlag bool

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory>...",
	Short: "Check request files for syntax errors",
	Long: `Check request files for syntax errors without sending anything.

With --strict, references to variables that are defined nowhere (not in the
file, a .env file, RQ_VAR_* or --var) are reported as errors.

Examples:
  rq validate api.http
  rq validate ./requests/ --strict`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func init() {
	validateCmd.Flags().BoolVar(&validateStrictFlag, "strict", false, "Fail on references to undefined variables")
	validateCmd.Flags().StringArrayVar(&varFlags, "var", nil, "Set a variable (name=value, repeatable)")
	validateCmd.Flags().StringArrayVar(&envFileFlags, "env-file", envList("RQ_ENV_FILE"), "Path to .env file for variables (repeatable) (env: RQ_ENV_FILE)")
	validateCmd.Flags().StringVar(&configFlag, "config", getEnvString("RQ_CONFIG", ""), "Path to config file (env: RQ_CONFIG)")
}

func validateCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return &usageError{err}
	}

	if len(files) == 0 {
		return &usageError{fmt.Errorf("no .http or .rest files found")}
	}

	formatter := output.NewConsoleFormatter(
		output.WithWriter(cmd.OutOrStdout()),
		output.WithNoColor(noColorFlag),
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

		if validateStrictFlag {
			undefined, err := undefinedVariables(f)
			if err != nil {
				return err
			}
			if len(undefined) > 0 {
				formatter.FormatUndefined(file, undefined)
				if firstErr == nil {
					firstErr = fmt.Errorf("%s: %d undefined variable(s)", file, len(undefined))
				}
				continue
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s (%d requests)\n", file, len(f.Requests))
	}

	if firstErr != nil {
		return &reportedError{fmt.Errorf("validation failed: %w", firstErr)}
	}

	return nil
}

// undefinedVariables lists references in f that no variable source defines.
func undefinedVariables(f *parser.File) ([]string, error) {
	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, &configError{err}
	}
	sources, err := loadSources(fileConfig)
	if err != nil {
		return nil, err
	}
	vars, err := sources.Merge()
	if err != nil {
		return nil, &configError{err}
	}
	return f.Undefined(vars), nil
}
