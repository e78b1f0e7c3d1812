package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/rq/packages/core/config"
	"github.com/abdul-hamid-achik/rq/packages/core/parser"
	"github.com/abdul-hamid-achik/rq/packages/core/template"
	"github.com/abdul-hamid-achik/rq/packages/output"
	"github.com/spf13/cobra"
)

var varsResolveFlag bool

var varsCmd = &cobra.Command{
	Use:   "vars [file]",
	Short: "Show the variables a run would use",
	Long: `Show the variable table after merging every source, lowest precedence
first: the request file, .env files, RQ_VAR_* environment variables and
--var overrides. References to other variables are shown unresolved.

Examples:
  rq vars api.http
  rq vars api.http --var host=localhost:8080
  rq vars api.http --resolve
  rq vars`,
	Args: cobra.MaximumNArgs(1),
	RunE: varsCommand,
}

func init() {
	varsCmd.Flags().BoolVar(&varsResolveFlag, "resolve", false, "Show filled values instead of templates")
	varsCmd.Flags().StringArrayVar(&varFlags, "var", nil, "Set a variable (name=value, repeatable)")
	varsCmd.Flags().StringArrayVar(&envFileFlags, "env-file", envList("RQ_ENV_FILE"), "Path to .env file for variables (repeatable) (env: RQ_ENV_FILE)")
	varsCmd.Flags().StringVar(&configFlag, "config", getEnvString("RQ_CONFIG", ""), "Path to config file (env: RQ_CONFIG)")
}

func varsCommand(cmd *cobra.Command, args []string) error {
	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return &configError{err}
	}

	sources, err := loadSources(fileConfig)
	if err != nil {
		return err
	}

	var file *parser.File
	if len(args) == 1 {
		file, err = parser.ParseFile(args[0])
		if err != nil {
			return err
		}
		sources.File = file.Variables
	}

	vars, err := sources.Merge()
	if err != nil {
		return &configError{err}
	}

	formatter := output.NewConsoleFormatter(
		output.WithWriter(cmd.OutOrStdout()),
		output.WithNoColor(noColorFlag || fileConfig.GetNoColor()),
	)
	switch {
	case len(vars) == 0:
		fmt.Fprintln(cmd.OutOrStdout(), "No variables defined")
	case varsResolveFlag:
		for _, name := range vars.Names() {
			fmt.Fprintf(cmd.OutOrStdout(), "@%s = %s\n", name, resolvedValue(vars, name))
		}
	default:
		formatter.FormatVariables(vars)
	}

	if file != nil {
		formatter.FormatUndefined(args[0], file.Undefined(vars))
	}
	return nil
}

// resolvedValue fills one variable for display; errors are shown inline.
func resolvedValue(vars template.Vars, name string) string {
	v, err := vars[name].Fill(vars)
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return v
}
