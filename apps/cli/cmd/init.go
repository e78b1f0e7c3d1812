package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/rq/packages/core/config"
	"github.com/abdul-hamid-achik/rq/packages/core/parser"
	"github.com/spf13/cobra"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file and an example request file",
	Long: `Create a config file and an example request file in the current directory.

This creates:
  - .rq.yaml       - Configuration file with default settings
  - example.http   - Example request file

Examples:
  rq init
  rq init --force`,
	Args: cobra.NoArgs,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

const exampleRequests = `@host = localhost:8080
@base = http://{{host}}/api

### health
GET {{base}}/health

### createItem
POST {{base}}/items HTTP/1.1
Content-Type: application/json
Authorization: Bearer {{token}}

{
  "name": "example"
}

### search
GET {{base}}/items
  ?q="two words"
  &limit=10
`

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, ".rq.yaml")
	exampleFile := filepath.Join(cwd, "example.http")

	if !forceInit {
		for _, f := range []string{configFile, exampleFile} {
			if _, err := os.Stat(f); err == nil {
				return &usageError{fmt.Errorf("file already exists: %s (use --force to overwrite)", f)}
			}
		}
	}

	cfg := config.DefaultConfig()
	cfg.Headers = map[string]string{"User-Agent": "rq/" + version}
	cfg.Variables = map[string]string{"token": "change-me"}
	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	// The example must stay valid request-file syntax.
	if _, err := parser.Parse(exampleRequests, exampleFile); err != nil {
		return fmt.Errorf("example file: %w", err)
	}
	if err := os.WriteFile(exampleFile, []byte(exampleRequests), 0644); err != nil {
		return fmt.Errorf("failed to create example file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nrq project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'rq run example.http' to send the example requests.\n")

	return nil
}
