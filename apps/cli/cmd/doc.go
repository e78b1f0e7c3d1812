// Package cmd implements the rq CLI commands using Cobra.
//
// Available commands:
//   - run: Send the requests in request files
//   - validate: Check request file syntax without sending
//   - list: Display the requests defined in files
//   - vars: Show the merged variable table
//   - history: List and clear recorded requests
//   - import: Convert curl commands into a request file
//   - init: Create a config file and an example request file
//   - version: Show rq version information
//
// Flags fall back to RQ_* environment variables, then to the config file.
package cmd
