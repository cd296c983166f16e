package main

import (
	"fmt"

	"reprompt/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the language server on stdio",
	Long: `Runs reprompt as a language server speaking LSP over stdin/stdout.

The server offers the "reprompt.generate" command and a matching source code
action. Settings are read from the settings file and may be overridden by
initializationOptions or workspace/didChangeConfiguration.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	path, err := resolveSettingsPath()
	if err != nil {
		return err
	}

	srv, err := server.NewServer(server.Options{
		SettingsPath: path,
		Version:      Version,
		Debug:        verbose > 1,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if err := srv.RunStdio(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
