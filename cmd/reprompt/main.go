package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"reprompt/internal/config"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

// Version will be set during the build process using ldflags
var Version = "(dev) v0.0.0"

var (
	verbose      int
	logfile      string
	settingsPath string
)

var rootCmd = &cobra.Command{
	Use:   "reprompt",
	Short: "Ask a language model for one question about what you are writing",
	Long: `reprompt reads the section of a document around the cursor, sends it to a
chat completion model and writes the single question it answers with back
into the document.

Run "reprompt serve" from an editor's language client, or "reprompt generate"
on a file.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logfile != "" {
			commonlog.Configure(verbose, &logfile)
		} else {
			commonlog.Configure(verbose, nil)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "Increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().StringVar(&logfile, "logfile", "", "Write logs to this file instead of stderr")
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "Settings file (default: $XDG_CONFIG_HOME/reprompt/settings.toml)")

	rootCmd.AddCommand(serveCmd, generateCmd, settingsCmd, historyCmd)
}

func resolveSettingsPath() (string, error) {
	if settingsPath != "" {
		return settingsPath, nil
	}
	return config.DefaultPath()
}

// reportedError marks an error the user has already been shown.
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error {
	return e.error
}

func report(w io.Writer, err error) {
	var reported reportedError
	if errors.As(err, &reported) {
		return
	}
	fmt.Fprintf(w, "reprompt: %v\n", err)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		report(os.Stderr, err)
		os.Exit(1)
	}
}
