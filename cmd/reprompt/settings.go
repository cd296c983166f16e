package main

import (
	"errors"
	"fmt"
	"os"

	"reprompt/internal/config"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

var settingsForce bool

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect or create the settings file",
	Long: `Inspect or create the settings file.

Subcommands:
  path   - Print the settings file location
  show   - Print the effective settings
  init   - Write a settings file with the defaults`,
	RunE: runSettingsShow,
}

var settingsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveSettingsPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a settings file with the defaults",
	Args:  cobra.NoArgs,
	RunE:  runSettingsInit,
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	path, err := resolveSettingsPath()
	if err != nil {
		return err
	}
	settings, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	if settings.APIKey != "" {
		settings.APIKey = "********"
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# %s\n", path)
	if err := toml.NewEncoder(out).Encode(settings); err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if settings.Credential() == "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: no API key configured (set api_key or $%s)\n", settings.APIKeyEnv)
	}
	return nil
}

func runSettingsInit(cmd *cobra.Command, args []string) error {
	path, err := resolveSettingsPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !settingsForce {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := config.SaveFile(path, config.Default()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func init() {
	settingsInitCmd.Flags().BoolVar(&settingsForce, "force", false, "Overwrite an existing settings file")
	settingsCmd.AddCommand(settingsPathCmd, settingsShowCmd, settingsInitCmd)
}
