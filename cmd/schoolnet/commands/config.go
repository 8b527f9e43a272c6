package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gradecam/schoolnet-client/internal/constants"
	"github.com/gradecam/schoolnet-client/pkg/schoolnet"
)

// configKeys are the settings shown and accepted by the config command.
var configKeys = []string{
	"url", "client_id", "client_secret", "scope", "output", "log_level", "debug", "retry_max",
	"cache.type", "cache.max_size", "cache.nats_url", "cache.bucket", "cache.ttl",
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the Schoolnet CLI configuration file",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective configuration from flags, environment and config file. The client secret is masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := schoolnet.Record{}

			for _, key := range configKeys {
				value := viper.GetString(key)
				if key == "client_secret" {
					value = maskSecret(value)
				}

				settings[key] = value
			}

			if used := viper.ConfigFileUsed(); used != "" {
				settings["config_file"] = used
			}

			return Output(cmd.OutOrStdout(), settings)
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value and save it to the config file. Keys: " + strings.Join(configKeys, ", "),
		Args:  cobra.ExactArgs(2), //nolint:mnd // key and value
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			if !slices.Contains(configKeys, key) {
				return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
			}

			viper.Set(key, value)

			path, err := configFilePath()
			if err != nil {
				return err
			}

			err = viper.WriteConfigAs(path)
			if err != nil {
				return fmt.Errorf("saving config to %s: %w", path, err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s in %s\n", key, path)

			return nil
		},
	}
}

// configFilePath returns the file in use, or $HOME/.schoolnet/config.yml.
func configFilePath() (string, error) {
	if used := viper.ConfigFileUsed(); used != "" {
		return used, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}

	dir := filepath.Join(home, constants.ConfigDirName)

	err = os.MkdirAll(dir, constants.ConfigDirPerm)
	if err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	return filepath.Join(dir, constants.ConfigFileName), nil
}
