package commands

import (
	"github.com/spf13/cobra"

	"github.com/gradecam/schoolnet-client/pkg/schoolnet"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display detailed version information about the Schoolnet CLI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Output(cmd.OutOrStdout(), schoolnet.Record{
				"version": version,
				"commit":  commit,
				"built":   date,
			})
		},
	}
}
