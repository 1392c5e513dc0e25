// If you are AI: This file builds the cobra command tree for the telemetryrelay binary.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// DefaultRelayURL is the relay address used by client commands when --url is not given.
const DefaultRelayURL = "ws://localhost:3000"

// NewRoot constructs the root command.
// It registers the serve, publish, tail and version commands.
func NewRoot(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "telemetryrelay",
		Short:         "Real-time telemetry relay",
		Long:          "telemetryrelay fans out producer telemetry to live consumers over websockets, with the latest value sent on attach.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCommand(version),
		newPublishCommand(),
		newTailCommand(),
		newVersionCommand(version),
	)
	return root
}

// newVersionCommand constructs the `version` command.
func newVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version)
			return err
		},
	}
}

// addStreamFlags registers the flags shared by client commands.
func addStreamFlags(cmd *cobra.Command) {
	cmd.Flags().String("url", DefaultRelayURL, "Relay base URL (ws, wss, http or https)")
	cmd.Flags().String("kind", "", "Stream kind (core-motion or pad-coordinates)")
	cmd.Flags().String("producer", "", "Producer id")
	cmd.Flags().Duration("write-timeout", 0, "Deadline for each outbound frame (0 uses the default)")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("producer")
}
