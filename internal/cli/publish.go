// If you are AI: This file implements the `publish` and `tail` client commands.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"telemetryrelay/internal/client"
	"telemetryrelay/internal/core/transport"
)

// newPublishCommand constructs the `publish` command.
// Each stdin line becomes one text frame.
func newPublishCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish stdin lines to a stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			streamURL, opts, err := streamTarget(cmd, client.RouteIngest)
			if err != nil {
				return err
			}
			perSecond, _ := cmd.Flags().GetFloat64("rate")

			var limiter *rate.Limiter
			if perSecond > 0 {
				limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
			}

			sent, err := client.Publish(cmd.Context(), streamURL, cmd.InOrStdin(), limiter, opts)
			fmt.Fprintf(cmd.ErrOrStderr(), "published %d frames\n", sent)
			return err
		},
	}
	addStreamFlags(cmd)
	cmd.Flags().Float64("rate", 0, "Maximum frames per second (0 = unlimited)")
	return cmd
}

// newTailCommand constructs the `tail` command.
func newTailCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print every value published to a stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			streamURL, opts, err := streamTarget(cmd, client.RouteSubscribe)
			if err != nil {
				return err
			}
			return client.Tail(cmd.Context(), streamURL, cmd.OutOrStdout(), opts)
		},
	}
	addStreamFlags(cmd)
	return cmd
}

// streamTarget resolves the stream URL and transport options from flags.
func streamTarget(cmd *cobra.Command, route client.Route) (string, transport.Options, error) {
	base, _ := cmd.Flags().GetString("url")
	kind, _ := cmd.Flags().GetString("kind")
	producer, _ := cmd.Flags().GetString("producer")
	writeTimeout, _ := cmd.Flags().GetDuration("write-timeout")

	streamURL, err := client.StreamURL(base, route, kind, producer)
	if err != nil {
		return "", transport.Options{}, fmt.Errorf("invalid stream: %w", err)
	}
	return streamURL, transport.Options{WriteTimeout: writeTimeout}, nil
}
