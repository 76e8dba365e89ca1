package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/campopack/campopack-web/internal/relay"
)

// NewRelayCommand builds `relay ping`.
func NewRelayCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Operate on the form relay",
	}
	cmd.AddCommand(newRelayPingCommand())
	return cmd
}

func newRelayPingCommand() *cobra.Command {
	var src sourceFlags
	var endpoint string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the relay endpoint answers",
		Long: `Issue a GET against the relay endpoint. The endpoint is taken from --url,
then RELAY_URL, then the site content. Any status below 500 counts as reachable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := resolveEndpoint(endpoint, &src)
			if err != nil {
				return err
			}
			client, err := relay.NewClient(target, timeout)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			start := time.Now()
			if err := client.Ping(ctx); err != nil {
				return fmt.Errorf("relay %s unreachable: %w", target, err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "relay %s reachable in %s\n", target, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	src.bind(cmd)
	cmd.Flags().StringVar(&endpoint, "url", "", "relay endpoint to check")
	cmd.Flags().DurationVar(&timeout, "timeout", relay.DefaultTimeout, "request timeout")
	return cmd
}

func resolveEndpoint(flagURL string, src *sourceFlags) (string, error) {
	if flagURL != "" {
		return flagURL, nil
	}
	if env := os.Getenv("RELAY_URL"); env != "" {
		return env, nil
	}
	site, err := src.load()
	if err != nil {
		return "", err
	}
	return site.Relay.URL, nil
}
