package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gradecam/schoolnet-client/pkg/schoolnet"
)

// NewTokenCommand creates the token command.
func NewTokenCommand() *cobra.Command {
	var (
		refresh bool
		show    bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Show the current access token status",
		Long:  "Obtain an access token with the configured client credentials and display its expiration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			if refresh {
				client.InvalidateToken(cmd.Context())
			}

			token, err := client.TokenSource().Token()
			if err != nil {
				return fmt.Errorf("obtaining token: %w", err)
			}

			accessToken := maskSecret(token.AccessToken)
			if show {
				accessToken = token.AccessToken
			}

			status := schoolnet.Record{
				"access_token": accessToken,
				"token_type":   token.TokenType,
				"token_url":    client.TokenURL(),
				"valid":        token.Valid(),
			}

			if !token.Expiry.IsZero() {
				status["expires_at"] = token.Expiry.Format(time.RFC3339)
				status["expires_in"] = time.Until(token.Expiry).Round(time.Second).String()
			}

			return Output(cmd.OutOrStdout(), status)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "discard the cached token and request a new one")
	cmd.Flags().BoolVar(&show, "show", false, "print the raw access token")

	return cmd
}
