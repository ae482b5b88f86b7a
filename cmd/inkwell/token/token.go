// Package tokencmder provides the token command for minting session tokens
// directly from the configured signing secret.
package tokencmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkwellco/inkwell/pkg/auth"
	"github.com/inkwellco/inkwell/pkg/config"
)

const tokenLongDesc string = `Mint a session token locally.

Signs a session token with the auth.secret from config.toml, without going
through the server's login endpoint. Useful for scripting against a running
server, or for issuing yourself a token when no identity perimeter is set up.

The server must be configured with the same auth.secret for the token to
verify.

Examples:
  inkwell token
  inkwell token --config-dir /etc/inkwell`

const tokenShortDesc string = "Mint a session token locally"

func NewTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: tokenShortDesc,
		Long:  tokenLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runToken(configDir)
		},
	}

	return cmd
}

func runToken(configDir string) error {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cfg, err := cfger.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Auth.Secret == "" {
		return fmt.Errorf("auth.secret is not configured; set it with: inkwell config set auth.secret <secret>")
	}

	tokens, err := auth.NewTokenService(cfg.Auth.Secret, auth.WithSubject(cfg.Auth.Subject))
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	token, err := tokens.Issue()
	if err != nil {
		return fmt.Errorf("issuing token: %w", err)
	}

	fmt.Println(token)
	return nil
}
