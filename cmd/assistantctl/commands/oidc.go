package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/project-assistant/internal/config"
	"github.com/benvon/project-assistant/internal/services/oidc"
	"github.com/spf13/cobra"
)

// NewOIDCTestCmd creates the oidc-test command
func NewOIDCTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oidc-test",
		Short: "Test OIDC configuration",
		Long:  "Resolve the configured issuer's endpoints and fetch its signing keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if !cfg.OIDCEnabled() {
				return fmt.Errorf("OIDC_ISSUER and OIDC_JWKS_URL must be set")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			return testOIDC(ctx, cmd, oidc.Config{
				Issuer:      cfg.OIDCIssuer,
				JWKSURL:     cfg.OIDCJWKSURL,
				ClientID:    cfg.OIDCClientID,
				RedirectURI: cfg.OIDCRedirectURI,
			})
		},
	}

	return cmd
}

func testOIDC(ctx context.Context, cmd *cobra.Command, cfg oidc.Config) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Testing OIDC configuration for issuer: %s\n", cfg.Issuer)

	login, err := oidc.NewProvider(cfg, nil).LoginConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve endpoints: %w", err)
	}
	fmt.Fprintf(out, "  Authorization endpoint: %s\n", login.AuthorizationEndpoint)
	fmt.Fprintf(out, "  Token endpoint: %s\n", login.TokenEndpoint)

	fmt.Fprintf(out, "\nTesting JWKS endpoint: %s\n", cfg.JWKSURL)
	keys, err := oidc.NewJWKSManager(nil, 0).GetJWKS(ctx, cfg.JWKSURL)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	fmt.Fprintf(out, "✓ JWKS endpoint returned %d keys\n", keys.Len())

	fmt.Fprintln(out, "\n✓ OIDC configuration test passed")
	return nil
}
