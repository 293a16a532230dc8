package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/benvon/saas-core/internal/config"
)

// NewConfigCmd creates the config command.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved verification configuration",
		Long:  "Resolve configuration from the environment and print it as YAML. Credential material is never printed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			view := struct {
				ProjectID            string `yaml:"project_id"`
				Issuer               string `yaml:"issuer"`
				Audience             string `yaml:"audience"`
				RequireEmailVerified bool   `yaml:"require_email_verified"`
				KeyCacheTTLSeconds   int    `yaml:"key_cache_ttl_seconds"`
				LeewaySeconds        int    `yaml:"leeway_seconds"`
				KeysEndpoint         string `yaml:"keys_endpoint"`
			}{
				ProjectID:            cfg.ProjectID,
				Issuer:               cfg.IssuerURL(),
				Audience:             cfg.Audience,
				RequireEmailVerified: cfg.RequireEmailVerified,
				KeyCacheTTLSeconds:   int(cfg.KeyCacheTTL.Seconds()),
				LeewaySeconds:        int(cfg.Leeway.Seconds()),
				KeysEndpoint:         cfg.KeysEndpoint,
			}

			out, err := yaml.Marshal(view)
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}

	return cmd
}
