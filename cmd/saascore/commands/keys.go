package commands

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/benvon/saas-core/internal/config"
	"github.com/benvon/saas-core/internal/services/auth"
)

// NewKeysCmd creates the keys command.
func NewKeysCmd() *cobra.Command {
	var endpoint string

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Fetch and list the provider's current signing keys",
		Long:  "Fetch the identity provider's public signing keys and list their key ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if endpoint == "" {
				endpoint = cfg.KeysEndpoint
			}

			store := auth.NewKeyStore(endpoint, cfg.KeyCacheTTL)
			keys, err := store.Keys(context.Background())
			if err != nil {
				return fmt.Errorf("failed to fetch signing keys: %w", err)
			}

			kids := make([]string, 0, len(keys))
			for kid := range keys {
				kids = append(kids, kid)
			}
			sort.Strings(kids)

			fmt.Printf("Fetched %d signing key(s) from %s\n\n", len(keys), endpoint)
			for _, kid := range kids {
				fmt.Printf("  %s (%s)\n", kid, keys[kid].KeyType())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Key endpoint override (defaults to configured endpoint)")

	return cmd
}
