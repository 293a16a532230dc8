package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benvon/saas-core/internal/config"
	"github.com/benvon/saas-core/internal/services/auth"
)

// NewVerifyCmd creates the verify command.
func NewVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [token]",
		Short: "Verify an identity token",
		Long:  "Verify a bearer token against the configured project and print the identity record. Reads the token from stdin when no argument is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				scanner := bufio.NewScanner(os.Stdin)
				scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
				if scanner.Scan() {
					token = strings.TrimSpace(scanner.Text())
				}
			}
			token = strings.TrimPrefix(token, "Bearer ")

			verifier := auth.NewVerifier(cfg)
			identity, err := verifier.VerifyUser(context.Background(), token)
			if err != nil {
				if auth.IsEmailNotVerified(err) {
					return fmt.Errorf("token is valid but email is not verified")
				}
				return fmt.Errorf("verification failed (%s): %w", auth.FailureReason(err), err)
			}

			out, err := json.MarshalIndent(identity, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	return cmd
}
