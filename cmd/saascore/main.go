package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/benvon/saas-core/cmd/saascore/commands"
)

func main() {
	_ = godotenv.Load()

	var rootCmd = &cobra.Command{
		Use:   "saascore",
		Short: "Operator tool for saas-core token verification",
		Long:  "CLI tool for inspecting signing keys, verifying tokens, and checking configuration",
	}

	rootCmd.AddCommand(commands.NewKeysCmd())
	rootCmd.AddCommand(commands.NewVerifyCmd())
	rootCmd.AddCommand(commands.NewConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
