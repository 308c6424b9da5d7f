// Package main provides the entry point for the storefront builder service.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "storefront_agent",
	Short: "Storefront onboarding and content-build service",
	Long:  "Storefront agent tracks tenant onboarding facts, recommends next onboarding steps, and builds first-draft storefront pages from stored facts via REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
