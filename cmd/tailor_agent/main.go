// Package main provides the entry point for the resume tailor agent.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tailor_agent",
	Short: "Job application pipeline and archive",
	Long:  "Tailor Agent turns scraped job postings into tailored LaTeX application documents and keeps an idempotent, URL-keyed archive of every application.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
