// Package main provides the entry point for the shorts planner CLI and server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shorts_agent",
	Short: "Creative brief generator for short-form video",
	Long:  "Shorts planner turns a reference YouTube video into a ready-to-shoot creative brief (titles, video prompts, scripts, tags) and appends it to a planning spreadsheet.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
