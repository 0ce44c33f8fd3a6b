package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/shorts-planner/internal/config"
	"github.com/jonathan/shorts-planner/internal/llm"
)

var modelsAPIKey string

var modelsCommand = &cobra.Command{
	Use:   "models",
	Short: "List generation-capable models for the configured credential",
	Long:  `Queries the backend's capability listing and prints usable model identifiers in the order the pipeline would try them.`,
	RunE:  runModelsCmd,
}

func init() {
	modelsCommand.Flags().StringVar(&modelsAPIKey, "api-key", "", "Gemini API key (optional, defaults to GEMINI_API_KEY env var)")
	rootCmd.AddCommand(modelsCommand)
}

func runModelsCmd(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	apiKey := modelsAPIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	client, err := llm.NewGeminiClient(ctx, apiKey)
	if err != nil {
		return err
	}
	defer client.Close() //nolint:errcheck

	available, err := llm.NewDirectory(client).UsableModels(ctx)
	if err != nil {
		return err
	}

	for _, m := range llm.Prioritize(available, config.PreferredModels) {
		fmt.Println(m)
	}
	return nil
}
