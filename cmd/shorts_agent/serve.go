package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/shorts-planner/internal/config"
	"github.com/jonathan/shorts-planner/internal/llm"
	"github.com/jonathan/shorts-planner/internal/media"
	"github.com/jonathan/shorts-planner/internal/server"
	"github.com/jonathan/shorts-planner/internal/sink"
	"github.com/jonathan/shorts-planner/internal/store"
)

var (
	servePort    int
	serveModels  []string
	serveBackoff int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for generating creative briefs.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringSliceVar(&serveModels, "models", nil, "Static priority-ordered model list (skips capability discovery)")
	serveCmd.Flags().IntVar(&serveBackoff, "backoff", 0, "Seconds to wait between retries")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}
	youtubeKey := os.Getenv("YOUTUBE_API_KEY")
	if youtubeKey == "" {
		return fmt.Errorf("YOUTUBE_API_KEY environment variable is required")
	}

	client, err := llm.NewGeminiClient(ctx, apiKey)
	if err != nil {
		return err
	}
	defer client.Close() //nolint:errcheck

	lookup, err := media.NewLookup(ctx, youtubeKey)
	if err != nil {
		return err
	}

	deps := server.Deps{
		Client:    client,
		Lookup:    lookup,
		Models:    serveModels,
		Preferred: config.PreferredModels,
		Backoff:   time.Duration(serveBackoff) * time.Second,
	}
	if len(serveModels) == 0 {
		deps.Directory = llm.NewDirectory(client)
	}

	// Sheet sink and run history are optional; the server runs without them.
	if spreadsheetID := os.Getenv("SPREADSHEET_ID"); spreadsheetID != "" {
		sheet, err := sink.NewSheetsSink(ctx, os.Getenv("SHEETS_CREDENTIALS_FILE"), spreadsheetID, os.Getenv("SHEET_NAME"))
		if err != nil {
			return fmt.Errorf("failed to create sheet sink: %w", err)
		}
		deps.Sink = sheet
	}
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		st, err := store.Connect(ctx, databaseURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: run history unavailable: %v\n", err)
		} else {
			if err := st.Migrate(ctx); err != nil {
				return err
			}
			deps.Store = st
		}
	}

	srv, err := server.New(server.Config{Port: servePort}, deps)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
