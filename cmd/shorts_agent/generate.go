package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/shorts-planner/internal/brief"
	"github.com/jonathan/shorts-planner/internal/config"
	"github.com/jonathan/shorts-planner/internal/llm"
	"github.com/jonathan/shorts-planner/internal/media"
	"github.com/jonathan/shorts-planner/internal/observability"
	"github.com/jonathan/shorts-planner/internal/pipeline"
	"github.com/jonathan/shorts-planner/internal/sink"
	"github.com/jonathan/shorts-planner/internal/store"
)

var generateCommand = &cobra.Command{
	Use:   "generate",
	Short: "Generate a creative brief from a reference video",
	Long: `Looks up a reference video, prompts a generation model for a structured creative brief, applies the tag policy, and appends the result to the planning spreadsheet.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runGenerateCmd,
}

var (
	genConfigPath   string
	genVideoURL     string
	genQuery        string
	genModels       []string
	genMaxAttempts  int
	genBackoffSecs  int
	genTemperature  float64
	genVariant      string
	genAPIKey       string
	genYouTubeKey   string
	genCredential   string
	genSpreadsheet  string
	genSheetName    string
	genDatabaseURL  string
	genDryRun       bool
	genVerbose      bool
)

func init() {
	// Config file flag (processed first)
	generateCommand.Flags().StringVar(&genConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	generateCommand.Flags().StringVarP(&genVideoURL, "video-url", "u", "", "Reference video URL (mutually exclusive with --query)")
	generateCommand.Flags().StringVarP(&genQuery, "query", "q", "", "Free-text search for a reference video (mutually exclusive with --video-url)")
	generateCommand.Flags().StringSliceVar(&genModels, "models", nil, "Static priority-ordered model list (skips capability discovery)")
	generateCommand.Flags().IntVar(&genMaxAttempts, "max-attempts", 0, "Retries per model on rate limiting")
	generateCommand.Flags().IntVar(&genBackoffSecs, "backoff", 0, "Seconds to wait between retries")
	generateCommand.Flags().Float64Var(&genTemperature, "temperature", 0, "Sampling temperature (0-2)")
	generateCommand.Flags().StringVar(&genVariant, "variant", "", "Output contract: \"single\" or \"dual\" engine prompts")
	generateCommand.Flags().BoolVar(&genDryRun, "dry-run", false, "Print the brief without appending it to the spreadsheet")
	generateCommand.Flags().BoolVarP(&genVerbose, "verbose", "v", false, "Print detailed progress information")

	// Credentials default to environment variables
	generateCommand.Flags().StringVar(&genAPIKey, "api-key", "", "Gemini API key (optional, defaults to GEMINI_API_KEY env var)")
	generateCommand.Flags().StringVar(&genYouTubeKey, "youtube-key", "", "YouTube Data API key (optional, defaults to YOUTUBE_API_KEY env var)")
	generateCommand.Flags().StringVar(&genCredential, "sheets-credential", "", "Service account JSON for the sheet sink (optional, defaults to SHEETS_CREDENTIALS_FILE env var)")
	generateCommand.Flags().StringVar(&genSpreadsheet, "spreadsheet-id", "", "Target spreadsheet ID (optional, defaults to SPREADSHEET_ID env var)")
	generateCommand.Flags().StringVar(&genSheetName, "sheet-name", "", "Target sheet tab (default Sheet1)")
	generateCommand.Flags().StringVar(&genDatabaseURL, "db-url", "", "PostgreSQL URL for run history (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(generateCommand)
}

func runGenerateCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	// Step 1: Load config file if provided
	var cfg config.Config
	if genConfigPath != "" {
		loadedCfg, err := config.LoadConfig(genConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := loadedCfg.Validate(); err != nil {
			return err
		}
		cfg = *loadedCfg
		if genVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", genConfigPath)
		}
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("video-url") {
		cfg.VideoURL = genVideoURL
	}
	if cmd.Flags().Changed("query") {
		cfg.Query = genQuery
	}
	if cmd.Flags().Changed("models") {
		cfg.Models = genModels
	}
	if cmd.Flags().Changed("max-attempts") {
		cfg.MaxAttempts = genMaxAttempts
	}
	if cmd.Flags().Changed("backoff") {
		cfg.BackoffSeconds = genBackoffSecs
	}
	if cmd.Flags().Changed("temperature") {
		cfg.Temperature = &genTemperature
	}
	if cmd.Flags().Changed("variant") {
		cfg.Variant = genVariant
	}
	if cmd.Flags().Changed("api-key") {
		cfg.GeminiAPIKey = genAPIKey
	}
	if cmd.Flags().Changed("youtube-key") {
		cfg.YouTubeAPIKey = genYouTubeKey
	}
	if cmd.Flags().Changed("sheets-credential") {
		cfg.SheetsCredential = genCredential
	}
	if cmd.Flags().Changed("spreadsheet-id") {
		cfg.SpreadsheetID = genSpreadsheet
	}
	if cmd.Flags().Changed("sheet-name") {
		cfg.SheetName = genSheetName
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = genDatabaseURL
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = genVerbose
	}

	// Step 3: Environment fallbacks for credentials
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.YouTubeAPIKey == "" {
		cfg.YouTubeAPIKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if cfg.SheetsCredential == "" {
		cfg.SheetsCredential = os.Getenv("SHEETS_CREDENTIALS_FILE")
	}
	if cfg.SpreadsheetID == "" {
		cfg.SpreadsheetID = os.Getenv("SPREADSHEET_ID")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	// Step 4: Validate required fields
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.VideoURL == "" && cfg.Query == "" {
		return fmt.Errorf("either --video-url or --query must be provided (via flag or config)")
	}
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}
	if cfg.YouTubeAPIKey == "" {
		return fmt.Errorf("YOUTUBE_API_KEY environment variable or --youtube-key flag is required")
	}

	return generate(ctx, cfg, genDryRun)
}

// generate runs the pipeline once with a fully merged configuration.
func generate(ctx context.Context, cfg config.Config, dryRun bool) error {
	printer := observability.NewPrinter(os.Stdout)

	var clientOpts []llm.Option
	if cfg.Temperature != nil {
		clientOpts = append(clientOpts, llm.WithTemperature(float32(*cfg.Temperature)))
	}
	client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, clientOpts...)
	if err != nil {
		return err
	}
	defer client.Close() //nolint:errcheck

	models, err := candidateModels(ctx, client, cfg)
	if err != nil {
		return err
	}
	if cfg.Verbose {
		fmt.Printf("Candidate models: %v\n", models)
	}

	source, err := resolveSource(ctx, cfg)
	if err != nil {
		return err
	}
	if cfg.Verbose {
		printer.PrintSourceMedia(source)
	}

	// Optional run history
	var (
		runStore *store.Store
		runID    = uuid.Nil
	)
	if cfg.DatabaseURL != "" {
		runStore, err = store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			// History is best-effort; the pipeline still runs without it.
			fmt.Fprintf(os.Stderr, "Warning: run history unavailable: %v\n", err)
		} else {
			defer runStore.Close()
			if err := runStore.Migrate(ctx); err != nil {
				return err
			}
			if runID, err = runStore.CreateRun(ctx, source.ID); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to record run: %v\n", err)
				runID = uuid.Nil
			}
		}
	}

	opts := pipeline.Options{
		Models:              models,
		MaxAttemptsPerModel: cfg.MaxAttempts,
		Backoff:             time.Duration(cfg.BackoffSeconds) * time.Second,
		Variant:             brief.Variant(cfg.Variant),
	}
	if cfg.Verbose {
		opts.OnProgress = func(ev pipeline.ProgressEvent) {
			fmt.Println(observability.ProgressLine(ev))
		}
	}

	orch := pipeline.New(client, opts)
	result, err := orch.Run(ctx, *source)
	if err != nil {
		if runStore != nil && runID != uuid.Nil {
			_ = runStore.CompleteRun(ctx, runID, store.StatusFailed, "")
		}
		var exhausted *pipeline.ExhaustedError
		if errors.As(err, &exhausted) {
			printer.PrintTrail(exhausted.Trail)
		}
		return err
	}

	if cfg.Verbose {
		printer.PrintBrief(result.Brief)
		fmt.Printf("Model: %s  Tokens: %d in / %d out / %d total\n",
			result.Model, result.Usage.Input, result.Usage.Output, result.Usage.Total)
	} else {
		out, _ := json.MarshalIndent(result.Brief, "", "  ")
		fmt.Println(string(out))
	}

	if runStore != nil && runID != uuid.Nil {
		if err := runStore.SaveBrief(ctx, runID, result.Brief); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save brief history: %v\n", err)
		}
		_ = runStore.CompleteRun(ctx, runID, store.StatusSucceeded, result.Model)
	}

	if dryRun {
		fmt.Println("Dry run: skipping spreadsheet append")
		return nil
	}
	if cfg.SpreadsheetID == "" {
		if cfg.Verbose {
			fmt.Println("No spreadsheet configured: skipping append")
		}
		return nil
	}

	sheet, err := sink.NewSheetsSink(ctx, cfg.SheetsCredential, cfg.SpreadsheetID, cfg.SheetName)
	if err != nil {
		return err
	}
	row := sink.BuildRow(result.Brief, *source, time.Now())
	if err := sheet.Append(ctx, row); err != nil {
		return err
	}
	fmt.Println("Appended brief to spreadsheet")
	return nil
}

// candidateModels builds the priority-ordered model list: the configured
// static list when present, otherwise capability discovery reordered by the
// preferred models.
func candidateModels(ctx context.Context, client *llm.GeminiClient, cfg config.Config) ([]string, error) {
	if len(cfg.Models) > 0 {
		return cfg.Models, nil
	}
	available, err := llm.NewDirectory(client).UsableModels(ctx)
	if err != nil {
		return nil, err
	}
	return llm.Prioritize(available, config.PreferredModels), nil
}

// resolveSource finds the reference video, either directly by URL or as the
// top result of a search.
func resolveSource(ctx context.Context, cfg config.Config) (*brief.SourceMedia, error) {
	lookup, err := media.NewLookup(ctx, cfg.YouTubeAPIKey)
	if err != nil {
		return nil, err
	}

	if cfg.VideoURL != "" {
		id := media.ExtractVideoID(cfg.VideoURL)
		if id == "" {
			return nil, fmt.Errorf("no video ID found in URL %q", cfg.VideoURL)
		}
		return lookup.LookupVideo(ctx, id)
	}

	results, err := lookup.Search(ctx, cfg.Query, 1)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no video found for query %q", cfg.Query)
	}
	return &results[0], nil
}
