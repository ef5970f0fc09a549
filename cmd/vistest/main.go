package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/v0xg/vistest/internal/browser"
	"github.com/v0xg/vistest/internal/engine"
	"github.com/v0xg/vistest/internal/oracle"
	"github.com/v0xg/vistest/internal/parser"
	"github.com/v0xg/vistest/internal/report"
	"github.com/v0xg/vistest/internal/run"
)

var (
	scenarioFile string
	provider     string
	model        string
	headless     bool
	reportPath   string
	htmlReport   string
	artifactDir  string
	retries      int
	profile      string
	verbose      bool
)

func main() {
	// Load .env file if present (silently ignore if not found)
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "vistest [scenario]",
		Short: "Run browser test scenarios grounded on screenshots instead of selectors",
		Long: `vistest parses a natural-language test scenario into ordered steps and
drives a browser through them. Elements are located visually: a vision
model is asked for a bounding box and a selector against a viewport
screenshot, the selector is tried first, and coordinate clicks only
happen behind a DOM guard.

Example:
  vistest 'Open http://localhost:8000. Click the Login button. Fill the username field with "user".'`,
		Args:         cobra.MaximumNArgs(1),
		RunE:         runScenario,
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVarP(&scenarioFile, "scenario-file", "f", "", "File containing the test scenario")
	rootCmd.Flags().StringVar(&provider, "provider", "", "Vision provider: claude, openai (default: from env or claude)")
	rootCmd.Flags().StringVar(&model, "model", "", "Specific model override")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "Run the browser headless")
	rootCmd.Flags().StringVarP(&reportPath, "report", "r", "", "Path to save the JSON test report")
	rootCmd.Flags().StringVar(&htmlReport, "html-report", "", "Path to save the HTML test report")
	rootCmd.Flags().StringVar(&artifactDir, "artifacts", "artifacts", "Directory for per-step screenshots")
	rootCmd.Flags().IntVar(&retries, "retries", 2, "Retry count for flaky locate/interaction failures")
	rootCmd.Flags().StringVar(&profile, "profile", "", "Chrome/Chromium profile directory for authenticated sessions")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed progress")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := loadScenario(args)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	selectedProvider := provider
	if selectedProvider == "" {
		selectedProvider = os.Getenv("VISTEST_DEFAULT_PROVIDER")
		if selectedProvider == "" {
			selectedProvider = "claude"
		}
	}

	oracleClient, err := oracle.New(selectedProvider, model)
	if err != nil {
		return fmt.Errorf("oracle init failed: %w", err)
	}
	completer, _ := oracleClient.(oracle.Completer)

	fmt.Printf("→ Parsing scenario... ")
	testRun, err := parser.New(completer, logger).Parse(ctx, scenario)
	if err != nil {
		fmt.Println("failed")
		return fmt.Errorf("scenario parse failed: %w", err)
	}
	fmt.Printf("done (%d actions)\n", len(testRun.Actions))
	for i, act := range testRun.Actions {
		fmt.Printf("  [%d] %s: %s\n", i+1, act.Kind, act.Description)
	}

	eng := engine.New(engine.Options{
		Sessions: func(ctx context.Context) (browser.Surface, error) {
			return browser.NewSession(ctx, browser.Options{
				Headless:   headless,
				ProfileDir: profile,
				Logger:     logger,
			})
		},
		Oracle:      oracleClient,
		Retries:     retries,
		Backoff:     500 * time.Millisecond,
		ArtifactDir: artifactDir,
		Logger:      logger,
	})

	fmt.Printf("→ Running %s (%d steps)...\n", testRun.Name, len(testRun.Actions))
	if err := eng.Run(ctx, testRun); err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}

	rep := testRun.Report()
	if reportPath != "" {
		if err := report.WriteJSON(rep, reportPath); err != nil {
			return err
		}
		logger.Info("test report saved", "path", reportPath)
	}
	if htmlReport != "" {
		if err := report.WriteHTML(rep, htmlReport); err != nil {
			return err
		}
		logger.Info("HTML report saved", "path", htmlReport)
	}

	if testRun.Status == run.StatusPassed {
		fmt.Printf("✓ PASSED (%s)\n", rep.Progress)
		return nil
	}
	fmt.Printf("✗ FAILED (%s): %s\n", rep.Progress, testRun.Error)
	return fmt.Errorf("test failed: %s", testRun.Error)
}

func loadScenario(args []string) (string, error) {
	if len(args) == 1 && args[0] != "" {
		return args[0], nil
	}
	if scenarioFile != "" {
		data, err := os.ReadFile(scenarioFile)
		if err != nil {
			return "", fmt.Errorf("read scenario file: %w", err)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("provide a scenario argument or --scenario-file")
}
