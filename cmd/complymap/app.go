package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/complymap/complymap/catalog"
	"github.com/complymap/complymap/config"
	"github.com/complymap/complymap/pipeline"
)

// appOptions carries the persistent flags shared by every subcommand.
type appOptions struct {
	configPath string
	logLevel   string
	strict     bool
}

// setup resolves logging and configuration for one command invocation.
func (a *appOptions) setup() (*config.Config, *slog.Logger, error) {
	level := slog.LevelInfo
	switch strings.ToLower(a.logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	var cfg *config.Config
	if a.configPath != "" {
		loaded, err := config.LoadFromFile(a.configPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	} else {
		loaded, err := config.NewLoader(logger).Load()
		if err != nil {
			return nil, nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if a.strict {
		cfg.Output.Strict = true
	}
	return cfg, logger, nil
}

// checkFormat rejects unsupported output formats.
func checkFormat(format string) error {
	if format != "json" {
		return fmt.Errorf("unsupported format %q (only json is supported)", format)
	}
	return nil
}

// reportSummary prints warnings and recovered-error counts to stderr
// and returns an error when strict mode promotes them to a failure.
func reportSummary(cfg *config.Config, summary *pipeline.Summary) error {
	for _, w := range summary.Warnings() {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	for kind, count := range summary.Errors() {
		fmt.Fprintf(os.Stderr, "warning: %d recovered %s error(s)\n", count, kind)
	}
	if cfg.Output.Strict && summary.HasWarnings() {
		return fmt.Errorf("run produced warnings and --strict is set")
	}
	return nil
}

func generateSSPCmd(app *appOptions) *cobra.Command {
	var (
		baselineName string
		format       string
	)

	cmd := &cobra.Command{
		Use:   "generate-ssp",
		Short: "Assess a baseline and write OSCAL SSP and assessment results",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			baseline, err := catalog.ParseBaseline(baselineName)
			if err != nil {
				return err
			}

			cfg, logger, err := app.setup()
			if err != nil {
				return err
			}
			pl, err := pipeline.New(cfg, logger)
			if err != nil {
				return err
			}

			outcome, err := pl.Run(cmd.Context(), pl.BaselineControls(baseline))
			if err != nil {
				return err
			}

			written, docErr := pl.WriteDocuments(outcome, baseline)
			for _, path := range written {
				fmt.Printf("wrote %s\n", path)
			}
			if docErr != nil {
				// Schema validation failures always fail the run.
				return docErr
			}
			return reportSummary(cfg, outcome.Summary)
		},
	}

	cmd.Flags().StringVar(&baselineName, "baseline", "moderate", "Control baseline (low, moderate, high)")
	cmd.Flags().StringVar(&format, "format", "json", "Output format")
	return cmd
}

func harvestEvidenceCmd(app *appOptions) *cobra.Command {
	var (
		project string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "harvest-evidence",
		Short: "Scan a project and write the compliance evidence catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}

			cfg, logger, err := app.setup()
			if err != nil {
				return err
			}
			if project != "" {
				abs, err := filepath.Abs(project)
				if err != nil {
					return fmt.Errorf("resolve project path: %w", err)
				}
				info, err := os.Stat(abs)
				if err != nil {
					return fmt.Errorf("stat project path: %w", err)
				}
				if !info.IsDir() {
					return fmt.Errorf("not a directory: %s", abs)
				}
				cfg.Scan.Root = abs
			}

			pl, err := pipeline.New(cfg, logger)
			if err != nil {
				return err
			}

			outcome, err := pl.Run(cmd.Context(), nil)
			if err != nil {
				return err
			}

			path, err := pl.WriteEvidenceCatalog(outcome)
			if err != nil {
				return err
			}
			fmt.Printf("wrote %s (%d items)\n", path, len(outcome.Evidence))
			return reportSummary(cfg, outcome.Summary)
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project root to scan (default: configured scan root)")
	cmd.Flags().StringVar(&format, "format", "json", "Output format")
	return cmd
}

func validateControlsCmd(app *appOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate-controls",
		Short: "Check declared control mappings against the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := app.setup()
			if err != nil {
				return err
			}
			pl, err := pipeline.New(cfg, logger)
			if err != nil {
				return err
			}

			summary, err := pl.ValidateControls(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("scanned %d files, %d declared mappings, %d rejected entries\n",
				summary.FilesScanned,
				summary.MappingsCreated,
				summary.ErrorCount(pipeline.KindConfig))
			return reportSummary(cfg, summary)
		},
	}
	return cmd
}
