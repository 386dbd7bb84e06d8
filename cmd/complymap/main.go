// Package main provides the complymap binary entry point.
// Complymap maps repository artifacts to NIST 800-53r5 controls and
// emits OSCAL System Security Plans and Assessment Results.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	// Register LLM providers via init()
	_ "github.com/complymap/complymap/llm/providers"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "complymap"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	app := &appOptions{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Compliance mapping and OSCAL document generation",
		Long: `Complymap scans a repository, maps artifacts to NIST 800-53r5
controls through semantic classification, harvests validated evidence,
and emits OSCAL-conformant System Security Plans and Assessment
Results.

Warnings and recovered errors print to standard error; with --strict
they also turn the exit code non-zero. A document failing schema
validation always exits non-zero.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&app.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&app.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&app.strict, "strict", false, "Treat warnings as failures")

	cmd.AddCommand(generateSSPCmd(app))
	cmd.AddCommand(harvestEvidenceCmd(app))
	cmd.AddCommand(validateControlsCmd(app))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}
