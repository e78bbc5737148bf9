// Package cli provides the searchlift command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/searchlift/internal/core/ports/driving"
	"github.com/custodia-labs/searchlift/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services wired by main. Any of them may be nil; commands that need a
// missing service report it instead of panicking.
var (
	pipeline        driving.Pipeline
	insightsService driving.InsightsService
	settingsService driving.SettingsService
	scheduler       driving.Scheduler
	metricsHandler  http.Handler
	configWatcher   Watcher

	// setupErr explains why the pipeline services are missing.
	setupErr error
)

// Watcher observes configuration files until ctx is cancelled.
type Watcher interface {
	Watch(ctx context.Context) error
}

// Services holds everything the commands depend on.
type Services struct {
	Pipeline  driving.Pipeline
	Insights  driving.InsightsService
	Settings  driving.SettingsService
	Scheduler driving.Scheduler

	// MetricsHandler serves Prometheus metrics for `schedule --metrics-addr`.
	MetricsHandler http.Handler

	// Watcher reloads configuration while the scheduler runs.
	Watcher Watcher

	// SetupErr is reported by pipeline commands when Pipeline is nil.
	SetupErr error
}

// Configure installs the services used by every command.
func Configure(s Services) {
	pipeline = s.Pipeline
	insightsService = s.Insights
	settingsService = s.Settings
	scheduler = s.Scheduler
	metricsHandler = s.MetricsHandler
	configWatcher = s.Watcher
	setupErr = s.SetupErr
}

// SetVersion sets the version printed by `searchlift version`.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "searchlift",
	Short: "SEO insights from Search Console data",
	Long: `searchlift pulls page performance from Google Search Console, stores it,
summarises click-through statistics and asks a language model for better
meta titles, descriptions and structured data.

Run the stages one at a time (ingest, aggregate, recommend), all at once
with 'run', or on a schedule with 'schedule'.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		verbose, _ := cmd.Flags().GetBool("verbose") //nolint:errcheck // flag is always registered
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// notConfigured builds the error returned when a service is missing.
func notConfigured(name string) error {
	if setupErr != nil {
		return fmt.Errorf("%s not configured: %w", name, setupErr)
	}
	return errors.New(name + " not configured")
}
