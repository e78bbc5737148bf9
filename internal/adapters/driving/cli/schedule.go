package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/searchlift/internal/core/domain"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline stages on a schedule",
	Long: `Starts the scheduler in the foreground. Each stage runs as a task on its
own interval (ingest and recommend daily, aggregate weekly by default).
Task state is kept between restarts.

Intervals are configured with:
  searchlift config set scheduler.ingest.interval 12h

Use --metrics-addr to expose Prometheus metrics while the scheduler runs.`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

var scheduleStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show scheduled task state",
	Args:  cobra.NoArgs,
	RunE:  runScheduleStatus,
}

var scheduleHistoryCmd = &cobra.Command{
	Use:       "history <stage>",
	Short:     "Show recent runs of a stage",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"ingest", "aggregate", "recommend"},
	RunE:      runScheduleHistory,
}

func init() {
	scheduleCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	scheduleHistoryCmd.Flags().Int("limit", 10, "Maximum number of runs")
	scheduleCmd.AddCommand(scheduleStatusCmd)
	scheduleCmd.AddCommand(scheduleHistoryCmd)
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	if scheduler == nil {
		return notConfigured("scheduler")
	}
	addr, err := cmd.Flags().GetString("metrics-addr")
	if err != nil {
		return err
	}
	if addr != "" && metricsHandler == nil {
		return errors.New("metrics not configured")
	}

	g, ctx := errgroup.WithContext(cmd.Context())

	g.Go(func() error {
		err := scheduler.Start(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if addr != "" {
		g.Go(func() error {
			return serveMetrics(ctx, addr, metricsHandler)
		})
		cmd.Printf("Metrics available at http://localhost%s/metrics\n", addr)
	}

	if configWatcher != nil {
		g.Go(func() error {
			return configWatcher.Watch(ctx)
		})
	}

	cmd.Println("Scheduler running. Press Ctrl+C to stop.")
	err = g.Wait()
	if stopErr := scheduler.Stop(); stopErr != nil && err == nil {
		err = stopErr
	}
	return err
}

// serveMetrics serves handler on addr until ctx is cancelled.
func serveMetrics(ctx context.Context, addr string, handler http.Handler) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func runScheduleStatus(cmd *cobra.Command, _ []string) error {
	if scheduler == nil {
		return notConfigured("scheduler")
	}
	tasks, err := scheduler.Tasks(cmd.Context())
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		cmd.Println("No scheduled tasks yet. Start the scheduler with 'searchlift schedule'.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()
	writeRow(w, "TASK", "ENABLED", "INTERVAL", "LAST RUN", "NEXT RUN", "LAST ERROR")
	for _, t := range tasks {
		enabled := "no"
		if t.Enabled {
			enabled = "yes"
		}
		lastErr := t.LastError
		if lastErr == "" {
			lastErr = "-"
		}
		writeRow(w, t.ID, enabled, t.Interval.String(), formatTime(t.LastRun), formatTime(t.NextRun), lastErr)
	}
	return nil
}

func runScheduleHistory(cmd *cobra.Command, args []string) error {
	if scheduler == nil {
		return notConfigured("scheduler")
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	results, err := scheduler.History(cmd.Context(), domain.Stage(args[0]), limit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		cmd.Printf("No runs of %s recorded yet.\n", args[0])
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()
	writeRow(w, "STARTED", "DURATION", "RESULT", "WRITTEN", "SKIPPED", "RUN ID")
	for _, r := range results {
		outcome := "ok"
		if !r.Success {
			outcome = "error: " + r.Error
		}
		writeRow(w, formatTime(r.StartedAt), r.Duration().Round(time.Millisecond).String(),
			outcome, fmt.Sprint(r.ItemsProcessed), fmt.Sprint(r.ItemsSkipped), r.RunID)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}
