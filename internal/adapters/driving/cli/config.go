package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/searchlift/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change searchlift configuration.

Settings are stored in ~/.searchlift/config.toml. Environment variables such as
OPENAI_API_KEY and SEARCH_CONSOLE_CREDENTIALS override stored values.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show resolved settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value. Run 'searchlift config keys' for the list.

Examples:
  searchlift config set site_url sc-domain:example.com
  searchlift config set dedup_policy skip
  searchlift config set scheduler.aggregate.interval 72h`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configSetSecretCmd = &cobra.Command{
	Use:   "set-secret <key>",
	Short: "Set a credential without echoing it",
	Long: `Prompts for a credential such as llm.api_key and stores it without
echoing it to the terminal.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigSetSecret,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List configuration keys",
	Args:  cobra.NoArgs,
	RunE:  runConfigKeys,
}

// readSecret reads a credential from the terminal.
var readSecret = readPassword

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetSecretCmd)
	configCmd.AddCommand(configKeysCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return notConfigured("settings service")
	}

	cmd.Printf("Config file: %s\n\n", settingsService.Path())

	settings, err := settingsService.Get()
	if err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'searchlift config set' to fix configuration issues.")
		return nil
	}

	cmd.Println("[Pipeline]")
	cmd.Printf("  Site: %s\n", settings.SiteURL)
	cmd.Printf("  Dedup policy: %s\n", settings.DedupPolicy)
	cmd.Printf("  Ingest window: %d days, %d rows\n", settings.WindowDays, settings.RowLimit)
	cmd.Printf("  Aggregate limit: %d\n", settings.AggregateLimit)
	cmd.Printf("  Recommend limit: %d\n", settings.RecommendLimit)
	cmd.Println()

	cmd.Println("[Store]")
	cmd.Printf("  Driver: %s\n", settings.Store.Driver)
	if settings.Store.DatabaseURL != "" {
		cmd.Printf("  Database URL: %s\n", maskAPIKey(settings.Store.DatabaseURL))
	}
	if settings.Store.DataDir != "" {
		cmd.Printf("  Data dir: %s\n", settings.Store.DataDir)
	}
	cmd.Println()

	cmd.Println("[Search Console]")
	switch {
	case settings.SearchConsole.CredentialsJSON != "":
		cmd.Println("  Credentials: inline JSON")
	case settings.SearchConsole.CredentialsFile != "":
		cmd.Printf("  Credentials: %s\n", settings.SearchConsole.CredentialsFile)
	default:
		cmd.Println("  Credentials: (not set)")
	}
	cmd.Printf("  Requests per second: %g\n", settings.SearchConsole.RequestsPerSecond)
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	if settings.LLM.APIKey != "" {
		cmd.Printf("  API Key: %s\n", maskAPIKey(settings.LLM.APIKey))
	} else {
		cmd.Println("  API Key: (not set)")
	}
	cmd.Printf("  Timeout: %s\n", settings.LLM.Timeout)
	cmd.Println()

	cmd.Println("[Scheduler]")
	cmd.Printf("  Enabled: %t\n", settings.Scheduler.Enabled)
	for _, stage := range domain.Stages {
		task := settings.Scheduler.GetTaskConfig(string(stage))
		cmd.Printf("  %s: every %s (enabled: %t)\n", stage, task.Interval, task.Enabled)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return notConfigured("settings service")
	}
	key, value := args[0], args[1]
	if settingsService.IsSecret(key) {
		cmd.PrintErrf("Note: %s is a credential; 'searchlift config set-secret %s' avoids shell history.\n", key, key)
	}
	if err := settingsService.Set(key, value); err != nil {
		return err
	}
	cmd.Printf("Set %s\n", key)
	return nil
}

func runConfigSetSecret(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return notConfigured("settings service")
	}
	key := args[0]

	cmd.Printf("Enter value for %s: ", key)
	value := readSecret()
	cmd.Println()
	if value == "" {
		return fmt.Errorf("no value entered for %s", key)
	}

	if err := settingsService.Set(key, value); err != nil {
		return err
	}
	cmd.Printf("Set %s (%s)\n", key, maskAPIKey(value))
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return notConfigured("settings service")
	}
	for _, key := range settingsService.Keys() {
		if settingsService.IsSecret(key) {
			cmd.Printf("%s (secret)\n", key)
			continue
		}
		cmd.Println(key)
	}
	return nil
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
