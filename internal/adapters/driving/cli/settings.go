package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the LLM provider, rewrite pacing and the rewrite cache.

Settings are stored in ~/.narrator/config.toml. API keys may also come from
GEMINI_API_KEY, GOOGLE_API_KEY, OPENAI_API_KEY or ANTHROPIC_API_KEY, which
take precedence over a stored key and are never written to the file.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var (
	llmProvider   string
	llmModel      string
	llmAPIKey     string
	llmNoValidate bool
)

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long: `Configure the LLM provider used to rewrite chunks.

Without --provider the command asks for the provider, model and API key
interactively. The configuration is checked against the provider unless
--no-validate is set.`,
	RunE: runSettingsLLM,
}

var settingsRewriteCmd = &cobra.Command{
	Use:   "rewrite",
	Short: "Configure rewrite pacing and fallback",
	Long: `Configure how rewrites are paced and when they fall back to the local rewriter.

Only the flags given are changed.`,
	Args: cobra.NoArgs,
	RunE: runSettingsRewrite,
}

var (
	cacheRedisAddr string
	cacheTTL       time.Duration
)

var settingsCacheCmd = &cobra.Command{
	Use:   "cache [none|memory|sqlite|redis]",
	Short: "Select the rewrite cache backend",
	Long: `Select where provider rewrites are cached.

  none    - no caching
  memory  - in-process only, lost when the command exits
  sqlite  - ~/.narrator/data/narrator.db (default)
  redis   - shared between machines, needs --redis-addr`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsCache,
}

func init() {
	settingsLLMCmd.Flags().StringVar(&llmProvider, "provider", "", "provider: gemini, openai, anthropic or ollama")
	settingsLLMCmd.Flags().StringVar(&llmModel, "model", "", "model name (default depends on provider)")
	settingsLLMCmd.Flags().StringVar(&llmAPIKey, "api-key", "", "API key (prefer the provider's environment variable)")
	settingsLLMCmd.Flags().BoolVar(&llmNoValidate, "no-validate", false, "skip the connection check")

	settingsRewriteCmd.Flags().Int("max-retries", 0, "attempts per chunk before falling back")
	settingsRewriteCmd.Flags().Duration("min-interval", 0, "minimum time between provider calls")
	settingsRewriteCmd.Flags().Int("max-requests-per-minute", 0, "provider calls allowed per minute (0 = unlimited)")
	settingsRewriteCmd.Flags().Int("chunk-max-chars", 0, "maximum characters per chunk")
	settingsRewriteCmd.Flags().Bool("fallback", true, "finish with the local rewriter when the provider is exhausted")

	settingsCacheCmd.Flags().StringVar(&cacheRedisAddr, "redis-addr", "", "redis address (host:port)")
	settingsCacheCmd.Flags().DurationVar(&cacheTTL, "ttl", 0, "how long cached rewrites are kept")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsRewriteCmd)
	settingsCmd.AddCommand(settingsCacheCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	// LLM settings
	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.RewriteConfig().Model)
	if settings.LLM.Provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	if settings.LLM.Provider.RequiresAPIKey() {
		if settings.LLM.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.LLM.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !settings.LLM.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	// Rewrite settings
	rw := settings.Rewrite
	cmd.Println("[Rewrite]")
	cmd.Printf("  Max retries per chunk: %d\n", rw.MaxRetriesPerChunk)
	cmd.Printf("  Min interval between calls: %s\n", rw.MinInterval)
	cmd.Printf("  Max requests per minute: %s\n", limitString(rw.MaxRequestsPerMinute))
	cmd.Printf("  Chunk max chars: %d\n", rw.ChunkMaxChars)
	cmd.Printf("  Fallback on exhaustion: %s\n", yesNo(rw.FallbackOnExhaustion))
	cmd.Println()

	// Cache settings
	cmd.Println("[Cache]")
	cmd.Printf("  Backend: %s\n", settings.Cache.Backend)
	if settings.Cache.Backend == domain.CacheBackendRedis {
		cmd.Printf("  Redis address: %s\n", settings.Cache.RedisAddr)
	}
	if settings.Cache.Backend != domain.CacheBackendNone {
		cmd.Printf("  TTL: %s\n", ttlString(settings.Cache.TTL))
	}
	cmd.Println()

	if !settings.LLM.IsConfigured() {
		cmd.Println("No LLM provider is configured; rewrites use the local rewriter.")
		cmd.Println("Run 'narrator settings llm' to configure one.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())

	provider := domain.AIProvider(strings.ToLower(llmProvider))
	model := llmModel
	apiKey := llmAPIKey
	if llmProvider == "" {
		var err error
		provider, model, apiKey, err = promptLLMProvider(cmd, reader)
		if err != nil {
			return err
		}
	}
	if model == "" {
		model = provider.DefaultModel()
	}

	if err := settingsService.SetLLMProvider(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	if !llmNoValidate {
		// Validate the configuration by pinging the service
		cmd.Print("Validating configuration... ")
		if err := settingsService.ValidateLLMConfig(); err != nil {
			cmd.Printf("FAILED: %v\n", err)
			return fmt.Errorf("LLM configuration validation failed: %w", err)
		}
		cmd.Println("OK")
	}

	cmd.Printf("LLM provider configured: %s (%s)\n", provider.Description(), model)
	return nil
}

func promptLLMProvider(cmd *cobra.Command, reader *bufio.Reader) (domain.AIProvider, string, string, error) {
	cmd.Println("Select LLM Provider")
	providers := domain.AllAIProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	selected := providers[idx-1]

	defaultModel := selected.DefaultModel()
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selected.RequiresAPIKey() {
		envNames := selected.APIKeyEnv()
		cmd.Printf("Enter API key (leave empty to use $%s): ", strings.Join(envNames, " or $"))
		apiKey = readPassword(cmd, reader)
		cmd.Println()
	}
	return selected, model, apiKey, nil
}

func runSettingsRewrite(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	flags := cmd.Flags()
	changed := 0
	if flags.Changed("max-retries") {
		settings.Rewrite.MaxRetriesPerChunk, _ = flags.GetInt("max-retries") //nolint:errcheck // flag is registered
		changed++
	}
	if flags.Changed("min-interval") {
		settings.Rewrite.MinInterval, _ = flags.GetDuration("min-interval") //nolint:errcheck // flag is registered
		changed++
	}
	if flags.Changed("max-requests-per-minute") {
		settings.Rewrite.MaxRequestsPerMinute, _ = flags.GetInt("max-requests-per-minute") //nolint:errcheck // flag is registered
		changed++
	}
	if flags.Changed("chunk-max-chars") {
		settings.Rewrite.ChunkMaxChars, _ = flags.GetInt("chunk-max-chars") //nolint:errcheck // flag is registered
		changed++
	}
	if flags.Changed("fallback") {
		settings.Rewrite.FallbackOnExhaustion, _ = flags.GetBool("fallback") //nolint:errcheck // flag is registered
		changed++
	}
	if changed == 0 {
		return errors.New("no settings given; see 'narrator settings rewrite --help'")
	}

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Printf("Updated %d rewrite setting(s).\n", changed)
	return nil
}

func runSettingsCache(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	backend := domain.CacheBackend(strings.ToLower(args[0]))
	if err := settingsService.SetCacheBackend(backend, cacheRedisAddr); err != nil {
		return fmt.Errorf("failed to set cache backend: %w", err)
	}

	if cmd.Flags().Changed("ttl") {
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		settings.Cache.TTL = cacheTTL
		if err := settingsService.Save(settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
	}

	cmd.Printf("Cache backend set to: %s\n", backend)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads a secret without echo when input is a terminal.
func readPassword(cmd *cobra.Command, reader *bufio.Reader) string {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func limitString(n int) string {
	if n <= 0 {
		return "unlimited"
	}
	return strconv.Itoa(n)
}

func ttlString(d time.Duration) string {
	if d <= 0 {
		return "forever"
	}
	return d.String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
