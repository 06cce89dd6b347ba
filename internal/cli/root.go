package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/factlens/internal/model"
	"github.com/ppiankov/factlens/internal/pipeline"
	"github.com/ppiankov/factlens/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Version is overridden at build time with -ldflags "-X ...cli.Version=..."
var Version = "dev"

var (
	cfgFile string
	verbose bool
	logger  *zap.Logger
)

// envKeys are the config keys readable from FACTLENS_* variables
var envKeys = []string{
	"llm.provider",
	"llm.model",
	"llm.api_key",
	"llm.base_url",
	"backend.url",
	"server.listen",
	"server.analysis_timeout",
	"http.timeout",
	"http.respect_robots",
	"http.http_proxy",
	"http.https_proxy",
	"http.no_proxy",
	"retrieval.news_search_url",
	"retrieval.wikipedia_base_url",
	"retrieval.namuwiki_base_url",
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "factlens",
	Short: "factlens - Korean fake-news detection and crowd psychology analysis",
	Long: `factlens checks a short claim or topic against freshly retrieved evidence.

For fact checks it extracts search keywords, pulls recent Korean news articles
and encyclopedia entries, and asks a completion provider for a verdict:
true, false or controversial, with a confidence score and cited sources.

Crowd analysis skips retrieval and describes the discourse around a topic.

Prompt-injection attempts are refused before any outbound call is made.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = telemetry.NewLogger(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", zap.String("path", used))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("factlens %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.factlens/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(filepath.Join(home, ".factlens"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match FACTLENS_*
	viper.SetEnvPrefix("FACTLENS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range envKeys {
		_ = viper.BindEnv(key)
	}

	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Error reading config file %s: %v\n", cfgFile, err)
	}
}

// loadConfig merges defaults, the config file and the environment
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// Provider-native variables fill in what FACTLENS_* left empty
	switch cfg.LLM.Provider {
	case "openai":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "anthropic", "claude":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	case "ollama":
		if cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
	}

	cfg.Verbose = verbose
	return cfg, nil
}

// buildPipeline wires the pipeline against a fresh metrics registry
func buildPipeline(cfg *model.Config) (*pipeline.Pipeline, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	p := pipeline.NewPipeline(cfg, logger, telemetry.NewMetrics(reg))

	tiers := p.Attempts()
	if len(tiers) == 0 {
		logger.Warn("no analysis tier configured; every query will report unavailable",
			zap.String("hint", "set OPENAI_API_KEY or backend.url"))
	} else {
		logger.Debug("analysis tiers", zap.Strings("order", tiers))
	}

	return p, reg
}
