package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/intake/internal/logging"
	"github.com/ppiankov/intake/internal/model"
)

// Version is set at build time with -ldflags
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "intake",
	Short: "Intake - incident classification and normalization for citizen reports",
	Long: `Intake turns a free-text citizen report (speech-to-text output) and an
optional machine-generated draft into a validated incident record:
category, urgency, address, danger and weapon flags, people involved,
recommended department, summary and a confidence score.

The rule engine is deterministic. A generative draft, when configured, is
only a proposal: it is cross-checked against the transcript and can never
lower urgency below what the rules require.

Intake is decision support for an operator, not a dispatch decision.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and the category set version of intake.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("intake %s (categories %s)\n", Version, model.CategorySetVersion)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.intake/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// envKeys are config keys that can be set from INTAKE_* variables
// (INTAKE_LLM_API_KEY, INTAKE_STORE_PATH, ...)
var envKeys = []string{
	"engine.language", "engine.lexicon_path",
	"llm.provider", "llm.model", "llm.api_key", "llm.base_url", "llm.language",
	"http.http_proxy", "http.https_proxy", "http.no_proxy",
	"cache.enabled", "cache.dir",
	"store.enabled", "store.path",
	"log.level",
	"output.metrics_file",
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(filepath.Join(home, ".intake"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match INTAKE_*
	viper.SetEnvPrefix("INTAKE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range envKeys {
		_ = viper.BindEnv(key)
	}

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig layers the config file and environment over the defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// newLogger builds the structured logger for a command run
func newLogger(cfg *model.Config) logging.Logger {
	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (logging disabled)\n", err)
		return logging.NewNop()
	}
	return logger
}

// providerAPIKey falls back to the provider's conventional environment variable
func providerAPIKey(provider, configured string) string {
	if configured != "" {
		return configured
	}
	switch strings.ToLower(provider) {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "deepseek":
		return os.Getenv("DEEPSEEK_API_KEY")
	}
	return ""
}
