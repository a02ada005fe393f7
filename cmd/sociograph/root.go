package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mvidoni/sociograph"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sociograph",
	Short: "Extract organizational relationship triplets from text",
	Long: `Sociograph extracts (role, practice, counterrole) relationship triplets
describing organizational interactions from free text.

Candidate triplets come from an LLM; sociograph normalizes their practice
verbs against a canonical vocabulary, validates them with rule-based
filters, and anchors roles to a known actor catalog by fuzzy matching.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
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
		fmt.Println("sociograph v0.3.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.sociograph/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and SOCIOGRAPH_* environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home + "/.sociograph")
			viper.SetConfigType("yaml")
			viper.SetConfigName("config")
		}
	}

	viper.SetEnvPrefix("SOCIOGRAPH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.ReadInConfig()
}

// loadConfig builds the engine config from defaults, the config file and
// viper-bound environment overrides.
func loadConfig() (sociograph.Config, error) {
	cfg := sociograph.DefaultConfig()

	if path := viper.ConfigFileUsed(); path != "" {
		loaded, err := sociograph.LoadConfig(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if v := viper.GetInt("chunk_size"); v > 0 {
		cfg.ChunkSize = v
	}
	if v := viper.GetString("chunk_method"); v != "" {
		cfg.ChunkMethod = v
	}
	if viper.IsSet("similarity_threshold") {
		cfg.SimilarityThreshold = viper.GetFloat64("similarity_threshold")
	}
	if v := viper.GetInt("fuzzy_threshold"); v > 0 {
		cfg.FuzzyThreshold = v
	}
	if v := viper.GetString("catalog_path"); v != "" {
		cfg.CatalogPath = v
	}
	if viper.IsSet("persist") {
		cfg.Persist = viper.GetBool("persist")
	}
	if v := viper.GetString("db_path"); v != "" {
		cfg.DBPath = v
	}
	if v := viper.GetString("chat.provider"); v != "" {
		cfg.Chat.Provider = v
	}
	if v := viper.GetString("chat.model"); v != "" {
		cfg.Chat.Model = v
	}
	if v := viper.GetString("chat.base_url"); v != "" {
		cfg.Chat.BaseURL = v
	}
	if v := viper.GetString("chat.api_key"); v != "" {
		cfg.Chat.APIKey = v
	}
	if v := viper.GetString("embedding.provider"); v != "" {
		cfg.Embedding.Provider = v
	}
	if v := viper.GetString("embedding.model"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := viper.GetString("embedding.base_url"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := viper.GetString("embedding.api_key"); v != "" {
		cfg.Embedding.APIKey = v
	}

	return cfg, nil
}

func setupLogging() error {
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("unknown log level %q", logLevel)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch logFormat {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("unknown log format %q", logFormat)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}
