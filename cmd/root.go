package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"newsdesk/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	appCfg  config.Config
)

// rootCmd is the base command called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "newsdesk",
	Short: "Newsdesk news corpus CLI",
	Long:  "Collect, edit and search news articles. Backed by SQLite or Redis.",
	// Errors are printed once by Execute.
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
}

func initConfig() {
	v := viper.GetViper()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/newsdesk")
		v.AddConfigPath("configs")
	}
	v.SetEnvPrefix("newsdesk")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			fmt.Fprintf(os.Stderr, "error reading config: %v\n", err)
			os.Exit(1)
		}
	} else {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", v.ConfigFileUsed())
	}

	if err := v.Unmarshal(&appCfg); err != nil {
		fmt.Fprintf(os.Stderr, "error parsing config: %v\n", err)
		os.Exit(1)
	}

	appCfg.FillDefaults()
	if err := appCfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	setupLogging(appCfg.App.LogLevel)
}

// bindEnv registers scalar keys so NEWSDESK_* variables reach Unmarshal even
// when the config file does not mention them.
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"app.log_level",
		"store.driver", "store.sqlite_path",
		"redis.addr", "redis.username", "redis.password", "redis.db",
		"index.max_layers", "index.cache_size", "index.rebuild_interval",
		"ingest.fetch_timeout", "ingest.max_candidates", "ingest.concurrency", "ingest.user_agent", "ingest.backfill_summaries",
		"openai.api_key", "openai.model", "openai.base_url",
		"api.addr", "api.ingest_rps", "api.ingest_burst",
		"pagination.page_size",
	} {
		_ = v.BindEnv(key)
	}
}

func setupLogging(level string) {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}

// GetConfig exposes the loaded configuration to subcommands.
func GetConfig() config.Config {
	return appCfg
}
