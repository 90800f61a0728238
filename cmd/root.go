package cmd

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/quillhq/claude-gateway/internal/config"
)

const (
	AppName = "claude-gateway"
	Version = "0.1.0"
)

var (
	logger *slog.Logger
	cfgMgr *config.Manager

	flagConfigPath string
	flagDebug      bool
	flagVerbose    bool
	flagPIDFile    string
)

func init() {
	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

var rootCmd = &cobra.Command{
	Use:     "claude-gateway",
	Short:   "Anthropic Messages to OpenAI Chat Completions proxy",
	Long:    "A protocol-translating HTTP proxy that serves Anthropic's Messages API on top of an OpenAI-compatible Chat Completions upstream.",
	Version: Version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "path to a dotenv file overriding the default search order")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "forwarded to a daemon child; does not change log output")
	rootCmd.PersistentFlags().StringVar(&flagPIDFile, "pid-file", defaultPIDFile(), "path to the daemon PID file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
}

func defaultPIDFile() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "."+AppName, "gateway.pid")
	}

	return filepath.Join(os.TempDir(), AppName+".pid")
}

func setupLogging(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	logger = slog.New(handler)

	return logger
}

func loadConfig() (*config.Config, error) {
	cfgMgr = config.NewManager(flagConfigPath)

	cfg, err := cfgMgr.Load()
	if err != nil {
		color.Red("configuration error: %v", err)
		return nil, err
	}

	return cfg, nil
}
