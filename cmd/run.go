package cmd

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/quillhq/claude-gateway/internal/httpapi"
	"github.com/quillhq/claude-gateway/internal/process"
)

var flagDaemon bool

func init() {
	runCmd.Flags().BoolVarP(&flagDaemon, "daemon", "d", false, "run in the background, returning once the daemon has written its PID file")

	rootCmd.RunE = runGateway
	rootCmd.Flags().AddFlag(runCmd.Flags().Lookup("daemon"))
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the gateway",
	Long:  "Start the HTTP proxy that translates Anthropic Messages requests onto the configured OpenAI-compatible upstream.",
	RunE:  runGateway,
}

func runGateway(_ *cobra.Command, _ []string) error {
	procMgr := process.NewManager(flagPIDFile)

	if flagDaemon {
		started, err := procMgr.StartDetached(daemonArgs()...)
		if err != nil {
			color.Red("failed to start gateway: %v", err)
			os.Exit(1)
		}

		if !started {
			color.Yellow("gateway is already running")
			os.Exit(2)
		}

		color.Green("gateway started in background (pid file: %s)", flagPIDFile)

		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		os.Exit(1)
	}

	log := setupLogging(flagDebug || cfg.Debug)

	if err := procMgr.WritePID(); err != nil {
		log.Error("failed to write PID file", "error", err)
		os.Exit(1)
	}
	defer procMgr.CleanupPID()

	client := &http.Client{
		Timeout: 0,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	server := httpapi.New(cfgMgr, client, log)

	log.Info("gateway configured",
		"port", cfg.Port,
		"upstream", cfg.UpstreamBaseURL,
		"reasoning_model", cfg.ReasoningModel,
		"completion_model", cfg.CompletionModel,
	)

	return server.Run(context.Background())
}

// daemonArgs threads the persistent flags a user passed to "run --daemon"
// through to the detached child process.
func daemonArgs() []string {
	var args []string

	if flagConfigPath != "" {
		args = append(args, "--config", flagConfigPath)
	}

	if flagDebug {
		args = append(args, "--debug")
	}

	if flagVerbose {
		args = append(args, "--verbose")
	}

	args = append(args, "--pid-file", flagPIDFile)

	return args
}
