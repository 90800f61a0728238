package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/quillhq/claude-gateway/internal/process"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show gateway daemon status",
	Long:  "Display whether the gateway daemon is running and its configured listen address.",
	Run:   runStatus,
}

func runStatus(_ *cobra.Command, _ []string) {
	procMgr := process.NewManager(flagPIDFile)

	running := procMgr.IsRunning()
	pid := procMgr.ReadPID()

	color.Blue("Status for %s:", AppName)
	fmt.Printf("  %-12s: %v\n", "Running", running)
	fmt.Printf("  %-12s: %d\n", "PID", pid)
	fmt.Printf("  %-12s: %s\n", "PID file", flagPIDFile)

	if cfg, err := loadConfig(); err == nil {
		fmt.Printf("  %-12s: %d\n", "Port", cfg.Port)
		fmt.Printf("  %-12s: http://127.0.0.1:%d/v1/messages\n", "Endpoint", cfg.Port)
	}

	fmt.Printf("  %-12s: v%s\n", "Version", Version)
}
