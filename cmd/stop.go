package cmd

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/quillhq/claude-gateway/internal/process"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the gateway daemon",
	Long:  "Send SIGTERM to a gateway daemon started with 'run --daemon' and wait for it to exit.",
	RunE:  runStop,
}

func runStop(_ *cobra.Command, _ []string) error {
	procMgr := process.NewManager(flagPIDFile)

	if !procMgr.IsRunning() {
		color.Yellow("gateway is not running")
		os.Exit(3)
	}

	if err := procMgr.Stop(); err != nil {
		return err
	}

	color.Green("gateway stopped")

	return nil
}
