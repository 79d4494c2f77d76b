package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DesolationStaging/mediarm/internal/app"
)

func init() {
	rootCmd.AddCommand(cmdStatus)
	rootCmd.AddCommand(cmdStop)
}

var cmdStatus = &cobra.Command{
	Use:   "status",
	Short: "Report whether the daemon is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		controller := app.New(app.Options{ConfigPath: configPath})
		status, err := controller.Status()
		if err != nil {
			return err
		}
		if !status.Running {
			fmt.Fprintln(os.Stdout, "daemon is not running")
			return nil
		}
		fmt.Fprintf(os.Stdout, "daemon is running (pid %d)\n", status.PID)
		return nil
	},
}

var stopForce bool

func init() {
	cmdStop.Flags().BoolVarP(&stopForce, "force", "f", false, "SIGKILL the daemon if it doesn't stop gracefully")
}

var cmdStop = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		controller := app.New(app.Options{ConfigPath: configPath})
		if err := controller.StopDaemon(stopForce); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "daemon stopped")
		return nil
	},
}
