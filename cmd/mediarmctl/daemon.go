package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/DesolationStaging/mediarm/internal/app"
	"github.com/DesolationStaging/mediarm/internal/daemon"
)

func init() {
	rootCmd.AddCommand(cmdDaemon)
}

var daemonForceRestart bool

func init() {
	cmdDaemon.Flags().BoolVarP(&daemonForceRestart, "force", "f", false, "Restart the daemon if it is already running")
}

var cmdDaemon = &cobra.Command{
	Use:   "daemon",
	Short: "Start mediarmd in the foreground",
	Long:  `Starts the arbiter daemon and blocks until interrupted. If a daemon is already running, use --force to replace it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if daemon.IsRunning() {
			if !daemonForceRestart {
				pid, err := daemon.RunningPID()
				message := "Daemon is already running. Stop it manually or re-run with --force."
				if err == nil && pid != 0 {
					message = fmt.Sprintf("Daemon is already running (pid %d). Stop it manually or re-run with --force.", pid)
				}
				fmt.Fprintln(os.Stdout, message)
				return nil
			}
			fmt.Fprintln(os.Stdout, "Stopping existing daemon process...")
			if err := daemon.StopRunningDaemon(true); err != nil {
				return err
			}
		}

		controller := app.New(app.Options{ConfigPath: configPath})
		handle, err := controller.StartDaemon()
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "Started mediarmd")

		runSpin := spinner.New(spinner.CharSets[21], 120*time.Millisecond, spinner.WithWriter(os.Stdout))
		runSpin.Suffix = " Running..."
		runSpin.Start()

		sigc := make(chan os.Signal, 2)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		<-sigc
		runSpin.Stop()
		return handle.Close()
	},
}
