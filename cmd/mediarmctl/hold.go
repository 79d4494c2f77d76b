package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/DesolationStaging/mediarm/internal/app"
)

func init() {
	rootCmd.AddCommand(cmdHold)
	cmdHold.Flags().Int32Var(&holdPID, "pid", 0, "PID declaring the resources")
	cmdHold.Flags().Int64Var(&holdClientID, "client-id", 0, "Unique client id for this session")
	cmdHold.Flags().StringSliceVar(&holdResources, "resource", nil, "kind=value pair, repeatable")
	cmdHold.Flags().IntVar(&holdDialTimeoutSeconds, "dial-timeout", 3, "Timeout in seconds for connecting to the daemon")
}

var (
	holdPID                int32
	holdClientID           int64
	holdResources          []string
	holdDialTimeoutSeconds int
)

var cmdHold = &cobra.Command{
	Use:   "hold",
	Short: "Declare resources and stay reachable for a surrender request",
	Long:  `Opens a Surrender stream, declares the given resources, and blocks until interrupted. When the daemon asks this client to give them up, it acknowledges immediately.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		specs, err := parseResourceSpecs(holdResources)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		controller := app.New(app.Options{ConfigPath: configPath})
		fmt.Fprintf(os.Stdout, "holding resources for client %d (pid %d); press Ctrl+C to release\n", holdClientID, holdPID)

		return controller.Hold(ctx, app.HoldParams{
			PID:         holdPID,
			ClientID:    holdClientID,
			Resources:   specs,
			DialTimeout: time.Duration(holdDialTimeoutSeconds) * time.Second,
			OnSurrender: func() bool {
				fmt.Fprintln(os.Stdout, "daemon requested surrender, releasing")
				return true
			},
		})
	},
}
