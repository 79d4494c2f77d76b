package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/DesolationStaging/mediarm/internal/app"
)

func init() {
	rootCmd.AddCommand(cmdRemove)
	cmdRemove.Flags().Int64Var(&removeClientID, "client-id", 0, "Client id to withdraw")
	cmdRemove.Flags().IntVar(&removeTimeoutSeconds, "timeout", 2, "Timeout in seconds for the daemon call")
}

var (
	removeClientID       int64
	removeTimeoutSeconds int
)

var cmdRemove = &cobra.Command{
	Use:   "remove",
	Short: "Withdraw a client's resource declaration",
	RunE: func(cmd *cobra.Command, args []string) error {
		controller := app.New(app.Options{ConfigPath: configPath})
		if err := controller.RemoveResource(cmd.Context(), removeClientID, time.Duration(removeTimeoutSeconds)*time.Second); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "removed")
		return nil
	},
}
