package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/DesolationStaging/mediarm/internal/app"
	"github.com/DesolationStaging/mediarm/policy"
)

func init() {
	rootCmd.AddCommand(cmdConfig)
	cmdConfig.Flags().BoolVar(&configMultipleSecure, "multiple-secure-codecs", true, "Allow more than one secure codec instance at once")
	cmdConfig.Flags().BoolVar(&configSecureWithNonSecure, "secure-with-non-secure", true, "Allow a secure codec to coexist with non-secure codecs")
	cmdConfig.Flags().IntVar(&configTimeoutSeconds, "timeout", 2, "Timeout in seconds for the daemon call")
}

var (
	configMultipleSecure      bool
	configSecureWithNonSecure bool
	configTimeoutSeconds      int
)

var cmdConfig = &cobra.Command{
	Use:   "config",
	Short: "Apply policy settings on the daemon",
	Long:  `Sets the two hardware capability flags that shape the arbiter's reclamation decisions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := []policy.Setting{
			{Tag: "supports-multiple-secure-codecs", Value: boolToValue(configMultipleSecure)},
			{Tag: "supports-secure-with-non-secure-codec", Value: boolToValue(configSecureWithNonSecure)},
		}
		controller := app.New(app.Options{ConfigPath: configPath})
		if err := controller.SetPolicy(cmd.Context(), settings, time.Duration(configTimeoutSeconds)*time.Second); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "policy updated")
		return nil
	},
}

func boolToValue(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
