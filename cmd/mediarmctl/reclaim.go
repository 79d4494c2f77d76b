package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/DesolationStaging/mediarm/internal/app"
)

func init() {
	rootCmd.AddCommand(cmdReclaim)
	cmdReclaim.Flags().Int32Var(&reclaimPID, "pid", 0, "PID requesting the resources")
	cmdReclaim.Flags().StringSliceVar(&reclaimResources, "resource", nil, "kind=value pair, repeatable (kinds: secure-codec, non-secure-codec, graphic-memory)")
	cmdReclaim.Flags().IntVar(&reclaimTimeoutSeconds, "timeout", 3, "Timeout in seconds for the daemon call")
}

var (
	reclaimPID            int32
	reclaimResources      []string
	reclaimTimeoutSeconds int
)

var cmdReclaim = &cobra.Command{
	Use:   "reclaim",
	Short: "Ask the daemon to make room for a set of resources",
	RunE: func(cmd *cobra.Command, args []string) error {
		specs, err := parseResourceSpecs(reclaimResources)
		if err != nil {
			return err
		}
		controller := app.New(app.Options{ConfigPath: configPath})
		granted, err := controller.Reclaim(cmd.Context(), app.ReclaimParams{
			CallingPID: reclaimPID,
			Resources:  specs,
			Timeout:    time.Duration(reclaimTimeoutSeconds) * time.Second,
		})
		if err != nil {
			return err
		}
		if granted {
			fmt.Fprintln(os.Stdout, "granted")
			return nil
		}
		fmt.Fprintln(os.Stdout, "denied")
		return nil
	},
}

func parseResourceSpecs(raw []string) ([]app.ResourceSpec, error) {
	out := make([]app.ResourceSpec, 0, len(raw))
	for _, entry := range raw {
		kind, valueStr, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --resource %q, expected kind=value", entry)
		}
		value, err := strconv.ParseUint(valueStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value in --resource %q: %w", entry, err)
		}
		out = append(out, app.ResourceSpec{Kind: kind, Value: value})
	}
	return out, nil
}
