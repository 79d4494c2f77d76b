package main

import (
	"log"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "mediarmctl [command]",
	Short: "mediarmctl: control the media resource arbiter daemon",
	Long:  `mediarmctl talks to mediarmd, the media resource arbiter daemon, over its UNIX socket.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to JSON config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
