package main

import (
	"flag"
	"log"

	"github.com/DesolationStaging/mediarm/internal/app"
	"github.com/DesolationStaging/mediarm/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config file")
	flag.Parse()

	controller := app.New(app.Options{ConfigPath: *configPath})
	if err := tui.Run(controller); err != nil {
		log.Fatalf("mediarm-top exited with error: %v", err)
	}
}
