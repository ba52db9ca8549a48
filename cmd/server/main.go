package main

import (
	"flag"
	"log"
	"os"

	"github.com/alex-user-go/farescan/internal/app"
)

func main() {
	configPath := flag.String("config", os.Getenv("FARESCAN_CONFIG"), "path to a YAML or JSON config file")
	flag.Parse()

	if err := app.Run(*configPath); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
