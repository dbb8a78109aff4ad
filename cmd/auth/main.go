package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/aussiebroadwan/bearer/internal/auth/app"
	"github.com/ilyakaznacheev/cleanenv"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	flag.Usage = cleanenv.FUsage(flag.CommandLine.Output(), &app.Config{}, nil, flag.Usage)
	flag.Parse()

	cfg, err := app.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	application, err := app.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
