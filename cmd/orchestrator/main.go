package main

import (
	"log"

	"github.com/dnsokolov/saas-onboarding/config"
	"github.com/dnsokolov/saas-onboarding/internal/app"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Config error: %s", err)
	}

	app.RunOrchestrator(cfg)
}
