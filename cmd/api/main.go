package main

import (
	"log"
	"os"

	"status-backend/internal/bootstrap"
	"status-backend/internal/shared/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Print(err)
		os.Exit(1)
	}

	app := bootstrap.New(cfg)
	if err := app.Err(); err != nil {
		log.Printf("startup error: %v", err)
		os.Exit(1)
	}
	app.Run()
}
