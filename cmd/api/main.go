package main

import (
	"log"

	"docqa-backend/internal/bootstrap"
	"docqa-backend/internal/shared/config"
	"docqa-backend/internal/shared/server"
	"docqa-backend/internal/shared/storage/db"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	app, err := bootstrap.Build(cfg, db.DefaultServerOptions())
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s", addr)

	if err := app.Router.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
