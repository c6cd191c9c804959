package main

import (
	"context"
	"log"

	"nodegate/internal/app/bootstrap"
)

// API process entrypoint.
// Data flow:
// 1) Load config and storage-dir credentials.
// 2) Build app wiring (ports + adapters + use cases).
// 3) Start the authenticated HTTPS server.
func main() {
	log.Println("nodegate api starting")
	app, err := bootstrap.BuildAPI()
	if err != nil {
		log.Fatalf("bootstrap api failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("api shutdown close failed: %v", err)
		}
	}()

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("nodegate api stopped with error: %v", err)
	}
}
