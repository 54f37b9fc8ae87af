package main

import (
	"flag"
	"log"
	"os"

	"github.com/df07/go-postcard-raytracer/pkg/config"
	"github.com/df07/go-postcard-raytracer/web/server"
)

func main() {
	// Parse command line flags
	envFile := flag.String("env", ".env", "Environment file with POSTCARD_* settings")
	port := flag.Int("port", 0, "Port to serve on (0 = POSTCARD_PORT or 8080)")
	static := flag.String("static", "static", "Directory of static files served at /")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Printf("Error loading configuration: %v", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Port = *port
	}

	staticDir := *static
	if _, err := os.Stat(staticDir); err != nil {
		staticDir = ""
	}

	// Create and start web server
	webServer := server.NewServer(cfg.Port, staticDir)

	log.Printf("Postcard Raytracer Web Server")
	log.Printf("Connect a websocket to ws://localhost:%d/api/render to start rendering", cfg.Port)

	if err := webServer.Start(); err != nil {
		log.Printf("Error starting server: %v", err)
		os.Exit(1)
	}
}
