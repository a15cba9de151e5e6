package main

import (
	"fmt"
	"log"

	"github.com/distress-leads/internal/config"
	"github.com/distress-leads/internal/db"
	"github.com/distress-leads/internal/web"
)

func main() {
	// Load environment configuration
	config.LoadEnv()

	fmt.Println("=== Distress Leads Web Interface ===")

	host := config.GetEnv("WEB_HOST", "localhost")
	port := config.GetEnvInt("WEB_PORT", 8080)

	fmt.Printf("Server: http://%s:%d\n", host, port)
	fmt.Printf("Database: %s\n", config.GetEnv("PGDATABASE", "distress_leads"))

	dbConn, err := db.NewConnection()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbConn.Close()

	// Test database connectivity
	var dbVersion string
	err = dbConn.DB.QueryRow("SELECT version()").Scan(&dbVersion)
	if err != nil {
		log.Fatalf("Database connection test failed: %v", err)
	}
	fmt.Println("Database connected successfully")

	server := web.NewServer(web.Config{
		Host: host,
		Port: port,
	}, dbConn.DB, config.MatcherThresholds())

	fmt.Printf("\nStarting web server on http://%s:%d\n", host, port)

	if err := server.Start(); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
