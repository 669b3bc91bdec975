// Command main runs the database seeder for FixPoint.
package main

import (
	"flag"
	"log"

	"fixpoint/internal/config"
	"fixpoint/internal/database"
	"fixpoint/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 25, "Number of customer accounts to create")
	numRequests := flag.Int("requests", 60, "Number of service requests to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	maxDays := flag.Int("max-days", 90, "Spread created_at timestamps over this many days")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d users, %d requests, clean=%v\n", *numUsers, *numRequests, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	err = seed.Seed(db, seed.Options{
		NumUsers:    *numUsers,
		NumRequests: *numRequests,
		ShouldClean: *shouldClean,
		MaxDays:     *maxDays,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("All done. Every generated account has the password: password123")
	log.Println("Admin login: admin@fixpoint.local / password123")
}
