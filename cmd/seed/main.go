// Command main runs the database seeder for the ID portal.
package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"idportal/internal/config"
	"idportal/internal/database"
	"idportal/internal/seed"
	"idportal/internal/storage"
)

func main() {
	preset := flag.String("preset", "small", "Built-in preset ("+strings.Join(seed.PresetNames(), ", ")+") or path to a YAML preset")
	shouldClean := flag.Bool("clean", true, "Clean workflow tables before seeding")
	flag.Parse()

	log.Println("ID Portal Seeder")
	log.Println("================")

	p, err := seed.LoadPreset(*preset)
	if err != nil {
		log.Fatalf("Failed to load preset: %v", err)
	}
	log.Printf("Preset %s: %d officers x %d applications, clean=%v", p.Name, p.Officers, p.ApplicationsPerOfficer, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	ctx := context.Background()
	store, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open document storage: %v", err)
	}

	s := seed.NewSeeder(db, store, cfg.LostIDFee)
	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	sum, err := s.Run(ctx, p)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Done: %d officers, %d applications, %d approved, %d lost-ID replacements",
		sum.Officers, sum.Applications, sum.Approved, sum.LostIDs)
	log.Println("All seeded officers have the password: password123")
}
