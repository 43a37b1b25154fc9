package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/xelth-com/pharmsearch/internal/config"
	"github.com/xelth-com/pharmsearch/internal/database"
)

func main() {
	yes := flag.Bool("yes", false, "replace an existing catalog without asking")
	flag.Parse()

	fmt.Println("🌱 Pharmacy Demo Catalog Seeder")
	ctx := context.Background()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		fatal("Failed to load config", err)
	}

	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		fatal("Failed to connect to database", err)
	}
	defer db.Close()
	fmt.Println("✅ Connected to database")

	// Run migrations first
	fmt.Println("🔨 Running database migrations...")
	if err := db.Migrate(); err != nil {
		fatal("Migration failed", err)
	}

	// Check if data already exists
	replace := *yes
	count, err := db.CountProducts(ctx)
	if err != nil {
		fatal("Failed to count products", err)
	}
	if count > 0 && !replace {
		fmt.Printf("⚠️  Database already has %d products. Clear it first? (y/N): ", count)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("❌ Aborted. Database not modified.")
			return
		}
		replace = true
	}

	stats, err := db.Seed(ctx, replace)
	if err != nil {
		fatal("Seeding failed", err)
	}

	fmt.Printf("✅ Created %d products, %d leaflets, %d alternative links\n", stats.Products, stats.Details, stats.Links)
	fmt.Println("💡 Try: curl 'localhost:" + cfg.Port + "/api/search?q=pan'")
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "❌ %s: %v\n", msg, err)
	os.Exit(1)
}
