package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/xelth-com/pharmsearch/internal/config"
	"github.com/xelth-com/pharmsearch/internal/database"
	"github.com/xelth-com/pharmsearch/internal/models"
	"github.com/xelth-com/pharmsearch/internal/repository"
	"github.com/xelth-com/pharmsearch/internal/search"
)

func main() {
	query := flag.String("q", "", "run a deterministic search and print the page")
	strategy := flag.String("strategy", "", "matching strategy: prefix, any, phonetic, combined")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		fmt.Printf("❌ Failed to connect: %v\n", err)
		fmt.Println("\n💡 Try seeding first:")
		fmt.Println("   go run ./cmd/seed_demo")
		os.Exit(1)
	}
	defer db.Close()

	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║             📊 Pharmacy Catalog Report                    ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	// Count stats
	var productCount, detailCount, linkCount int64
	db.Model(&models.Product{}).Count(&productCount)
	db.Model(&models.ProductDetail{}).Count(&detailCount)
	db.Model(&models.AlternativeLink{}).Count(&linkCount)

	fmt.Println("📈 DATABASE STATISTICS")
	fmt.Println("──────────────────────────────────────────────────────────")
	fmt.Printf("  Products:      %3d\n", productCount)
	fmt.Printf("  Leaflets:      %3d\n", detailCount)
	fmt.Printf("  Alt. links:    %3d\n", linkCount)
	fmt.Println()

	if *query == "" {
		var popular []models.Product
		db.Order("visit_count DESC, id").Limit(10).Find(&popular)
		if len(popular) > 0 {
			fmt.Println("🔥 MOST VISITED")
			fmt.Println("──────────────────────────────────────────────────────────")
			for _, p := range popular {
				printProduct(p)
			}
		}
		return
	}

	// The report never calls the completion service
	searchCfg := cfg.Search
	searchCfg.AIEnabled = false
	repo := repository.NewProductRepository(db.DB)
	engine := search.NewEngine(repo, nil, nil, searchCfg)

	s, _ := search.ParseStrategy(*strategy)
	page, err := engine.Resolve(context.Background(), search.Request{Query: *query, Strategy: s})
	if err != nil {
		fmt.Printf("❌ Search failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("🔍 SEARCH %q  [strategy: %s, tier: %s]\n", page.Query, page.Strategy, page.Tier)
	fmt.Println("──────────────────────────────────────────────────────────")
	for _, p := range page.Products {
		printProduct(p)
	}
	fmt.Printf("\n  %d result(s), page %d of %d\n", page.Total, page.Page, page.PageCount)
}

func printProduct(p models.Product) {
	fmt.Printf("  [%d] %s", p.ID, p.Name)
	if p.LocalName != "" {
		fmt.Printf(" (%s)", p.LocalName)
	}
	fmt.Println()
	parts := []string{p.Price.StringFixed(2)}
	if p.Ingredient != "" {
		parts = append(parts, p.Ingredient)
	}
	if p.Manufacturer != "" {
		parts = append(parts, p.Manufacturer)
	}
	fmt.Printf("      └─ %s\n", strings.Join(parts, " | "))
}
