package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	brandIDs := seedBrands(db)
	catIDs := seedCategories(db)
	itemIDs := seedItems(db, brandIDs, catIDs)
	seedPromotions(db, itemIDs, catIDs)

	log.Println("Seeding completed successfully!")
}

func seedBrands(db *sql.DB) map[string]int64 {
	brands := []string{"Apple", "Dell", "Logitech", "Blue Bottle"}

	fmt.Println("Seeding Brands...")
	ids := make(map[string]int64)
	for _, name := range brands {
		_, err := db.Exec(`
			INSERT INTO brands (name) VALUES ($1)
			ON CONFLICT (name) DO NOTHING;
		`, name)
		if err != nil {
			log.Printf("Failed to upsert brand %s: %v", name, err)
			continue
		}
		var id int64
		if err := db.QueryRow("SELECT id FROM brands WHERE name = $1", name).Scan(&id); err != nil {
			log.Printf("Failed to get ID for brand %s: %v", name, err)
			continue
		}
		ids[name] = id
	}
	return ids
}

func seedCategories(db *sql.DB) map[string]int64 {
	categories := []string{"Laptops", "Accessories", "Groceries"}

	fmt.Println("Seeding Categories...")
	ids := make(map[string]int64)
	for _, name := range categories {
		_, err := db.Exec(`
			INSERT INTO categories (name) VALUES ($1)
			ON CONFLICT (name) DO NOTHING;
		`, name)
		if err != nil {
			log.Printf("Failed to upsert category %s: %v", name, err)
			continue
		}
		var id int64
		if err := db.QueryRow("SELECT id FROM categories WHERE name = $1", name).Scan(&id); err != nil {
			log.Printf("Failed to get ID for category %s: %v", name, err)
			continue
		}
		ids[name] = id
	}
	return ids
}

func seedItems(db *sql.DB, brandIDs, catIDs map[string]int64) map[string]int64 {
	items := []struct {
		Name     string
		Price    string
		SaleUnit string
		Stock    string
		Brand    string
		Category string
	}{
		{"MacBook Pro 16", "2000.00", "quantity", "5", "Apple", "Laptops"},
		{"Dell XPS 15", "1500.00", "quantity", "10", "Dell", "Laptops"},
		{"Logitech MX Master 3", "99.99", "quantity", "100", "Logitech", "Accessories"},
		{"Single Origin Coffee Beans", "0.05", "weight", "5000", "Blue Bottle", "Groceries"},
		{"USB-C Cable", "9.99", "quantity", "250", "Logitech", "Accessories"},
	}

	fmt.Println("Seeding Items...")
	ids := make(map[string]int64)
	for _, it := range items {
		var id int64
		err := db.QueryRow(`
			INSERT INTO items (name, price, sale_unit, stock_quantity, brand_id, category_id)
			SELECT $1, $2, $3, $4, $5, $6
			WHERE NOT EXISTS (SELECT 1 FROM items WHERE name = $1)
			RETURNING id;
		`, it.Name, it.Price, it.SaleUnit, it.Stock, brandIDs[it.Brand], catIDs[it.Category]).Scan(&id)
		if err == sql.ErrNoRows {
			if err := db.QueryRow("SELECT id FROM items WHERE name = $1", it.Name).Scan(&id); err != nil {
				log.Printf("Failed to get ID for item %s: %v", it.Name, err)
				continue
			}
		} else if err != nil {
			log.Printf("Failed to seed item %s: %v", it.Name, err)
			continue
		}
		ids[it.Name] = id
	}
	return ids
}

func seedPromotions(db *sql.DB, itemIDs, catIDs map[string]int64) {
	promos := []struct {
		Name       string
		Type       string
		Value      string
		TargetType string
		TargetID   int64
		Config     string
		PromoCode  *string
	}{
		{"MacBook Launch Discount", "flat_discount", "200.00", "Item", itemIDs["MacBook Pro 16"], "{}", nil},
		{"Dell Spring Sale", "percentage_discount", "15.00", "Item", itemIDs["Dell XPS 15"], "{}", nil},
		{"Mouse Buy 2 Get 1", "buy_x_get_y", "0", "Item", itemIDs["Logitech MX Master 3"],
			`{"buy_quantity": 2, "get_quantity": 1}`, nil},
		{"Coffee Bulk Deal", "weight_threshold", "50.00", "Item", itemIDs["Single Origin Coffee Beans"],
			`{"threshold_weight": 200}`, ptr("COFFEE50")},
		{"Accessories Promo", "percentage_discount", "10.00", "Category", catIDs["Accessories"], "{}", ptr("ACCESSORIES10")},
		{"Premium Laptops", "percentage_discount", "30.00", "Category", catIDs["Laptops"], "{}", ptr("PREMIUM30")},
	}

	fmt.Println("Seeding Promotions...")
	for _, p := range promos {
		if p.TargetID == 0 {
			log.Printf("Skipping promotion %s: missing target", p.Name)
			continue
		}
		_, err := db.Exec(`
			INSERT INTO promotions (name, promo_type, value, target_type, target_id, start_time, config, promo_code)
			SELECT $1, $2, $3, $4, $5, now(), $6::jsonb, $7
			WHERE NOT EXISTS (SELECT 1 FROM promotions WHERE name = $1);
		`, p.Name, p.Type, p.Value, p.TargetType, p.TargetID, p.Config, p.PromoCode)
		if err != nil {
			log.Printf("Failed to seed promotion %s: %v", p.Name, err)
		}
	}
}

func ptr(s string) *string { return &s }
