package main

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dinepos/api/internal/config"
	"github.com/dinepos/api/internal/enum"
	"github.com/dinepos/api/internal/model"
	"github.com/dinepos/api/internal/store"
)

// Seeds the database with a demo menu and a starter floor plan so the
// API is usable out of the box. Safe to run once against a fresh
// database; re-running fails on version conflicts instead of
// duplicating rows.
func main() {
	cfg := config.Load()
	ctx := context.Background()

	st, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer st.Close()

	menu := []model.MenuItem{
		{Name: "Butter Chicken", Category: "mains", Price: decimal.NewFromInt(320), Available: true, PrepMinutes: 20},
		{Name: "Paneer Tikka", Category: "starters", Price: decimal.NewFromInt(240), Available: true, PrepMinutes: 15},
		{Name: "Garlic Naan", Category: "breads", Price: decimal.NewFromInt(60), Available: true, PrepMinutes: 8},
		{Name: "Dal Makhani", Category: "mains", Price: decimal.NewFromInt(220), Available: true, PrepMinutes: 18},
		{Name: "Masala Chai", Category: "beverages", Price: decimal.NewFromInt(40), Available: true, PrepMinutes: 5},
		{Name: "Gulab Jamun", Category: "desserts", Price: decimal.NewFromInt(90), Available: true, PrepMinutes: 5},
	}
	for _, m := range menu {
		m.ID = uuid.New()
		if _, err := st.PutMenuItem(ctx, m); err != nil {
			log.Fatalf("seed menu item %q: %v", m.Name, err)
		}
		log.Printf("menu item %q -> %s", m.Name, m.ID)
	}

	sections := map[int]string{1: "window", 2: "window", 3: "main", 4: "main", 5: "main", 6: "patio"}
	for number := 1; number <= 6; number++ {
		t := model.Table{
			Number:   number,
			Capacity: 4,
			Status:   enum.TableStatusAvailable,
			Section:  sections[number],
		}
		if _, err := st.PutTable(ctx, t); err != nil {
			log.Fatalf("seed table %d: %v", number, err)
		}
		log.Printf("table %d (%s)", number, t.Section)
	}

	log.Println("seed complete")
}
