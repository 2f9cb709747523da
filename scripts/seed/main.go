package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"storefront/internal/config"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// seedData populates a development database with a demo member, a small
// catalogue and a usable coupon so the API can be exercised end to end.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	memberID := uuid.New()
	addressID := uuid.New()
	methodID := uuid.New()

	_, err = conn.Exec(ctx,
		"INSERT INTO members (id, username, name) VALUES ($1, $2, $3) ON CONFLICT (username) DO NOTHING",
		memberID, "demo", "Demo Member",
	)
	if err != nil {
		log.Fatalf("Failed to seed member: %v", err)
	}

	_, err = conn.Exec(ctx,
		`INSERT INTO addresses (id, member_id, recipient, line1, city, postal_code)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		addressID, memberID, "Demo Member", "42 Demo Avenue", "Demo City", "04524",
	)
	if err != nil {
		log.Fatalf("Failed to seed address: %v", err)
	}

	_, err = conn.Exec(ctx,
		"INSERT INTO payment_methods (id, member_id, alias, provider) VALUES ($1, $2, $3, $4)",
		methodID, memberID, "demo card", "toss",
	)
	if err != nil {
		log.Fatalf("Failed to seed payment method: %v", err)
	}

	products := []struct {
		id    string
		name  string
		price string
		stock int
	}{
		{"SKU-KEYB-001", "Mechanical Keyboard", "89000", 25},
		{"SKU-MOUS-001", "Wireless Mouse", "35000", 40},
		{"SKU-MONI-001", "27in Monitor", "329000", 8},
		{"SKU-DESK-001", "Standing Desk", "450000", 3},
		{"SKU-CHAI-001", "Office Chair", "199000", 12},
	}
	for _, p := range products {
		_, err = conn.Exec(ctx,
			`INSERT INTO products (id, name, price, category, stock_quantity)
			 VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`,
			p.id, p.name, p.price, "office", p.stock,
		)
		if err != nil {
			log.Fatalf("Failed to seed product %s: %v", p.id, err)
		}
	}

	discountID := uuid.New()
	now := time.Now()
	_, err = conn.Exec(ctx,
		`INSERT INTO discounts (id, name, description, type, value, minimum_order_amount, active, start_at, end_at)
		 VALUES ($1, $2, $3, 'FIXED_AMOUNT', $4, $5, TRUE, $6, $7)`,
		discountID, "Welcome Discount", "5000 off the first order over 50000",
		"5000", "50000", now, now.AddDate(0, 1, 0),
	)
	if err != nil {
		log.Fatalf("Failed to seed discount: %v", err)
	}

	_, err = conn.Exec(ctx,
		"INSERT INTO coupons (id, discount_id, code, member_id, status) VALUES ($1, $2, $3, $4, 'AVAILABLE')",
		uuid.New(), discountID, "WELCOME5", memberID,
	)
	if err != nil {
		log.Fatalf("Failed to seed coupon: %v", err)
	}

	_, err = conn.Exec(ctx,
		"INSERT INTO point_balances (member_id, balance) VALUES ($1, $2) ON CONFLICT (member_id) DO NOTHING",
		memberID, "3000",
	)
	if err != nil {
		log.Fatalf("Failed to seed point balance: %v", err)
	}
	_, err = conn.Exec(ctx,
		`INSERT INTO point_histories (id, member_id, amount, type, description, balance_after)
		 VALUES ($1, $2, $3, 'ADJUST', 'welcome points', $3)`,
		uuid.New(), memberID, "3000",
	)
	if err != nil {
		log.Fatalf("Failed to seed point history: %v", err)
	}

	fmt.Println("Seed data created:")
	fmt.Printf("  member:   demo (%s)\n", memberID)
	fmt.Printf("  products: %d\n", len(products))
	fmt.Println("  coupon:   WELCOME5 (5000 off orders over 50000)")
	fmt.Println("  points:   3000")
}
