package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container and connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	createSchema(t, pool)

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// createSchema applies the shipped schema file so tests exercise the same
// DDL that production runs.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	schema, err := os.ReadFile("../../migrations/schema.sql")
	if err != nil {
		t.Fatalf("failed to read schema file: %v", err)
	}

	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
}

// TestMember bundles the IDs a seeded member needs to place an order.
type TestMember struct {
	ID              uuid.UUID
	AddressID       uuid.UUID
	PaymentMethodID uuid.UUID
}

// SeedMember inserts a member with one address and one payment method.
func SeedMember(t *testing.T, pool *pgxpool.Pool, username string) TestMember {
	t.Helper()

	ctx := context.Background()

	m := TestMember{
		ID:              uuid.New(),
		AddressID:       uuid.New(),
		PaymentMethodID: uuid.New(),
	}

	_, err := pool.Exec(ctx,
		"INSERT INTO members (id, username, name) VALUES ($1, $2, $3)",
		m.ID, username, "Test "+username,
	)
	if err != nil {
		t.Fatalf("failed to seed member %s: %v", username, err)
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO addresses (id, member_id, recipient, line1, city, postal_code)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		m.AddressID, m.ID, "Test "+username, "1 Test Street", "Testville", "12345",
	)
	if err != nil {
		t.Fatalf("failed to seed address: %v", err)
	}

	_, err = pool.Exec(ctx,
		"INSERT INTO payment_methods (id, member_id, alias, provider) VALUES ($1, $2, $3, $4)",
		m.PaymentMethodID, m.ID, "primary card", "testpay",
	)
	if err != nil {
		t.Fatalf("failed to seed payment method: %v", err)
	}

	return m
}

// SeedProducts inserts test product data into the database.
func SeedProducts(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	products := []struct {
		id    string
		name  string
		price string
		stock int
	}{
		{"P001", "Test Product 1", "10000", 10},
		{"P002", "Test Product 2", "20000", 10},
		{"P003", "Test Product 3", "30000", 5},
		{"P004", "Test Product 4", "40000", 1},
		{"P005", "Test Product 5", "50000", 0},
	}

	for _, p := range products {
		_, err := pool.Exec(ctx,
			"INSERT INTO products (id, name, price, category, stock_quantity) VALUES ($1, $2, $3, $4, $5)",
			p.id, p.name, p.price, "Category A", p.stock,
		)
		if err != nil {
			t.Fatalf("failed to seed product %s: %v", p.id, err)
		}
	}
}

// SeedPointBalance grants a member an opening balance, recording the grant
// as an ADJUST ledger entry so the history replays to the balance.
func SeedPointBalance(t *testing.T, pool *pgxpool.Pool, memberID uuid.UUID, balance decimal.Decimal) {
	t.Helper()

	ctx := context.Background()

	_, err := pool.Exec(ctx,
		"INSERT INTO point_balances (member_id, balance) VALUES ($1, $2)",
		memberID, balance,
	)
	if err != nil {
		t.Fatalf("failed to seed point balance: %v", err)
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO point_histories (id, member_id, amount, type, description, balance_after)
		 VALUES ($1, $2, $3, 'ADJUST', 'opening balance', $3)`,
		uuid.New(), memberID, balance,
	)
	if err != nil {
		t.Fatalf("failed to seed point history: %v", err)
	}
}

// SeedDiscount inserts an active fixed-amount discount policy valid for the
// next 24 hours and returns its ID.
func SeedDiscount(t *testing.T, pool *pgxpool.Pool, value, minOrder decimal.Decimal) uuid.UUID {
	t.Helper()

	ctx := context.Background()
	id := uuid.New()
	now := time.Now()

	_, err := pool.Exec(ctx,
		`INSERT INTO discounts (id, name, type, value, minimum_order_amount, active, start_at, end_at)
		 VALUES ($1, $2, 'FIXED_AMOUNT', $3, $4, TRUE, $5, $6)`,
		id, "Test Discount", value, minOrder, now.Add(-time.Hour), now.Add(24*time.Hour),
	)
	if err != nil {
		t.Fatalf("failed to seed discount: %v", err)
	}

	return id
}

// SeedCoupon issues an AVAILABLE coupon for a discount to a member.
func SeedCoupon(t *testing.T, pool *pgxpool.Pool, discountID, memberID uuid.UUID, code string) uuid.UUID {
	t.Helper()

	ctx := context.Background()
	id := uuid.New()

	_, err := pool.Exec(ctx,
		"INSERT INTO coupons (id, discount_id, code, member_id, status) VALUES ($1, $2, $3, $4, 'AVAILABLE')",
		id, discountID, code, memberID,
	)
	if err != nil {
		t.Fatalf("failed to seed coupon %s: %v", code, err)
	}

	return id
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{
		"point_histories", "point_balances",
		"payment_histories", "payments",
		"order_items", "orders",
		"coupons", "discounts",
		"payment_methods", "addresses",
		"products", "members",
	}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
