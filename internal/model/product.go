package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalogue product. The core only reads product
// metadata and mutates the stock quantity; everything else belongs to the
// catalogue collaborator.
type Product struct {
	ID            string          `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Price         decimal.Decimal `json:"price" db:"price"`
	Category      string          `json:"category" db:"category"`
	StockQuantity int             `json:"stockQuantity" db:"stock_quantity"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
}
