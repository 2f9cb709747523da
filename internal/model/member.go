package model

import (
	"time"

	"github.com/google/uuid"
)

// Member represents a registered customer. The core does not own member
// management; it only reads members and their saved addresses and payment
// methods.
type Member struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Address is a saved delivery address belonging to a member.
type Address struct {
	ID         uuid.UUID `json:"id" db:"id"`
	MemberID   uuid.UUID `json:"-" db:"member_id"`
	Recipient  string    `json:"recipient" db:"recipient"`
	Line1      string    `json:"line1" db:"line1"`
	Line2      string    `json:"line2,omitempty" db:"line2"`
	City       string    `json:"city" db:"city"`
	PostalCode string    `json:"postalCode" db:"postal_code"`
}

// PaymentMethod is a saved payment instrument belonging to a member.
type PaymentMethod struct {
	ID       uuid.UUID `json:"id" db:"id"`
	MemberID uuid.UUID `json:"-" db:"member_id"`
	Alias    string    `json:"alias" db:"alias"`
	Provider string    `json:"provider" db:"provider"`
}
