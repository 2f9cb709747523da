package repository

import (
	"context"
	"fmt"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// memberRepository implements the MemberRepository interface using PostgreSQL.
type memberRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewMemberRepository creates a new PostgreSQL-backed member repository.
func NewMemberRepository(pool *pgxpool.Pool, logger zerolog.Logger) MemberRepository {
	return &memberRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "member").Logger(),
	}
}

// GetByID retrieves a member by ID.
func (r *memberRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Member, error) {
	query := `
		SELECT id, username, name, created_at
		FROM members
		WHERE id = $1
	`

	var m model.Member
	err := r.pool.QueryRow(ctx, query, id).Scan(&m.ID, &m.Username, &m.Name, &m.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("member_id", id.String()).Msg("member not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("member_id", id.String()).Msg("failed to query member")
		return nil, fmt.Errorf("failed to query member: %w", err)
	}

	return &m, nil
}

// GetAddress retrieves an address owned by the given member.
func (r *memberRepository) GetAddress(ctx context.Context, memberID, addressID uuid.UUID) (*model.Address, error) {
	query := `
		SELECT id, member_id, recipient, line1, line2, city, postal_code
		FROM addresses
		WHERE id = $1 AND member_id = $2
	`

	var a model.Address
	err := r.pool.QueryRow(ctx, query, addressID, memberID).Scan(
		&a.ID, &a.MemberID, &a.Recipient, &a.Line1, &a.Line2, &a.City, &a.PostalCode,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("address_id", addressID.String()).Msg("failed to query address")
		return nil, fmt.Errorf("failed to query address: %w", err)
	}

	return &a, nil
}

// GetPaymentMethod retrieves a payment method owned by the given member.
func (r *memberRepository) GetPaymentMethod(ctx context.Context, memberID, methodID uuid.UUID) (*model.PaymentMethod, error) {
	query := `
		SELECT id, member_id, alias, provider
		FROM payment_methods
		WHERE id = $1 AND member_id = $2
	`

	var pm model.PaymentMethod
	err := r.pool.QueryRow(ctx, query, methodID, memberID).Scan(&pm.ID, &pm.MemberID, &pm.Alias, &pm.Provider)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("payment_method_id", methodID.String()).Msg("failed to query payment method")
		return nil, fmt.Errorf("failed to query payment method: %w", err)
	}

	return &pm, nil
}
