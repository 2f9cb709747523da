package service

import (
	"context"
	"testing"
	"time"

	"storefront/internal/cache"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newPointService(t *testing.T) (PointService, *MockPointRepository, *MockTx) {
	t.Helper()
	repo := new(MockPointRepository)
	tx := new(MockTx)
	svc := NewPointService(repo, cache.NewNoop(), zerolog.Nop())
	return svc, repo, tx
}

func TestPointService_Earn(t *testing.T) {
	ctx := context.Background()
	memberID := uuid.New()

	svc, repo, tx := newPointService(t)

	repo.On("BeginTx", ctx).Return(tx, nil)
	repo.On("ApplyChange", ctx, tx, mock.MatchedBy(func(c repository.PointChange) bool {
		return c.MemberID == memberID &&
			c.Amount.Equal(dec("500")) &&
			c.Type == model.PointTypeEarn
	})).Return(&model.PointBalance{MemberID: memberID, Balance: dec("500")}, nil)
	tx.On("Commit", ctx).Return(nil)

	balance, err := svc.Earn(ctx, memberID, dec("500"), "signup bonus", nil)

	require.NoError(t, err)
	assert.True(t, balance.Balance.Equal(dec("500")))

	repo.AssertExpectations(t)
}

func TestPointService_Earn_NonPositiveAmount(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newPointService(t)

	balance, err := svc.Earn(ctx, uuid.New(), dec("0"), "nothing", nil)

	require.Error(t, err)
	assert.Nil(t, balance)
	repo.AssertNotCalled(t, "BeginTx")
}

func TestPointService_Use_NegatesAmount(t *testing.T) {
	ctx := context.Background()
	memberID := uuid.New()
	orderID := uuid.New()

	svc, repo, tx := newPointService(t)

	repo.On("BeginTx", ctx).Return(tx, nil)
	repo.On("ApplyChange", ctx, tx, mock.MatchedBy(func(c repository.PointChange) bool {
		return c.Amount.Equal(dec("-3000")) &&
			c.Type == model.PointTypeUse &&
			c.OrderID != nil && *c.OrderID == orderID
	})).Return(&model.PointBalance{MemberID: memberID, Balance: dec("0")}, nil)
	tx.On("Commit", ctx).Return(nil)

	balance, err := svc.Use(ctx, memberID, dec("3000"), "order payment", &orderID)

	require.NoError(t, err)
	assert.True(t, balance.Balance.Equal(dec("0")))
}

func TestPointService_Use_InsufficientPoints(t *testing.T) {
	ctx := context.Background()
	memberID := uuid.New()

	svc, repo, tx := newPointService(t)

	repo.On("BeginTx", ctx).Return(tx, nil)
	repo.On("ApplyChange", ctx, tx, mock.AnythingOfType("repository.PointChange")).
		Return(nil, model.ErrInsufficientPoints)
	tx.On("Rollback", ctx).Return(nil)

	balance, err := svc.Use(ctx, memberID, dec("99999"), "too much", nil)

	require.Error(t, err)
	assert.Equal(t, model.ErrInsufficientPoints, err)
	assert.Nil(t, balance)
	assert.True(t, tx.rolledBack)
}

func TestPointService_Adjust_Validation(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newPointService(t)

	tests := []struct {
		name string
		req  *model.PointAdjustRequest
	}{
		{
			name: "zero amount",
			req:  &model.PointAdjustRequest{MemberID: uuid.New(), Amount: dec("0"), Description: "noop"},
		},
		{
			name: "missing description",
			req:  &model.PointAdjustRequest{MemberID: uuid.New(), Amount: dec("100")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balance, err := svc.Adjust(ctx, tt.req)
			require.Error(t, err)
			assert.Nil(t, balance)
		})
	}

	repo.AssertNotCalled(t, "BeginTx")
}

func TestPointService_Adjust_NegativeCorrection(t *testing.T) {
	ctx := context.Background()
	memberID := uuid.New()

	svc, repo, tx := newPointService(t)

	repo.On("BeginTx", ctx).Return(tx, nil)
	repo.On("ApplyChange", ctx, tx, mock.MatchedBy(func(c repository.PointChange) bool {
		return c.Amount.Equal(dec("-250")) && c.Type == model.PointTypeAdjust
	})).Return(&model.PointBalance{MemberID: memberID, Balance: dec("750")}, nil)
	tx.On("Commit", ctx).Return(nil)

	balance, err := svc.Adjust(ctx, &model.PointAdjustRequest{
		MemberID:    memberID,
		Amount:      dec("-250"),
		Description: "fraud reversal",
	})

	require.NoError(t, err)
	assert.True(t, balance.Balance.Equal(dec("750")))
}

func TestPointService_GetBalance(t *testing.T) {
	ctx := context.Background()
	memberID := uuid.New()

	svc, repo, _ := newPointService(t)

	repo.On("GetBalance", ctx, memberID).
		Return(&model.PointBalance{MemberID: memberID, Balance: dec("1200")}, nil)

	balance, err := svc.GetBalance(ctx, memberID)

	require.NoError(t, err)
	assert.True(t, balance.Balance.Equal(dec("1200")))
}

func TestPointService_History_DefaultsPagination(t *testing.T) {
	ctx := context.Background()
	memberID := uuid.New()

	svc, repo, _ := newPointService(t)

	repo.On("ListHistory", ctx, memberID, 20, 0).Return([]model.PointHistory{}, nil)

	_, err := svc.History(ctx, memberID, 0, 0)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestPointService_HistoryByPeriod_InvalidRange(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newPointService(t)

	now := time.Now()
	_, err := svc.HistoryByPeriod(ctx, uuid.New(), now, now.Add(-time.Hour), 1, 20)

	require.Error(t, err)
	repo.AssertNotCalled(t, "ListHistoryByPeriod")
}

func TestPointService_HistoryByPeriod(t *testing.T) {
	ctx := context.Background()
	memberID := uuid.New()

	svc, repo, _ := newPointService(t)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	entries := []model.PointHistory{
		{ID: uuid.New(), MemberID: memberID, Amount: dec("170"), Type: model.PointTypeEarn, BalanceAfter: dec("170")},
	}

	repo.On("ListHistoryByPeriod", ctx, memberID, from, to, 20, 0).Return(entries, nil)

	got, err := svc.HistoryByPeriod(ctx, memberID, from, to, 1, 20)

	require.NoError(t, err)
	assert.Len(t, got, 1)
}
