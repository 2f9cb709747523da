package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"storefront/internal/cache"
	"storefront/internal/gateway"
	"storefront/internal/handler"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "integration-test-secret"

// stubGateway approves every confirmation so the flow tests run without the
// external provider.
type stubGateway struct{}

func (stubGateway) ClientKey() string { return "test_client_key" }

func (stubGateway) Confirm(_ context.Context, _, _ string, _ decimal.Decimal) (*gateway.ConfirmResult, error) {
	return &gateway.ConfirmResult{Method: "CARD", CardNumber: "1234-56**-****-789*", CardCompany: "TestCard"}, nil
}

func (stubGateway) Cancel(_ context.Context, _, _ string) error { return nil }

type apiClaims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

func bearerToken(t *testing.T, memberID uuid.UUID, roles ...string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, apiClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   memberID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles: roles,
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func setupTestServer(t *testing.T, testDB *TestDB) http.Handler {
	t.Helper()

	logger := zerolog.Nop()

	memberRepo := repository.NewMemberRepository(testDB.Pool, logger)
	productRepo := repository.NewProductRepository(testDB.Pool, logger)
	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)
	paymentRepo := repository.NewPaymentRepository(testDB.Pool, logger)
	pointRepo := repository.NewPointRepository(testDB.Pool, logger)
	discountRepo := repository.NewDiscountRepository(testDB.Pool, logger)
	couponRepo := repository.NewCouponRepository(testDB.Pool, logger)

	gw := stubGateway{}
	noop := cache.NewNoop()
	accrualRate := decimal.NewFromFloat(0.01)

	productService := service.NewProductService(productRepo, noop, logger)
	orderService := service.NewOrderService(
		orderRepo, memberRepo, productRepo, pointRepo, couponRepo,
		discountRepo, paymentRepo, gw, noop, accrualRate, logger,
	)
	paymentService := service.NewPaymentService(paymentRepo, orderRepo, gw, logger)
	pointService := service.NewPointService(pointRepo, noop, logger)
	couponService := service.NewCouponService(couponRepo, discountRepo, memberRepo, logger)
	discountService := service.NewDiscountService(discountRepo, logger)

	return router.New(router.Handlers{
		Product:  handler.NewProductHandler(productService, logger),
		Order:    handler.NewOrderHandler(orderService, logger),
		Payment:  handler.NewPaymentHandler(paymentService, logger),
		Point:    handler.NewPointHandler(pointService, logger),
		Coupon:   handler.NewCouponHandler(couponService, logger),
		Discount: handler.NewDiscountHandler(discountService, logger),
	}, testJWTSecret, logger)
}

// doJSON sends an authenticated JSON request and returns the recorder.
func doJSON(t *testing.T, server http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func TestOrderFlow_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	server := setupTestServer(t, testDB)

	CleanupDB(t, testDB.Pool)
	SeedProducts(t, testDB.Pool)
	member := SeedMember(t, testDB.Pool, "flowuser")
	SeedPointBalance(t, testDB.Pool, member.ID, decimal.NewFromInt(2000))
	discountID := SeedDiscount(t, testDB.Pool, decimal.NewFromInt(5000), decimal.Zero)
	SeedCoupon(t, testDB.Pool, discountID, member.ID, "FLOW5000")

	token := bearerToken(t, member.ID)

	// Place the order: 2 x P001 at 10000, 5000 coupon, 1000 points.
	couponCode := "FLOW5000"
	w := doJSON(t, server, http.MethodPost, "/api/orders", token, model.OrderRequest{
		DeliveryAddressID: member.AddressID,
		PaymentMethodID:   member.PaymentMethodID,
		Items: []model.OrderItemRequest{
			{ProductID: "P001", Quantity: 2},
		},
		UsePoints:  decimal.NewFromInt(1000),
		CouponCode: &couponCode,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	order := decodeBody[model.OrderResponse](t, w)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(14000)), order.TotalAmount.String())
	assert.True(t, order.DiscountAmount.Equal(decimal.NewFromInt(5000)))
	assert.True(t, order.UsedPoints.Equal(decimal.NewFromInt(1000)))
	assert.True(t, order.EarnedPoints.Equal(decimal.NewFromInt(140)))

	// Stock and points were reserved at creation.
	var stock int
	require.NoError(t, testDB.Pool.QueryRow(context.Background(),
		"SELECT stock_quantity FROM products WHERE id = 'P001'").Scan(&stock))
	assert.Equal(t, 8, stock)

	w = doJSON(t, server, http.MethodGet, "/api/points/balance", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	balance := decodeBody[model.PointBalance](t, w)
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(1000)))

	// Prepare and confirm the payment.
	w = doJSON(t, server, http.MethodPost, "/api/payments/prepare", token, model.PaymentPrepareRequest{
		OrderNumber: order.OrderNumber,
		Amount:      order.TotalAmount,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	prepared := decodeBody[model.PaymentPrepareResponse](t, w)
	assert.Equal(t, "test_client_key", prepared.ClientKey)
	assert.Equal(t, order.OrderNumber, prepared.OrderNumber)

	w = doJSON(t, server, http.MethodPost, "/api/payments/confirm", token, model.PaymentConfirmRequest{
		PaymentKey:  "pay_flow_1",
		OrderNumber: order.OrderNumber,
		Amount:      order.TotalAmount,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, server, http.MethodGet, "/api/orders/"+order.OrderNumber, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	paid := decodeBody[model.OrderResponse](t, w)
	assert.Equal(t, model.OrderStatusPaid, paid.Status)

	// Buyer confirmation credits the earned points exactly once.
	w = doJSON(t, server, http.MethodPost, "/api/orders/"+order.OrderNumber+"/confirm", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, server, http.MethodPost, "/api/orders/"+order.OrderNumber+"/confirm", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, server, http.MethodGet, "/api/points/balance", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	balance = decodeBody[model.PointBalance](t, w)
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(1140)), balance.Balance.String())

	// The ledger replays to the balance.
	var ledgerSum decimal.Decimal
	require.NoError(t, testDB.Pool.QueryRow(context.Background(),
		"SELECT COALESCE(SUM(amount), 0) FROM point_histories WHERE member_id = $1",
		member.ID).Scan(&ledgerSum))
	assert.True(t, ledgerSum.Equal(balance.Balance))
}

func TestOrderAPI_CouponSingleUse(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	server := setupTestServer(t, testDB)

	CleanupDB(t, testDB.Pool)
	SeedProducts(t, testDB.Pool)
	member := SeedMember(t, testDB.Pool, "couponuser")
	discountID := SeedDiscount(t, testDB.Pool, decimal.NewFromInt(2000), decimal.Zero)
	SeedCoupon(t, testDB.Pool, discountID, member.ID, "ONCE2000")

	token := bearerToken(t, member.ID)
	couponCode := "ONCE2000"
	orderReq := model.OrderRequest{
		DeliveryAddressID: member.AddressID,
		PaymentMethodID:   member.PaymentMethodID,
		Items:             []model.OrderItemRequest{{ProductID: "P002", Quantity: 1}},
		CouponCode:        &couponCode,
	}

	w := doJSON(t, server, http.MethodPost, "/api/orders", token, orderReq)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, server, http.MethodPost, "/api/orders", token, orderReq)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	errResp := decodeBody[model.ErrorResponse](t, w)
	assert.Equal(t, model.ErrCodeInvalidCoupon, errResp.Error)
}

func TestOrderAPI_NoOversell(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	server := setupTestServer(t, testDB)

	CleanupDB(t, testDB.Pool)
	SeedProducts(t, testDB.Pool)

	// P004 has a single unit; two members race for it.
	members := []TestMember{
		SeedMember(t, testDB.Pool, "racer1"),
		SeedMember(t, testDB.Pool, "racer2"),
	}

	tokens := make([]string, len(members))
	for i, m := range members {
		tokens[i] = bearerToken(t, m.ID)
	}

	codes := make([]int, len(members))
	var wg sync.WaitGroup
	for i, m := range members {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := doJSON(t, server, http.MethodPost, "/api/orders", tokens[i], model.OrderRequest{
				DeliveryAddressID: m.AddressID,
				PaymentMethodID:   m.PaymentMethodID,
				Items:             []model.OrderItemRequest{{ProductID: "P004", Quantity: 1}},
			})
			codes[i] = w.Code
		}()
	}
	wg.Wait()

	created, conflicted := 0, 0
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicted++
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, conflicted)

	var stock int
	require.NoError(t, testDB.Pool.QueryRow(context.Background(),
		"SELECT stock_quantity FROM products WHERE id = 'P004'").Scan(&stock))
	assert.Equal(t, 0, stock)
}

func TestPaymentAPI_AmountMismatchLeavesOrderPending(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	server := setupTestServer(t, testDB)

	CleanupDB(t, testDB.Pool)
	SeedProducts(t, testDB.Pool)
	member := SeedMember(t, testDB.Pool, "mismatcher")
	token := bearerToken(t, member.ID)

	w := doJSON(t, server, http.MethodPost, "/api/orders", token, model.OrderRequest{
		DeliveryAddressID: member.AddressID,
		PaymentMethodID:   member.PaymentMethodID,
		Items:             []model.OrderItemRequest{{ProductID: "P003", Quantity: 1}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decodeBody[model.OrderResponse](t, w)

	w = doJSON(t, server, http.MethodPost, "/api/payments/prepare", token, model.PaymentPrepareRequest{
		OrderNumber: order.OrderNumber,
		Amount:      order.TotalAmount,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, server, http.MethodPost, "/api/payments/confirm", token, model.PaymentConfirmRequest{
		PaymentKey:  "pay_mismatch",
		OrderNumber: order.OrderNumber,
		Amount:      order.TotalAmount.Add(decimal.NewFromInt(1)),
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, server, http.MethodGet, "/api/orders/"+order.OrderNumber, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	unchanged := decodeBody[model.OrderResponse](t, w)
	assert.Equal(t, model.OrderStatusPending, unchanged.Status)
}

func TestOrderAPI_CancelRestoresReservations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	server := setupTestServer(t, testDB)

	CleanupDB(t, testDB.Pool)
	SeedProducts(t, testDB.Pool)
	member := SeedMember(t, testDB.Pool, "canceller")
	SeedPointBalance(t, testDB.Pool, member.ID, decimal.NewFromInt(500))
	token := bearerToken(t, member.ID)

	w := doJSON(t, server, http.MethodPost, "/api/orders", token, model.OrderRequest{
		DeliveryAddressID: member.AddressID,
		PaymentMethodID:   member.PaymentMethodID,
		Items:             []model.OrderItemRequest{{ProductID: "P002", Quantity: 2}},
		UsePoints:         decimal.NewFromInt(500),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decodeBody[model.OrderResponse](t, w)

	w = doJSON(t, server, http.MethodPost, "/api/orders/"+order.OrderNumber+"/cancel", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cancelled := decodeBody[model.OrderResponse](t, w)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)

	var stock int
	require.NoError(t, testDB.Pool.QueryRow(context.Background(),
		"SELECT stock_quantity FROM products WHERE id = 'P002'").Scan(&stock))
	assert.Equal(t, 10, stock)

	w = doJSON(t, server, http.MethodGet, "/api/points/balance", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	balance := decodeBody[model.PointBalance](t, w)
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(500)))

	// A cancelled order stays cancelled.
	w = doJSON(t, server, http.MethodPost, "/api/orders/"+order.OrderNumber+"/cancel", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAdminAPI_RoleRequired(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	server := setupTestServer(t, testDB)

	CleanupDB(t, testDB.Pool)
	member := SeedMember(t, testDB.Pool, "plainuser")
	admin := SeedMember(t, testDB.Pool, "adminuser")

	discountReq := model.DiscountRequest{
		Name:    "Launch Sale",
		Type:    model.DiscountTypeFixedAmount,
		Value:   decimal.NewFromInt(3000),
		StartAt: time.Now().Add(-time.Hour),
		EndAt:   time.Now().Add(24 * time.Hour),
	}

	w := doJSON(t, server, http.MethodPost, "/api/discounts", bearerToken(t, member.ID), discountReq)
	assert.Equal(t, http.StatusForbidden, w.Code)

	adminToken := bearerToken(t, admin.ID, "ADMIN")
	w = doJSON(t, server, http.MethodPost, "/api/discounts", adminToken, discountReq)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody[model.Discount](t, w)

	w = doJSON(t, server, http.MethodPost, "/api/coupons", adminToken, model.CouponRequest{
		DiscountID: created.ID,
		MemberID:   member.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, server, http.MethodDelete, fmt.Sprintf("/api/discounts/%s", created.ID), adminToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Adjust is admin-only as well.
	w = doJSON(t, server, http.MethodPost, "/api/points/adjust", bearerToken(t, member.ID), model.PointAdjustRequest{
		MemberID: member.ID,
		Amount:   decimal.NewFromInt(100),
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, server, http.MethodPost, "/api/points/adjust", adminToken, model.PointAdjustRequest{
		MemberID:    member.ID,
		Amount:      decimal.NewFromInt(100),
		Description: "goodwill credit",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	balance := decodeBody[model.PointBalance](t, w)
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(100)))
}

func TestHealthEndpoint_NoAuth(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	server := setupTestServer(t, testDB)

	w := doJSON(t, server, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "healthy"}`, w.Body.String())
}
