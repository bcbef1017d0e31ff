package server

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shopper-backend/internal/client"
	"shopper-backend/internal/config"
	"shopper-backend/internal/dto"
	"shopper-backend/internal/mailer"
	"shopper-backend/internal/model"
	"shopper-backend/internal/repository"
	"shopper-backend/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const webhookSecret = "whsec_test"

type nopMailer struct{}

var _ mailer.Mailer = nopMailer{}

func (nopMailer) SendWelcome(string, string)                         {}
func (nopMailer) SendPasswordReset(string, string)                   {}
func (nopMailer) SendOrderConfirmation(string, string, *model.Order) {}
func (nopMailer) Close()                                             {}

type testApp struct {
	srv *Server
	db  *gorm.DB
}

func newTestApp(t *testing.T, stripeURL string) *testApp {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Product{}, &model.Order{}, &model.OrderItem{}, &model.WebhookEvent{},
	))

	stripeClient := client.NewStripeClient(&config.Stripe{
		BaseApiURL:    stripeURL,
		SecretKey:     "sk_test_123",
		WebhookSecret: webhookSecret,
		SuccessURL:    "https://shop.test/success",
		CancelURL:     "https://shop.test/cancel",
	})

	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	log := slog.Default()
	userService := service.NewUserService(userRepo, nopMailer{}, "test-secret", 15*time.Minute)
	catalogService := service.NewCatalogService(productRepo)
	orderService := service.NewOrderService(db, orderRepo, productRepo, nopMailer{})
	paymentService := service.NewPaymentService(db, stripeClient, orderRepo, webhookEventRepo, log)

	return &testApp{
		srv: NewServer(userService, catalogService, orderService, paymentService, log),
		db:  db,
	}
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if raw, ok := body.([]byte); ok {
		reader = bytes.NewReader(raw)
	} else if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	rec := httptest.NewRecorder()
	a.srv.echo.ServeHTTP(rec, req)
	return rec
}

func signWebhook(body []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	fmt.Fprintf(mac, "%d.%s", ts, body)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

// Full journey: register, login, order 2 × $3.50, pay via webhook.
func TestCheckoutJourney(t *testing.T) {
	stripeStub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"cs_test_123","url":"https://checkout.stripe.com/c/pay/cs_test_123"}`)
	}))
	defer stripeStub.Close()

	app := newTestApp(t, stripeStub.URL)

	require.NoError(t, app.db.Create(&model.Product{
		Name: "Apples", CategoryID: 1, Price: decimal.RequireFromString("3.50"),
	}).Error)

	rec := app.do(t, http.MethodPost, "/register", "", dto.RegisterRequest{
		Name: "Alice", Email: "a@b.com", Role: "customer", Password: "password123",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.do(t, http.MethodPost, "/login", "", map[string]string{
		"email": "a@b.com", "password": "password123",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var login dto.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.AccessToken)

	rec = app.do(t, http.MethodPost, "/orders/create-order", login.AccessToken, dto.CreateOrderRequest{
		ShippingAddress: "1 Main St",
		Items:           []dto.OrderItemRequest{{ProductID: 1, Quantity: 2}},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var order dto.OrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	require.Equal(t, model.OrderStatusPending, order.Status)
	require.True(t, order.TotalPrice.Equal(decimal.RequireFromString("7.00")),
		"expected 7.00, got %s", order.TotalPrice)

	rec = app.do(t, http.MethodPost, "/orders/create-checkout-session", login.AccessToken,
		dto.CheckoutRequest{OrderID: order.ID}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var checkout dto.CheckoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &checkout))
	require.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_123", checkout.CheckoutURL)

	event := []byte(fmt.Sprintf(
		`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_test_123","client_reference_id":"%d"}}}`,
		order.ID,
	))
	rec = app.do(t, http.MethodPost, "/orders/webhook", "", event,
		map[string]string{"Stripe-Signature": signWebhook(event)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stored model.Order
	require.NoError(t, app.db.First(&stored, order.ID).Error)
	require.Equal(t, model.OrderStatusPaid, stored.Status)

	// replayed delivery stays a success and a no-op
	rec = app.do(t, http.MethodPost, "/orders/webhook", "", event,
		map[string]string{"Stripe-Signature": signWebhook(event)})
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, app.db.First(&stored, order.ID).Error)
	require.Equal(t, model.OrderStatusPaid, stored.Status)
}

func TestWebhookBadSignatureRejected(t *testing.T) {
	app := newTestApp(t, "http://stripe.invalid")

	event := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{}}}`)
	rec := app.do(t, http.MethodPost, "/orders/webhook", "", event,
		map[string]string{"Stripe-Signature": "t=1,v1=forged"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrdersRequireAuth(t *testing.T) {
	app := newTestApp(t, "http://stripe.invalid")

	rec := app.do(t, http.MethodGet, "/orders", "", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(t, http.MethodGet, "/orders", "garbage-token", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSearchValidationOverHTTP(t *testing.T) {
	app := newTestApp(t, "http://stripe.invalid")

	rec := app.do(t, http.MethodGet, "/products/search?q=ab", "", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodGet, "/products/search?q=abc", "", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page dto.PaginatedProducts
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Empty(t, page.Data)
}

func TestDuplicateRegistrationConflicts(t *testing.T) {
	app := newTestApp(t, "http://stripe.invalid")

	body := dto.RegisterRequest{Name: "Alice", Email: "a@b.com", Password: "password123"}
	rec := app.do(t, http.MethodPost, "/register", "", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodPost, "/register", "", body, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestProfileRoundTrip(t *testing.T) {
	app := newTestApp(t, "http://stripe.invalid")

	rec := app.do(t, http.MethodPost, "/register", "", dto.RegisterRequest{
		Name: "Alice", Email: "a@b.com", Role: "customer", Password: "password123",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodPost, "/login", "", map[string]string{
		"email": "a@b.com", "password": "password123",
	}, nil)
	var login dto.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	rec = app.do(t, http.MethodGet, "/profile", login.AccessToken, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var profile dto.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	require.Equal(t, "a@b.com", profile.Email)
}
