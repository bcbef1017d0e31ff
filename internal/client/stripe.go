package client

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"shopper-backend/internal/config"

	"github.com/google/uuid"
)

// Tolerance applied to the webhook signature timestamp to blunt replays.
const webhookTolerance = 5 * time.Minute

type CheckoutParams struct {
	OrderID       uint
	AmountCents   int64
	CustomerEmail string
	ProductName   string
}

type CheckoutSession struct {
	SessionID string
	URL       string
}

type StripeClient interface {
	CreateCheckoutSession(ctx context.Context, params *CheckoutParams) (*CheckoutSession, error)
	VerifyWebhookSignature(body []byte, signatureHeader string) error
}

type stripeClientImpl struct {
	httpClient    *http.Client
	baseApiURL    string
	secretKey     string
	webhookSecret string
	successURL    string
	cancelURL     string
	now           func() time.Time
}

type stripeSessionResult struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type stripeErrorResult struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewStripeClient(stripeCfg *config.Stripe) StripeClient {
	return &stripeClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL:    stripeCfg.BaseApiURL,
		secretKey:     stripeCfg.SecretKey,
		webhookSecret: stripeCfg.WebhookSecret,
		successURL:    stripeCfg.SuccessURL,
		cancelURL:     stripeCfg.CancelURL,
		now:           time.Now,
	}
}

func (c *stripeClientImpl) CreateCheckoutSession(ctx context.Context, params *CheckoutParams) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("customer_email", params.CustomerEmail)
	form.Set("client_reference_id", strconv.FormatUint(uint64(params.OrderID), 10))
	form.Set("line_items[0][price_data][currency]", "usd")
	form.Set("line_items[0][price_data][product_data][name]", params.ProductName)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(params.AmountCents, 10))
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", c.successURL+"?session_id={CHECKOUT_SESSION_ID}")
	form.Set("cancel_url", c.cancelURL)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseApiURL+"/v1/checkout/sessions",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stripe create session request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		var stripeErr stripeErrorResult
		if json.Unmarshal(b, &stripeErr) == nil && stripeErr.Error.Message != "" {
			return nil, fmt.Errorf("stripe error %d: %s", resp.StatusCode, stripeErr.Error.Message)
		}
		return nil, fmt.Errorf("stripe error %d: %s", resp.StatusCode, string(b))
	}

	var result stripeSessionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode stripe response: %w", err)
	}

	return &CheckoutSession{
		SessionID: result.ID,
		URL:       result.URL,
	}, nil
}

// VerifyWebhookSignature checks the Stripe-Signature header against the raw
// payload. The header carries `t=<unix>,v1=<hmac>` pairs; the signed string
// is `<t>.<payload>` keyed with the webhook secret.
func (c *stripeClientImpl) VerifyWebhookSignature(body []byte, signatureHeader string) error {
	if signatureHeader == "" {
		return fmt.Errorf("missing signature header")
	}

	var timestamp string
	var candidates []string
	for _, pair := range strings.Split(signatureHeader, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			candidates = append(candidates, value)
		}
	}

	if timestamp == "" || len(candidates) == 0 {
		return fmt.Errorf("malformed signature header")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed signature timestamp")
	}
	if c.now().Sub(time.Unix(ts, 0)).Abs() > webhookTolerance {
		return fmt.Errorf("signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, candidate := range candidates {
		if hmac.Equal([]byte(expected), []byte(candidate)) {
			return nil
		}
	}

	return fmt.Errorf("signature mismatch")
}
