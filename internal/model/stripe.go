package model

// Stripe webhook envelope, trimmed to the fields the order flow reads.

type StripeCheckoutSession struct {
	ID                string `json:"id"`
	ClientReferenceID string `json:"client_reference_id"`
	PaymentStatus     string `json:"payment_status"`
	CustomerEmail     string `json:"customer_email"`
}

type StripeEventData struct {
	Object StripeCheckoutSession `json:"object"`
}

type StripeWebhookEvent struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Created int64           `json:"created"`
	Data    StripeEventData `json:"data"`
}
