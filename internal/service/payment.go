package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"shopper-backend/internal/apperr"
	"shopper-backend/internal/client"
	"shopper-backend/internal/dto"
	"shopper-backend/internal/model"
	"shopper-backend/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const eventCheckoutCompleted = "checkout.session.completed"

type PaymentService interface {
	CreateCheckoutSession(ctx context.Context, user *model.User, orderID uint) (*dto.CheckoutResponse, error)
	HandleWebhook(ctx context.Context, body []byte, signatureHeader string) error
}

type paymentServiceImpl struct {
	db               *gorm.DB
	stripeClient     client.StripeClient
	orderRepo        repository.OrderRepository
	webhookEventRepo repository.WebhookEventRepository
	log              *slog.Logger
}

func NewPaymentService(
	db *gorm.DB,
	stripeClient client.StripeClient,
	orderRepo repository.OrderRepository,
	webhookEventRepo repository.WebhookEventRepository,
	log *slog.Logger,
) PaymentService {
	return &paymentServiceImpl{
		db:               db,
		stripeClient:     stripeClient,
		orderRepo:        orderRepo,
		webhookEventRepo: webhookEventRepo,
		log:              log,
	}
}

func (s *paymentServiceImpl) CreateCheckoutSession(ctx context.Context, user *model.User, orderID uint) (*dto.CheckoutResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.E(apperr.KindNotFound, "order not found")
		}
		return nil, fmt.Errorf("find order: %w", err)
	}

	if order.UserID != user.ID {
		return nil, apperr.E(apperr.KindForbidden, "not authorized to pay for this order")
	}

	session, err := s.stripeClient.CreateCheckoutSession(ctx, &client.CheckoutParams{
		OrderID:       order.ID,
		AmountCents:   order.TotalPrice.Mul(decimal.NewFromInt(100)).IntPart(),
		CustomerEmail: user.Email,
		ProductName:   fmt.Sprintf("Order #%d", order.ID),
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "create checkout session")
	}

	return &dto.CheckoutResponse{CheckoutURL: session.URL}, nil
}

// HandleWebhook verifies the gateway signature before reading the payload
// at all, then applies a completed checkout as a pending→paid transition.
// Delivery is at-least-once, so everything past the signature check must be
// safe to replay.
func (s *paymentServiceImpl) HandleWebhook(ctx context.Context, body []byte, signatureHeader string) error {
	if err := s.stripeClient.VerifyWebhookSignature(body, signatureHeader); err != nil {
		return apperr.Wrap(apperr.KindValidation, err, "invalid signature")
	}

	var event model.StripeWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return apperr.Wrap(apperr.KindValidation, err, "invalid payload")
	}

	if event.Type != eventCheckoutCompleted {
		s.log.Debug("ignoring webhook event", "type", event.Type)
		return nil
	}

	if event.ID != "" {
		processed, err := s.webhookEventRepo.Exists(ctx, event.ID)
		if err != nil {
			return fmt.Errorf("check webhook event: %w", err)
		}
		if processed {
			s.log.Info("webhook event already processed", "event_id", event.ID)
			return nil
		}
	}

	reference := event.Data.Object.ClientReferenceID
	if reference == "" {
		// nothing to correlate; ack so the gateway stops retrying
		s.log.Warn("completed checkout without client reference", "event_id", event.ID)
		return nil
	}

	orderID, err := strconv.ParseUint(reference, 10, 64)
	if err != nil {
		s.log.Warn("unparseable client reference", "event_id", event.ID, "reference", reference)
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changed, err := s.orderRepo.MarkPaid(ctx, tx, uint(orderID))
		if err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}
		if !changed {
			// unknown order or already paid: both are acked as success
			s.log.Info("no pending order for completed checkout", "order_id", orderID, "event_id", event.ID)
		}

		if event.ID != "" {
			if err := s.webhookEventRepo.MarkProcessed(ctx, tx, event.ID, event.Type); err != nil {
				return fmt.Errorf("record webhook event: %w", err)
			}
		}
		return nil
	})
}
