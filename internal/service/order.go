package service

import (
	"context"
	"errors"
	"fmt"

	"shopper-backend/internal/apperr"
	"shopper-backend/internal/dto"
	"shopper-backend/internal/mailer"
	"shopper-backend/internal/model"
	"shopper-backend/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderService interface {
	CreateOrder(ctx context.Context, user *model.User, req *dto.CreateOrderRequest) (*dto.OrderResponse, error)
	ListOrders(ctx context.Context, user *model.User, page, pageSize int) (*dto.PaginatedOrders, error)
	CancelOrder(ctx context.Context, user *model.User, orderID uint) error
}

type orderServiceImpl struct {
	db          *gorm.DB
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	mailer      mailer.Mailer
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	m mailer.Mailer,
) OrderService {
	return &orderServiceImpl{
		db:          db,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		mailer:      m,
	}
}

// CreateOrder resolves products, freezes their unit prices and writes the
// order with its items in one transaction, so the price a buyer is charged
// is the price that was live when the order row was written.
func (s *orderServiceImpl) CreateOrder(ctx context.Context, user *model.User, req *dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	if req.ShippingAddress == "" {
		return nil, apperr.E(apperr.KindValidation, "shipping address is required")
	}
	if len(req.Items) == 0 {
		return nil, apperr.E(apperr.KindValidation, "order must contain at least one item")
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, apperr.E(apperr.KindValidation, "item quantity must be positive")
		}
	}

	order := &model.Order{
		UserID:          user.ID,
		Status:          model.OrderStatusPending,
		ShippingAddress: req.ShippingAddress,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		totalPrice := decimal.Zero
		orderItems := make([]model.OrderItem, len(req.Items))

		for i, item := range req.Items {
			product, err := s.productRepo.FindByID(ctx, tx, item.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.E(apperr.KindNotFound, "product %d not found", item.ProductID)
				}
				return fmt.Errorf("find product %d: %w", item.ProductID, err)
			}

			totalPrice = totalPrice.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
			orderItems[i] = model.OrderItem{
				ProductID:       product.ID,
				Quantity:        item.Quantity,
				PriceAtPurchase: product.Price,
			}
		}

		order.TotalPrice = totalPrice
		order.Items = orderItems

		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order in db: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// best-effort, after the commit
	s.mailer.SendOrderConfirmation(user.Email, user.Name, order)

	return toOrderResponse(order), nil
}

func (s *orderServiceImpl) ListOrders(ctx context.Context, user *model.User, page, pageSize int) (*dto.PaginatedOrders, error) {
	total, err := s.orderRepo.CountByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	pages, err := checkPage(total, page, pageSize)
	if err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.FindPageByUser(ctx, user.ID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	data := make([]dto.OrderResponse, len(orders))
	for i, order := range orders {
		data[i] = *toOrderResponse(order)
	}

	return &dto.PaginatedOrders{
		TotalPages: pages,
		PerPage:    pageSize,
		Page:       page,
		Data:       data,
	}, nil
}

// CancelOrder moves a pending order to canceled. Paid orders stay paid;
// refunds are a product decision that hasn't been made.
func (s *orderServiceImpl) CancelOrder(ctx context.Context, user *model.User, orderID uint) error {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.E(apperr.KindNotFound, "order not found")
		}
		return fmt.Errorf("find order: %w", err)
	}

	if order.UserID != user.ID {
		return apperr.E(apperr.KindForbidden, "not authorized to cancel this order")
	}

	changed, err := s.orderRepo.MarkCanceled(ctx, nil, orderID)
	if err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}
	if !changed {
		return apperr.E(apperr.KindConflict, "only pending orders can be canceled")
	}

	return nil
}

func toOrderResponse(order *model.Order) *dto.OrderResponse {
	items := make([]dto.OrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = dto.OrderItemResponse{
			ID:              item.ID,
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.PriceAtPurchase,
		}
	}

	return &dto.OrderResponse{
		ID:              order.ID,
		UserID:          order.UserID,
		TotalPrice:      order.TotalPrice,
		Status:          order.Status,
		ShippingAddress: order.ShippingAddress,
		CreatedAt:       order.CreatedAt,
		Items:           items,
	}
}
