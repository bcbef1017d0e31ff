package repository

import (
	"context"
	"time"

	"shopper-backend/internal/model"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	FindByID(ctx context.Context, orderID uint) (*model.Order, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
	FindPageByUser(ctx context.Context, userID uint, offset, limit int) ([]*model.Order, error)
	MarkPaid(ctx context.Context, tx *gorm.DB, orderID uint) (bool, error)
	MarkCanceled(ctx context.Context, tx *gorm.DB, orderID uint) (bool, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

// Create inserts the order and its items in one shot; gorm cascades the
// Items association, so within tx the write is all-or-nothing.
func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, orderID uint) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("user_id = ?", userID).
		Count(&count).Error

	return count, err
}

func (r *orderRepoImpl) FindPageByUser(ctx context.Context, userID uint, offset, limit int) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}

// MarkPaid flips a pending order to paid. The status guard in the WHERE
// clause is what makes webhook replays no-ops: a second delivery matches
// zero rows and reports changed=false.
func (r *orderRepoImpl) MarkPaid(ctx context.Context, tx *gorm.DB, orderID uint) (bool, error) {
	return r.transition(ctx, tx, orderID, model.OrderStatusPaid)
}

func (r *orderRepoImpl) MarkCanceled(ctx context.Context, tx *gorm.DB, orderID uint) (bool, error) {
	return r.transition(ctx, tx, orderID, model.OrderStatusCanceled)
}

func (r *orderRepoImpl) transition(ctx context.Context, tx *gorm.DB, orderID uint, status string) (bool, error) {
	if tx == nil {
		tx = r.db
	}

	result := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, model.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}
