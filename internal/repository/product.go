package repository

import (
	"context"

	"shopper-backend/internal/model"

	"gorm.io/gorm"
)

type ProductRepository interface {
	FindByID(ctx context.Context, tx *gorm.DB, productID uint) (*model.Product, error)
	Count(ctx context.Context) (int64, error)
	FindPage(ctx context.Context, offset, limit int) ([]*model.Product, error)
	CountSearch(ctx context.Context, query string) (int64, error)
	SearchPage(ctx context.Context, query string, offset, limit int) ([]*model.Product, error)
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

// FindByID reads through tx when given one so order creation can freeze
// prices inside the same transaction that writes the order.
func (r *productRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, productID uint) (*model.Product, error) {
	if tx == nil {
		tx = r.db
	}

	var product model.Product
	err := tx.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Count(&count).Error
	return count, err
}

func (r *productRepoImpl) FindPage(ctx context.Context, offset, limit int) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&products).Error

	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) searchScope(query string) *gorm.DB {
	pattern := "%" + query + "%"
	return r.db.Model(&model.Product{}).
		Where("LOWER(name) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", pattern, pattern)
}

func (r *productRepoImpl) CountSearch(ctx context.Context, query string) (int64, error) {
	var count int64
	err := r.searchScope(query).WithContext(ctx).Count(&count).Error
	return count, err
}

func (r *productRepoImpl) SearchPage(ctx context.Context, query string, offset, limit int) ([]*model.Product, error) {
	var products []*model.Product
	err := r.searchScope(query).WithContext(ctx).
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&products).Error

	if err != nil {
		return nil, err
	}

	return products, nil
}
