package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shopper-backend/internal/apperr"
	"shopper-backend/internal/dto"
	"shopper-backend/internal/model"
	"shopper-backend/internal/repository"

	"gorm.io/gorm"
)

const minSearchLength = 3

type CatalogService interface {
	ListProducts(ctx context.Context, page, pageSize int) (*dto.PaginatedProducts, error)
	GetProduct(ctx context.Context, productID uint) (*dto.ProductResponse, error)
	SearchProducts(ctx context.Context, query string, page, pageSize int) (*dto.PaginatedProducts, error)
}

type catalogServiceImpl struct {
	productRepo repository.ProductRepository
}

func NewCatalogService(productRepo repository.ProductRepository) CatalogService {
	return &catalogServiceImpl{
		productRepo: productRepo,
	}
}

// pageCount never drops below 1: page 1 of an empty set is a valid, empty
// page rather than an error.
func pageCount(total int64, pageSize int) int {
	pages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if pages < 1 {
		pages = 1
	}
	return pages
}

func checkPage(total int64, page, pageSize int) (int, error) {
	if page < 1 || pageSize < 1 {
		return 0, apperr.E(apperr.KindValidation, "page and page size must be positive")
	}

	pages := pageCount(total, pageSize)
	if total > 0 && page > pages {
		return 0, apperr.E(apperr.KindNotFound, "page does not exist")
	}
	return pages, nil
}

func (s *catalogServiceImpl) ListProducts(ctx context.Context, page, pageSize int) (*dto.PaginatedProducts, error) {
	total, err := s.productRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	pages, err := checkPage(total, page, pageSize)
	if err != nil {
		return nil, err
	}

	products, err := s.productRepo.FindPage(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return &dto.PaginatedProducts{
		TotalPages: pages,
		PerPage:    pageSize,
		Page:       page,
		Data:       toProductResponses(products),
	}, nil
}

func (s *catalogServiceImpl) GetProduct(ctx context.Context, productID uint) (*dto.ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, nil, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.E(apperr.KindNotFound, "product not found")
		}
		return nil, fmt.Errorf("find product: %w", err)
	}

	resp := toProductResponse(product)
	return &resp, nil
}

func (s *catalogServiceImpl) SearchProducts(ctx context.Context, query string, page, pageSize int) (*dto.PaginatedProducts, error) {
	query = strings.TrimSpace(query)
	if len(query) < minSearchLength {
		return nil, apperr.E(apperr.KindValidation, "search query must be at least %d characters", minSearchLength)
	}

	total, err := s.productRepo.CountSearch(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count search results: %w", err)
	}

	pages, err := checkPage(total, page, pageSize)
	if err != nil {
		return nil, err
	}

	products, err := s.productRepo.SearchPage(ctx, query, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}

	return &dto.PaginatedProducts{
		TotalPages: pages,
		PerPage:    pageSize,
		Page:       page,
		Data:       toProductResponses(products),
	}, nil
}

func toProductResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ProductID:   p.ID,
		Name:        p.Name,
		CategoryID:  p.CategoryID,
		Price:       p.Price,
		Description: p.Description,
		ImageURL:    p.ImageURL,
	}
}

func toProductResponses(products []*model.Product) []dto.ProductResponse {
	out := make([]dto.ProductResponse, len(products))
	for i, p := range products {
		out[i] = toProductResponse(p)
	}
	return out
}
