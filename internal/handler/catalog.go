package handler

import (
	"net/http"
	"strconv"

	"shopper-backend/internal/apperr"
	"shopper-backend/internal/service"

	"github.com/labstack/echo/v4"
)

const (
	defaultProductPageSize = 20
	maxPageSize            = 100
)

type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

func pageParams(c echo.Context, sizeParam string, defaultSize int) (int, int, error) {
	page := 1
	if raw := c.QueryParam("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return 0, 0, apperr.E(apperr.KindValidation, "page must be a positive integer")
		}
		page = parsed
	}

	size := defaultSize
	if raw := c.QueryParam(sizeParam); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxPageSize {
			return 0, 0, apperr.E(apperr.KindValidation, "%s must be between 1 and %d", sizeParam, maxPageSize)
		}
		size = parsed
	}

	return page, size, nil
}

func (h *CatalogHandler) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()

	page, size, err := pageParams(c, "product_per_page", defaultProductPageSize)
	if err != nil {
		return err
	}

	result, err := h.catalogService.ListProducts(ctx, page, size)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func (h *CatalogHandler) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()

	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return apperr.E(apperr.KindValidation, "invalid product id")
	}

	product, err := h.catalogService.GetProduct(ctx, uint(productID))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()

	page, size, err := pageParams(c, "size", defaultProductPageSize)
	if err != nil {
		return err
	}

	result, err := h.catalogService.SearchProducts(ctx, c.QueryParam("q"), page, size)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}
