package service

import (
	"context"
	"fmt"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	authorizer  auth.Authorizer
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, authorizer auth.Authorizer, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		authorizer:  authorizer,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// GetAll retrieves all products with pagination.
func (s *productService) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	products, err := s.productRepo.GetAll(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to get all products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("limit", limit).
		Int("offset", offset).
		Msg("retrieved products")

	return products, nil
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	if id <= 0 {
		s.logger.Warn().Int64("product_id", id).Msg("invalid product ID")
		return nil, model.ErrProductNotFound
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Int64("product_id", id).Msg("product not found")
		return nil, &model.ProductNotFoundError{ProductID: id}
	}

	return product, nil
}

func (s *productService) SetStock(ctx context.Context, actorID, productID int64, stock int) (*model.Product, error) {
	if err := auth.Require(ctx, s.authorizer, actorID, model.RoleProductManager); err != nil {
		return nil, err
	}
	if stock < 0 {
		return nil, model.ErrInvalidStock
	}

	product, err := s.productRepo.SetStock(ctx, productID, stock)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("product_id", productID).
		Int64("actor_id", actorID).
		Int("stock", stock).
		Msg("stock updated")
	return product, nil
}

func (s *productService) UpdatePricing(ctx context.Context, actorID, productID int64, req *model.PricingUpdateRequest) (*model.Product, error) {
	if err := auth.Require(ctx, s.authorizer, actorID, model.RoleSalesManager); err != nil {
		return nil, err
	}
	if req == nil || (req.Price == nil && req.DiscountPrice == nil && req.Cost == nil) {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "At least one of price, discountprice or cost is required")
	}
	for _, v := range []*decimal.Decimal{req.Price, req.DiscountPrice, req.Cost} {
		if v != nil && v.IsNegative() {
			return nil, model.ErrInvalidPrice
		}
	}

	product, err := s.productRepo.UpdatePricing(ctx, productID, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("product_id", productID).
		Int64("actor_id", actorID).
		Str("price", product.Price.StringFixed(2)).
		Msg("pricing updated")
	return product, nil
}
