package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"myGreenMarketPersonalization/business/personalization"
	"myGreenMarketPersonalization/domain"
)

type ProductRepository struct {
	DB *gorm.DB
}

var _ personalization.CatalogRepository = (*ProductRepository)(nil)

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{
		DB: db,
	}
}

// FindAll returns the catalog in id order so fallback sections stay stable.
func (r *ProductRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var products []domain.Product
	err := r.DB.WithContext(ctx).Order("id ASC").Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}

	return products, nil
}
