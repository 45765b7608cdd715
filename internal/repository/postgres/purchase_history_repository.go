package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"myGreenMarketPersonalization/business/personalization"
	"myGreenMarketPersonalization/domain"
)

// purchases older than this many lines do not move category affinity enough
// to be worth loading
const purchaseHistoryLimit = 200

var excludedOrderStatuses = []string{"CANCELLED", "FAILED", "EXPIRED"}

type PurchaseHistoryRepository struct {
	DB *gorm.DB
}

var _ personalization.PurchaseHistoryRepository = (*PurchaseHistoryRepository)(nil)

func NewPurchaseHistoryRepository(db *gorm.DB) *PurchaseHistoryRepository {
	return &PurchaseHistoryRepository{DB: db}
}

// FindByUser returns the user's order lines joined with the product category,
// newest first.
func (r *PurchaseHistoryRepository) FindByUser(ctx context.Context, userID uint) ([]domain.PurchaseLineItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	items := make([]domain.PurchaseLineItem, 0)
	err := r.DB.WithContext(ctx).
		Table("orders AS o").
		Select("o.product_id, p.product_category, o.created_at").
		Joins("JOIN products p ON p.id = o.product_id").
		Where("o.user_id = ?", userID).
		Where("o.order_status NOT IN ?", excludedOrderStatuses).
		Order("o.created_at DESC").
		Limit(purchaseHistoryLimit).
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase history: %w", err)
	}

	return items, nil
}
