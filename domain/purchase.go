package domain

import "time"

// PurchaseLineItem is one product line of a past order, joined with the
// product's category.
type PurchaseLineItem struct {
	ProductID   uint64    `gorm:"column:product_id" json:"product_id"`
	Category    string    `gorm:"column:product_category" json:"category"`
	PurchasedAt time.Time `gorm:"column:created_at" json:"purchased_at"`
}
