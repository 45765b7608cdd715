package domain

import (
	"time"

	"gorm.io/datatypes"
)

// CREATE TABLE public.products (
//     id               BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     product_name     TEXT,
//     product_category TEXT,
//     normal_price     NUMERIC,
//     sale_price       NUMERIC,
//     rating           NUMERIC DEFAULT 0,
//     is_featured      BOOLEAN DEFAULT FALSE,
//     is_green_tag     BOOLEAN DEFAULT FALSE,
//     tags             JSONB,
//     created_at       TIMESTAMPTZ DEFAULT NOW()
// );

// Product is a read-only catalog record as seen by the personalization engine.
type Product struct {
	ID              uint64                      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductName     string                      `gorm:"column:product_name;type:text" json:"product_name"`
	ProductCategory string                      `gorm:"column:product_category;type:text" json:"product_category"`
	NormalPrice     float64                     `gorm:"column:normal_price;type:numeric" json:"normal_price"`
	SalePrice       float64                     `gorm:"column:sale_price;type:numeric" json:"sale_price"`
	Rating          float64                     `gorm:"column:rating;type:numeric;default:0" json:"rating"`
	IsFeatured      bool                        `gorm:"column:is_featured;default:false" json:"is_featured"`
	IsGreenTag      bool                        `gorm:"column:is_green_tag;default:false" json:"is_green_tag"`
	Tags            datatypes.JSONSlice[string] `gorm:"column:tags;type:jsonb" json:"tags,omitempty"`
	CreatedAt       time.Time                   `gorm:"column:created_at" json:"created_at"`
}

func (Product) TableName() string {
	return "products"
}

// Price is the price a shopper pays right now.
func (p Product) Price() float64 {
	if p.SalePrice > 0 {
		return p.SalePrice
	}
	return p.NormalPrice
}
