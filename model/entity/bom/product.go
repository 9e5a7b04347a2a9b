package bom

import "time"

// Product represents the products table (finished or intermediate goods).
type Product struct {
	ProductID uint      `gorm:"column:product_id;primaryKey;autoIncrement" json:"product_id,omitempty"`
	Code      string    `gorm:"column:code;type:varchar(64);not null;uniqueIndex" json:"code"`
	Name      string    `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Active    bool      `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Product) TableName() string {
	return "products"
}
