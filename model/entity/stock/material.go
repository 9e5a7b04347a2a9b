package stock

import "time"

// Material represents the materials table (raw material master data).
type Material struct {
	MaterialID uint      `gorm:"column:material_id;primaryKey;autoIncrement" json:"material_id,omitempty"`
	Code       string    `gorm:"column:code;type:varchar(64);not null;uniqueIndex" json:"code"`
	Name       string    `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Unit       string    `gorm:"column:unit;type:varchar(16)" json:"unit,omitempty"`
	Active     bool      `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Material) TableName() string {
	return "materials"
}
