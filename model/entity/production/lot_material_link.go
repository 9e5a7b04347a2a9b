package production

import "time"

// LotMaterialLink represents the lot_material_links table: the join ledger
// between a production lot and a material batch. One row per FIFO draw;
// rollback deletes these rows and restores the batch's used quantity, the
// genealogy tracer reads them as graph edges.
type LotMaterialLink struct {
	LinkID    uint      `gorm:"column:link_id;primaryKey;autoIncrement" json:"link_id,omitempty"`
	LotID     uint      `gorm:"column:lot_id;not null;index" json:"lot_id"`
	BatchID   uint      `gorm:"column:batch_id;not null;index" json:"batch_id"`
	Qty       float64   `gorm:"column:qty;type:decimal(12,4);not null" json:"qty"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (LotMaterialLink) TableName() string {
	return "lot_material_links"
}
