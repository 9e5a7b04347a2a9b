package stock

import "time"

// MaterialBatch represents the material_batches table: one stock receipt.
// Used is only mutated by the FIFO engine and its rollback. Under the
// negative-stock policy Used may exceed Quantity on the overflow batch,
// so Available can be negative.
type MaterialBatch struct {
	BatchID    uint      `gorm:"column:batch_id;primaryKey;autoIncrement" json:"batch_id,omitempty"`
	MaterialID uint      `gorm:"column:material_id;not null;index" json:"material_id"`
	BatchNo    string    `gorm:"column:batch_no;type:varchar(64);not null;uniqueIndex" json:"batch_no"`
	Quantity   float64   `gorm:"column:quantity;type:decimal(12,4);not null;default:0" json:"quantity"`
	Used       float64   `gorm:"column:used;type:decimal(12,4);not null;default:0" json:"used"`
	Location   string    `gorm:"column:location;type:varchar(64)" json:"location,omitempty"`
	ReceivedAt time.Time `gorm:"column:received_at;not null;index" json:"received_at"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
}

func (MaterialBatch) TableName() string {
	return "material_batches"
}

// Available is the undrawn remainder of the receipt (may be negative).
func (b MaterialBatch) Available() float64 {
	return b.Quantity - b.Used
}
