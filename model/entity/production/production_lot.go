package production

import (
	"time"

	"gorm.io/datatypes"
)

// Production lot statuses.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// ProductionLot represents the production_lots table: one tracked unit of
// work-in-progress. ParentLotID links the upstream lot this one was built
// from; the schema does not guarantee the parent chain is acyclic, the
// genealogy tracer bounds its traversal instead.
type ProductionLot struct {
	LotID        uint           `gorm:"column:lot_id;primaryKey;autoIncrement" json:"lot_id,omitempty"`
	LotNumber    string         `gorm:"column:lot_number;type:varchar(64);not null;uniqueIndex" json:"lot_number"`
	ProductID    uint           `gorm:"column:product_id;not null;index" json:"product_id"`
	ProcessStep  string         `gorm:"column:process_step;type:varchar(32);not null" json:"process_step"`
	PlannedQty   float64        `gorm:"column:planned_qty;type:decimal(12,4);not null;default:0" json:"planned_qty"`
	CompletedQty float64        `gorm:"column:completed_qty;type:decimal(12,4);not null;default:0" json:"completed_qty"`
	DefectQty    float64        `gorm:"column:defect_qty;type:decimal(12,4);not null;default:0" json:"defect_qty"`
	Status       string         `gorm:"column:status;type:varchar(32);not null;default:in_progress" json:"status"`
	ParentLotID  *uint          `gorm:"column:parent_lot_id;index" json:"parent_lot_id,omitempty"`
	Attrs        datatypes.JSON `gorm:"column:attrs" json:"attrs,omitempty"`
	StartedAt    time.Time      `gorm:"column:started_at" json:"started_at"`
	CompletedAt  *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt    time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (ProductionLot) TableName() string {
	return "production_lots"
}
