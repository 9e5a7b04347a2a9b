package bom

// BOM line item types. Material lines feed the deduction engine;
// sub-assembly lines reference a child product and are consumed as lots.
const (
	ItemTypeMaterial    = "material"
	ItemTypeSubAssembly = "sub_assembly"
)

// BOMLine represents the bom_lines table: one required input per unit of
// output for a product, optionally scoped to a process step.
type BOMLine struct {
	LineID         uint     `gorm:"column:line_id;primaryKey;autoIncrement" json:"line_id,omitempty"`
	ProductID      uint     `gorm:"column:product_id;not null;index" json:"product_id"`
	ItemType       string   `gorm:"column:item_type;type:varchar(32);not null;default:material" json:"item_type"`
	MaterialID     *uint    `gorm:"column:material_id;index" json:"material_id,omitempty"`
	ChildProductID *uint    `gorm:"column:child_product_id" json:"child_product_id,omitempty"`
	QtyPer         float64  `gorm:"column:qty_per;type:decimal(12,4);not null" json:"qty_per"`
	Unit           string   `gorm:"column:unit;type:varchar(16)" json:"unit,omitempty"`
	// ProcessStep scopes the line to one step; empty means every step.
	ProcessStep string `gorm:"column:process_step;type:varchar(32);index" json:"process_step,omitempty"`
}

func (BOMLine) TableName() string {
	return "bom_lines"
}
