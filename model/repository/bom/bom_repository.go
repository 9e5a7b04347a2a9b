package bom

import (
	"context"

	"gorm.io/gorm"

	bomEntity "mes.GO/model/entity/bom"
)

type BOMRepository struct {
	db *gorm.DB
}

func NewBOMRepository(db *gorm.DB) *BOMRepository {
	return &BOMRepository{db: db}
}

// MaterialLines returns the product's material-type lines for a process
// step. Lines with an empty process_step apply to every step; an empty
// processStep argument selects all lines.
func (r *BOMRepository) MaterialLines(ctx context.Context, productID uint, processStep string) ([]bomEntity.BOMLine, error) {
	q := r.db.WithContext(ctx).
		Where("product_id = ? AND item_type = ?", productID, bomEntity.ItemTypeMaterial)
	if processStep != "" {
		q = q.Where("process_step = ? OR process_step = ''", processStep)
	}
	var lines []bomEntity.BOMLine
	err := q.Order("line_id ASC").Find(&lines).Error
	return lines, err
}

// LinesForProduct returns every line of the product's BOM, materials and
// sub-assemblies alike.
func (r *BOMRepository) LinesForProduct(ctx context.Context, productID uint) ([]bomEntity.BOMLine, error) {
	var lines []bomEntity.BOMLine
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("line_id ASC").
		Find(&lines).Error
	return lines, err
}

func (r *BOMRepository) CreateLine(ctx context.Context, line *bomEntity.BOMLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

func (r *BOMRepository) ProductByID(ctx context.Context, productID uint) (*bomEntity.Product, error) {
	var p bomEntity.Product
	if err := r.db.WithContext(ctx).First(&p, "product_id = ?", productID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *BOMRepository) ProductByCode(ctx context.Context, code string) (*bomEntity.Product, error) {
	var p bomEntity.Product
	if err := r.db.WithContext(ctx).First(&p, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *BOMRepository) CreateProduct(ctx context.Context, p *bomEntity.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}
