package stock

import (
	"context"

	"gorm.io/gorm"

	stockEntity "mes.GO/model/entity/stock"
)

type StockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) *StockRepository {
	return &StockRepository{db: db}
}

// BatchesByMaterial returns the material's receipts oldest first.
// The FIFO engine depends on this ordering.
func (r *StockRepository) BatchesByMaterial(ctx context.Context, materialID uint) ([]stockEntity.MaterialBatch, error) {
	var batches []stockEntity.MaterialBatch
	err := r.db.WithContext(ctx).
		Where("material_id = ?", materialID).
		Order("received_at ASC, batch_id ASC").
		Find(&batches).Error
	return batches, err
}

func (r *StockRepository) BatchByID(ctx context.Context, batchID uint) (*stockEntity.MaterialBatch, error) {
	var batch stockEntity.MaterialBatch
	if err := r.db.WithContext(ctx).First(&batch, "batch_id = ?", batchID).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *StockRepository) BatchByBatchNo(ctx context.Context, batchNo string) (*stockEntity.MaterialBatch, error) {
	var batch stockEntity.MaterialBatch
	if err := r.db.WithContext(ctx).First(&batch, "batch_no = ?", batchNo).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *StockRepository) CreateBatch(ctx context.Context, batch *stockEntity.MaterialBatch) error {
	return r.db.WithContext(ctx).Create(batch).Error
}

// AddUsed increments used in place so concurrent deductions serialize on the
// row instead of losing updates to a read-modify-write race.
func (r *StockRepository) AddUsed(ctx context.Context, batchID uint, delta float64) error {
	res := r.db.WithContext(ctx).
		Model(&stockEntity.MaterialBatch{}).
		Where("batch_id = ?", batchID).
		UpdateColumn("used", gorm.Expr("used + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *StockRepository) MaterialByID(ctx context.Context, materialID uint) (*stockEntity.Material, error) {
	var m stockEntity.Material
	if err := r.db.WithContext(ctx).First(&m, "material_id = ?", materialID).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *StockRepository) MaterialByCode(ctx context.Context, code string) (*stockEntity.Material, error) {
	var m stockEntity.Material
	if err := r.db.WithContext(ctx).First(&m, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *StockRepository) CreateMaterial(ctx context.Context, m *stockEntity.Material) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// GetAvailableByMaterial sums quantity-used across the material's batches.
// Uses raw SQL for minimal overhead.
func (r *StockRepository) GetAvailableByMaterial(ctx context.Context, materialID uint) (float64, error) {
	const query = `SELECT COALESCE(SUM(quantity - used), 0) FROM material_batches WHERE material_id = ?`
	var total float64
	err := r.db.WithContext(ctx).Raw(query, materialID).Scan(&total).Error
	return total, err
}

// AvailabilityRow is one line of the per-material availability report.
type AvailabilityRow struct {
	MaterialID uint    `gorm:"column:material_id" json:"material_id"`
	Code       string  `gorm:"column:code" json:"code"`
	Name       string  `gorm:"column:name" json:"name"`
	Unit       string  `gorm:"column:unit" json:"unit"`
	Batches    int64   `gorm:"column:batches" json:"batches"`
	Available  float64 `gorm:"column:available" json:"available"`
}

// Availability reports remaining stock per material, including materials
// with no batches at all.
func (r *StockRepository) Availability(ctx context.Context) ([]AvailabilityRow, error) {
	var rows []AvailabilityRow
	err := r.db.WithContext(ctx).
		Table("materials m").
		Select("m.material_id, m.code, m.name, m.unit, COUNT(b.batch_id) AS batches, COALESCE(SUM(b.quantity - b.used), 0) AS available").
		Joins("LEFT JOIN material_batches b ON b.material_id = m.material_id").
		Group("m.material_id, m.code, m.name, m.unit").
		Order("m.code").
		Scan(&rows).Error
	return rows, err
}
