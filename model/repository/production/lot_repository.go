package production

import (
	"context"

	"gorm.io/gorm"

	productionEntity "mes.GO/model/entity/production"
)

type LotRepository struct {
	db *gorm.DB
}

func NewLotRepository(db *gorm.DB) *LotRepository {
	return &LotRepository{db: db}
}

func (r *LotRepository) Create(ctx context.Context, lot *productionEntity.ProductionLot) error {
	return r.db.WithContext(ctx).Create(lot).Error
}

func (r *LotRepository) Update(ctx context.Context, lot *productionEntity.ProductionLot) error {
	return r.db.WithContext(ctx).Save(lot).Error
}

func (r *LotRepository) ByID(ctx context.Context, lotID uint) (*productionEntity.ProductionLot, error) {
	var lot productionEntity.ProductionLot
	if err := r.db.WithContext(ctx).First(&lot, "lot_id = ?", lotID).Error; err != nil {
		return nil, err
	}
	return &lot, nil
}

func (r *LotRepository) ByNumber(ctx context.Context, lotNumber string) (*productionEntity.ProductionLot, error) {
	var lot productionEntity.ProductionLot
	if err := r.db.WithContext(ctx).First(&lot, "lot_number = ?", lotNumber).Error; err != nil {
		return nil, err
	}
	return &lot, nil
}

func (r *LotRepository) Children(ctx context.Context, parentLotID uint) ([]productionEntity.ProductionLot, error) {
	var lots []productionEntity.ProductionLot
	err := r.db.WithContext(ctx).
		Where("parent_lot_id = ?", parentLotID).
		Order("lot_id ASC").
		Find(&lots).Error
	return lots, err
}

// SearchByNumber finds lots whose number or product code matches the query
// (DB fallback when elasticsearch is not configured).
func (r *LotRepository) SearchByNumber(ctx context.Context, query string, limit int) ([]productionEntity.ProductionLot, error) {
	if limit <= 0 {
		limit = 20
	}
	var lots []productionEntity.ProductionLot
	err := r.db.WithContext(ctx).
		Where("lot_number LIKE ?", "%"+query+"%").
		Order("lot_id DESC").
		Limit(limit).
		Find(&lots).Error
	return lots, err
}

// All streams every lot, oldest first. Used by the search reindexer.
func (r *LotRepository) All(ctx context.Context) ([]productionEntity.ProductionLot, error) {
	var lots []productionEntity.ProductionLot
	err := r.db.WithContext(ctx).Order("lot_id ASC").Find(&lots).Error
	return lots, err
}

func (r *LotRepository) CreateLink(ctx context.Context, link *productionEntity.LotMaterialLink) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *LotRepository) LinksByLot(ctx context.Context, lotID uint) ([]productionEntity.LotMaterialLink, error) {
	var links []productionEntity.LotMaterialLink
	err := r.db.WithContext(ctx).
		Where("lot_id = ?", lotID).
		Order("link_id ASC").
		Find(&links).Error
	return links, err
}

func (r *LotRepository) LinksByBatch(ctx context.Context, batchID uint) ([]productionEntity.LotMaterialLink, error) {
	var links []productionEntity.LotMaterialLink
	err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("link_id ASC").
		Find(&links).Error
	return links, err
}

func (r *LotRepository) DeleteLink(ctx context.Context, linkID uint) error {
	return r.db.WithContext(ctx).
		Delete(&productionEntity.LotMaterialLink{}, "link_id = ?", linkID).Error
}

// LinkDetailRow is a link joined with its batch and material for reporting.
type LinkDetailRow struct {
	LinkID       uint    `gorm:"column:link_id" json:"link_id"`
	BatchNo      string  `gorm:"column:batch_no" json:"batch_no"`
	MaterialCode string  `gorm:"column:material_code" json:"material_code"`
	MaterialName string  `gorm:"column:material_name" json:"material_name"`
	Qty          float64 `gorm:"column:qty" json:"qty"`
}

// LinkDetailsByLot returns the lot's consumption ledger with batch and
// material identity resolved, for the reporting surfaces.
func (r *LotRepository) LinkDetailsByLot(ctx context.Context, lotID uint) ([]LinkDetailRow, error) {
	var rows []LinkDetailRow
	err := r.db.WithContext(ctx).
		Table("lot_material_links l").
		Select("l.link_id, b.batch_no, m.code AS material_code, m.name AS material_name, l.qty").
		Joins("JOIN material_batches b ON b.batch_id = l.batch_id").
		Joins("JOIN materials m ON m.material_id = b.material_id").
		Where("l.lot_id = ?", lotID).
		Order("l.link_id ASC").
		Scan(&rows).Error
	return rows, err
}
