package allocation

import (
	"context"
	"errors"

	bomEntity "mes.GO/model/entity/bom"
	productionEntity "mes.GO/model/entity/production"
	stockEntity "mes.GO/model/entity/stock"
)

// ErrNotFound is returned by stores when a referenced material, batch or lot
// does not exist. Callers distinguish it from storage failures with errors.Is.
var ErrNotFound = errors.New("not found")

// ErrInvariant marks data-integrity violations (e.g. a rollback link pointing
// at a missing batch). Not expected in normal operation.
var ErrInvariant = errors.New("invariant violation")

// BatchStore reads and mutates material batches. ByMaterial must return
// batches ordered by received_at ascending — the FIFO engine depends on it.
type BatchStore interface {
	ByMaterial(ctx context.Context, materialID uint) ([]stockEntity.MaterialBatch, error)
	ByID(ctx context.Context, batchID uint) (*stockEntity.MaterialBatch, error)
	ByBatchNo(ctx context.Context, batchNo string) (*stockEntity.MaterialBatch, error)
	Create(ctx context.Context, batch *stockEntity.MaterialBatch) error
	// AddUsed increments the batch's used quantity by delta (negative to restore).
	AddUsed(ctx context.Context, batchID uint, delta float64) error
}

// MaterialStore reads material master data.
type MaterialStore interface {
	ByID(ctx context.Context, materialID uint) (*stockEntity.Material, error)
	ByCode(ctx context.Context, code string) (*stockEntity.Material, error)
}

// ProductStore reads product master data.
type ProductStore interface {
	ByID(ctx context.Context, productID uint) (*bomEntity.Product, error)
	ByCode(ctx context.Context, code string) (*bomEntity.Product, error)
}

// BOMStore reads BOM reference data. MaterialLines returns material-type
// lines for the product scoped to processStep; an empty processStep selects
// every line, and lines with an empty process_step apply to every step.
type BOMStore interface {
	MaterialLines(ctx context.Context, productID uint, processStep string) ([]bomEntity.BOMLine, error)
}

// LotStore reads and mutates production lots and their material links.
type LotStore interface {
	Create(ctx context.Context, lot *productionEntity.ProductionLot) error
	Update(ctx context.Context, lot *productionEntity.ProductionLot) error
	ByID(ctx context.Context, lotID uint) (*productionEntity.ProductionLot, error)
	ByNumber(ctx context.Context, lotNumber string) (*productionEntity.ProductionLot, error)
	Children(ctx context.Context, parentLotID uint) ([]productionEntity.ProductionLot, error)
	CreateLink(ctx context.Context, link *productionEntity.LotMaterialLink) error
	LinksByLot(ctx context.Context, lotID uint) ([]productionEntity.LotMaterialLink, error)
	LinksByBatch(ctx context.Context, batchID uint) ([]productionEntity.LotMaterialLink, error)
	DeleteLink(ctx context.Context, linkID uint) error
}

// Store is the storage port of the engine. Two adapters exist: the GORM one
// (model/repository/gormstore) and the in-memory one (model/repository/memory).
// Transact runs fn against a store bound to one storage transaction; a
// returned error rolls back every write fn performed.
type Store interface {
	Batches() BatchStore
	Materials() MaterialStore
	Products() ProductStore
	BOM() BOMStore
	Lots() LotStore
	Transact(ctx context.Context, fn func(Store) error) error
}
