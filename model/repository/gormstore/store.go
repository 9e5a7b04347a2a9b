// Package gormstore adapts the GORM repositories to the allocation storage
// port. Transact maps to one database transaction; the repositories are
// re-bound to the transaction handle so every port call inside fn shares it.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	bomEntity "mes.GO/model/entity/bom"
	productionEntity "mes.GO/model/entity/production"
	stockEntity "mes.GO/model/entity/stock"
	bomRepo "mes.GO/model/repository/bom"
	productionRepo "mes.GO/model/repository/production"
	stockRepo "mes.GO/model/repository/stock"
	"mes.GO/service/allocation"
)

type Store struct {
	db    *gorm.DB
	stock *stockRepo.StockRepository
	bom   *bomRepo.BOMRepository
	lots  *productionRepo.LotRepository
}

func New(db *gorm.DB) *Store {
	return &Store{
		db:    db,
		stock: stockRepo.NewStockRepository(db),
		bom:   bomRepo.NewBOMRepository(db),
		lots:  productionRepo.NewLotRepository(db),
	}
}

func (s *Store) Batches() allocation.BatchStore      { return batchStore{s.stock} }
func (s *Store) Materials() allocation.MaterialStore { return materialStore{s.stock} }
func (s *Store) Products() allocation.ProductStore   { return productStore{s.bom} }
func (s *Store) BOM() allocation.BOMStore            { return s.bom }
func (s *Store) Lots() allocation.LotStore           { return lotStore{s.lots} }

func (s *Store) Transact(ctx context.Context, fn func(allocation.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

// notFound translates gorm's sentinel into the port's.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", allocation.ErrNotFound, err)
	}
	return err
}

type batchStore struct{ r *stockRepo.StockRepository }

func (b batchStore) ByMaterial(ctx context.Context, materialID uint) ([]stockEntity.MaterialBatch, error) {
	return b.r.BatchesByMaterial(ctx, materialID)
}

func (b batchStore) ByID(ctx context.Context, batchID uint) (*stockEntity.MaterialBatch, error) {
	batch, err := b.r.BatchByID(ctx, batchID)
	if err != nil {
		return nil, notFound(err)
	}
	return batch, nil
}

func (b batchStore) ByBatchNo(ctx context.Context, batchNo string) (*stockEntity.MaterialBatch, error) {
	batch, err := b.r.BatchByBatchNo(ctx, batchNo)
	if err != nil {
		return nil, notFound(err)
	}
	return batch, nil
}

func (b batchStore) Create(ctx context.Context, batch *stockEntity.MaterialBatch) error {
	return b.r.CreateBatch(ctx, batch)
}

func (b batchStore) AddUsed(ctx context.Context, batchID uint, delta float64) error {
	if err := b.r.AddUsed(ctx, batchID, delta); err != nil {
		return notFound(err)
	}
	return nil
}

type materialStore struct{ r *stockRepo.StockRepository }

func (m materialStore) ByID(ctx context.Context, materialID uint) (*stockEntity.Material, error) {
	mat, err := m.r.MaterialByID(ctx, materialID)
	if err != nil {
		return nil, notFound(err)
	}
	return mat, nil
}

func (m materialStore) ByCode(ctx context.Context, code string) (*stockEntity.Material, error) {
	mat, err := m.r.MaterialByCode(ctx, code)
	if err != nil {
		return nil, notFound(err)
	}
	return mat, nil
}

type productStore struct{ r *bomRepo.BOMRepository }

func (p productStore) ByID(ctx context.Context, productID uint) (*bomEntity.Product, error) {
	prod, err := p.r.ProductByID(ctx, productID)
	if err != nil {
		return nil, notFound(err)
	}
	return prod, nil
}

func (p productStore) ByCode(ctx context.Context, code string) (*bomEntity.Product, error) {
	prod, err := p.r.ProductByCode(ctx, code)
	if err != nil {
		return nil, notFound(err)
	}
	return prod, nil
}

type lotStore struct{ r *productionRepo.LotRepository }

func (l lotStore) Create(ctx context.Context, lot *productionEntity.ProductionLot) error {
	return l.r.Create(ctx, lot)
}

func (l lotStore) Update(ctx context.Context, lot *productionEntity.ProductionLot) error {
	return l.r.Update(ctx, lot)
}

func (l lotStore) ByID(ctx context.Context, lotID uint) (*productionEntity.ProductionLot, error) {
	lot, err := l.r.ByID(ctx, lotID)
	if err != nil {
		return nil, notFound(err)
	}
	return lot, nil
}

func (l lotStore) ByNumber(ctx context.Context, lotNumber string) (*productionEntity.ProductionLot, error) {
	lot, err := l.r.ByNumber(ctx, lotNumber)
	if err != nil {
		return nil, notFound(err)
	}
	return lot, nil
}

func (l lotStore) Children(ctx context.Context, parentLotID uint) ([]productionEntity.ProductionLot, error) {
	return l.r.Children(ctx, parentLotID)
}

func (l lotStore) CreateLink(ctx context.Context, link *productionEntity.LotMaterialLink) error {
	return l.r.CreateLink(ctx, link)
}

func (l lotStore) LinksByLot(ctx context.Context, lotID uint) ([]productionEntity.LotMaterialLink, error) {
	return l.r.LinksByLot(ctx, lotID)
}

func (l lotStore) LinksByBatch(ctx context.Context, batchID uint) ([]productionEntity.LotMaterialLink, error) {
	return l.r.LinksByBatch(ctx, batchID)
}

func (l lotStore) DeleteLink(ctx context.Context, linkID uint) error {
	return l.r.DeleteLink(ctx, linkID)
}
