// Package memory is the in-memory adapter of the allocation storage port.
// It backs tests and offline development; writes are serialized by a single
// transaction mutex, so committed states are as isolated as the GORM
// adapter's, but a failed Transact does not undo earlier writes.
package memory

import (
	"context"
	"sort"
	"sync"

	bomEntity "mes.GO/model/entity/bom"
	productionEntity "mes.GO/model/entity/production"
	stockEntity "mes.GO/model/entity/stock"
	"mes.GO/service/allocation"
)

type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	seq       uint
	materials map[uint]stockEntity.Material
	products  map[uint]bomEntity.Product
	bomLines  []bomEntity.BOMLine
	batches   map[uint]stockEntity.MaterialBatch
	lots      map[uint]productionEntity.ProductionLot
	links     map[uint]productionEntity.LotMaterialLink
	counters  map[string]int64
}

func NewStore() *Store {
	return &Store{
		materials: make(map[uint]stockEntity.Material),
		products:  make(map[uint]bomEntity.Product),
		batches:   make(map[uint]stockEntity.MaterialBatch),
		lots:      make(map[uint]productionEntity.ProductionLot),
		links:     make(map[uint]productionEntity.LotMaterialLink),
		counters:  make(map[string]int64),
	}
}

func (s *Store) nextID() uint {
	s.seq++
	return s.seq
}

func (s *Store) Batches() allocation.BatchStore      { return batchStore{s} }
func (s *Store) Materials() allocation.MaterialStore { return materialStore{s} }
func (s *Store) Products() allocation.ProductStore   { return productStore{s} }
func (s *Store) BOM() allocation.BOMStore            { return bomStore{s} }
func (s *Store) Lots() allocation.LotStore           { return lotStore{s} }

// Transact serializes writers; fn runs against the same store.
func (s *Store) Transact(ctx context.Context, fn func(allocation.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(s)
}

/* Seed helpers for tests and offline fixtures */

func (s *Store) PutMaterial(m stockEntity.Material) stockEntity.Material {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.MaterialID == 0 {
		m.MaterialID = s.nextID()
	}
	s.materials[m.MaterialID] = m
	return m
}

func (s *Store) PutProduct(p bomEntity.Product) bomEntity.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ProductID == 0 {
		p.ProductID = s.nextID()
	}
	s.products[p.ProductID] = p
	return p
}

func (s *Store) PutBOMLine(l bomEntity.BOMLine) bomEntity.BOMLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.LineID == 0 {
		l.LineID = s.nextID()
	}
	s.bomLines = append(s.bomLines, l)
	return l
}

// NextSequence implements the numbering counter port.
func (s *Store) NextSequence(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key]++
	return s.counters[key], nil
}

/* Batch store */

type batchStore struct{ s *Store }

func (b batchStore) ByMaterial(ctx context.Context, materialID uint) ([]stockEntity.MaterialBatch, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()
	var out []stockEntity.MaterialBatch
	for _, batch := range b.s.batches {
		if batch.MaterialID == materialID {
			out = append(out, batch)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ReceivedAt.Equal(out[j].ReceivedAt) {
			return out[i].BatchID < out[j].BatchID
		}
		return out[i].ReceivedAt.Before(out[j].ReceivedAt)
	})
	return out, nil
}

func (b batchStore) ByID(ctx context.Context, batchID uint) (*stockEntity.MaterialBatch, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()
	if batch, ok := b.s.batches[batchID]; ok {
		return &batch, nil
	}
	return nil, allocation.ErrNotFound
}

func (b batchStore) ByBatchNo(ctx context.Context, batchNo string) (*stockEntity.MaterialBatch, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()
	for _, batch := range b.s.batches {
		if batch.BatchNo == batchNo {
			return &batch, nil
		}
	}
	return nil, allocation.ErrNotFound
}

func (b batchStore) Create(ctx context.Context, batch *stockEntity.MaterialBatch) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if batch.BatchID == 0 {
		batch.BatchID = b.s.nextID()
	}
	b.s.batches[batch.BatchID] = *batch
	return nil
}

func (b batchStore) AddUsed(ctx context.Context, batchID uint, delta float64) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	batch, ok := b.s.batches[batchID]
	if !ok {
		return allocation.ErrNotFound
	}
	batch.Used += delta
	b.s.batches[batchID] = batch
	return nil
}

/* Material / product stores */

type materialStore struct{ s *Store }

func (m materialStore) ByID(ctx context.Context, materialID uint) (*stockEntity.Material, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	if mat, ok := m.s.materials[materialID]; ok {
		return &mat, nil
	}
	return nil, allocation.ErrNotFound
}

func (m materialStore) ByCode(ctx context.Context, code string) (*stockEntity.Material, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	for _, mat := range m.s.materials {
		if mat.Code == code {
			return &mat, nil
		}
	}
	return nil, allocation.ErrNotFound
}

type productStore struct{ s *Store }

func (p productStore) ByID(ctx context.Context, productID uint) (*bomEntity.Product, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	if prod, ok := p.s.products[productID]; ok {
		return &prod, nil
	}
	return nil, allocation.ErrNotFound
}

func (p productStore) ByCode(ctx context.Context, code string) (*bomEntity.Product, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	for _, prod := range p.s.products {
		if prod.Code == code {
			return &prod, nil
		}
	}
	return nil, allocation.ErrNotFound
}

/* BOM store */

type bomStore struct{ s *Store }

func (b bomStore) MaterialLines(ctx context.Context, productID uint, processStep string) ([]bomEntity.BOMLine, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()
	var out []bomEntity.BOMLine
	for _, l := range b.s.bomLines {
		if l.ProductID != productID || l.ItemType != bomEntity.ItemTypeMaterial {
			continue
		}
		if processStep != "" && l.ProcessStep != "" && l.ProcessStep != processStep {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LineID < out[j].LineID })
	return out, nil
}

/* Lot store */

type lotStore struct{ s *Store }

func (l lotStore) Create(ctx context.Context, lot *productionEntity.ProductionLot) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if lot.LotID == 0 {
		lot.LotID = l.s.nextID()
	}
	l.s.lots[lot.LotID] = *lot
	return nil
}

func (l lotStore) Update(ctx context.Context, lot *productionEntity.ProductionLot) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if _, ok := l.s.lots[lot.LotID]; !ok {
		return allocation.ErrNotFound
	}
	l.s.lots[lot.LotID] = *lot
	return nil
}

func (l lotStore) ByID(ctx context.Context, lotID uint) (*productionEntity.ProductionLot, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	if lot, ok := l.s.lots[lotID]; ok {
		return &lot, nil
	}
	return nil, allocation.ErrNotFound
}

func (l lotStore) ByNumber(ctx context.Context, lotNumber string) (*productionEntity.ProductionLot, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	for _, lot := range l.s.lots {
		if lot.LotNumber == lotNumber {
			return &lot, nil
		}
	}
	return nil, allocation.ErrNotFound
}

func (l lotStore) Children(ctx context.Context, parentLotID uint) ([]productionEntity.ProductionLot, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	var out []productionEntity.ProductionLot
	for _, lot := range l.s.lots {
		if lot.ParentLotID != nil && *lot.ParentLotID == parentLotID {
			out = append(out, lot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LotID < out[j].LotID })
	return out, nil
}

func (l lotStore) CreateLink(ctx context.Context, link *productionEntity.LotMaterialLink) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if link.LinkID == 0 {
		link.LinkID = l.s.nextID()
	}
	l.s.links[link.LinkID] = *link
	return nil
}

func (l lotStore) LinksByLot(ctx context.Context, lotID uint) ([]productionEntity.LotMaterialLink, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	var out []productionEntity.LotMaterialLink
	for _, link := range l.s.links {
		if link.LotID == lotID {
			out = append(out, link)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LinkID < out[j].LinkID })
	return out, nil
}

func (l lotStore) LinksByBatch(ctx context.Context, batchID uint) ([]productionEntity.LotMaterialLink, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	var out []productionEntity.LotMaterialLink
	for _, link := range l.s.links {
		if link.BatchID == batchID {
			out = append(out, link)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LinkID < out[j].LinkID })
	return out, nil
}

func (l lotStore) DeleteLink(ctx context.Context, linkID uint) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	delete(l.s.links, linkID)
	return nil
}
