package allocation

import (
	"context"

	productionEntity "mes.GO/model/entity/production"
)

// BatchDraw is one quantity drawn from one batch.
type BatchDraw struct {
	BatchID      uint    `json:"batch_id"`
	BatchNo      string  `json:"batch_no"`
	Qty          float64 `json:"qty"`
	WentNegative bool    `json:"went_negative,omitempty"`
}

// ConsumeResult reports the batches touched by one FIFO consumption.
type ConsumeResult struct {
	Draws     []BatchDraw `json:"draws"`
	Deducted  float64     `json:"deducted"`
	Remaining float64     `json:"remaining"`
}

// drawList accumulates draws, merging repeat draws against the same batch
// (the negative-overflow target may already have a draw in the same call).
type drawList struct {
	draws []BatchDraw
	index map[uint]int
}

func newDrawList() *drawList {
	return &drawList{index: make(map[uint]int)}
}

func (d *drawList) add(batchID uint, batchNo string, qty float64, wentNegative bool) {
	if i, ok := d.index[batchID]; ok {
		d.draws[i].Qty += qty
		d.draws[i].WentNegative = d.draws[i].WentNegative || wentNegative
		return
	}
	d.index[batchID] = len(d.draws)
	d.draws = append(d.draws, BatchDraw{BatchID: batchID, BatchNo: batchNo, Qty: qty, WentNegative: wentNegative})
}

func (d *drawList) total() float64 {
	var t float64
	for _, dr := range d.draws {
		t += dr.Qty
	}
	return t
}

func newLink(lotID uint, d BatchDraw) *productionEntity.LotMaterialLink {
	return &productionEntity.LotMaterialLink{LotID: lotID, BatchID: d.BatchID, Qty: d.Qty}
}

// ConsumeFIFO deducts qty of a material against its batches oldest-receipt
// first, inside one storage transaction. When allowNegative is set and the
// batches run out, the full remainder is applied to the last batch in receipt
// order even though that pushes its used quantity past its received quantity.
// When lotID is set, one LotMaterialLink per touched batch is written.
func (e *Engine) ConsumeFIFO(ctx context.Context, materialID uint, qty float64, lotID *uint, allowNegative bool) (*ConsumeResult, error) {
	var res *ConsumeResult
	err := e.store.Transact(ctx, func(st Store) error {
		var err error
		res, err = consumeFIFO(ctx, st, materialID, qty, lotID, allowNegative)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// consumeFIFO is the transaction-scoped engine body, shared with the
// deduction orchestrator.
func consumeFIFO(ctx context.Context, st Store, materialID uint, qty float64, lotID *uint, allowNegative bool) (*ConsumeResult, error) {
	if qty <= 0 {
		return &ConsumeResult{}, nil
	}

	batches, err := st.Batches().ByMaterial(ctx, materialID)
	if err != nil {
		return nil, err
	}

	dl := newDrawList()
	remaining := qty
	for i := range batches {
		if remaining <= 0 {
			break
		}
		b := &batches[i]
		avail := b.Quantity - b.Used
		if avail <= 0 {
			continue
		}
		draw := avail
		if remaining < avail {
			draw = remaining
		}
		if err := st.Batches().AddUsed(ctx, b.BatchID, draw); err != nil {
			return nil, err
		}
		b.Used += draw
		dl.add(b.BatchID, b.BatchNo, draw, false)
		remaining -= draw
	}

	// Negative spillover lands on the last batch in receipt order,
	// regardless of which batches this call already touched.
	if remaining > 0 && allowNegative && len(batches) > 0 {
		last := &batches[len(batches)-1]
		if err := st.Batches().AddUsed(ctx, last.BatchID, remaining); err != nil {
			return nil, err
		}
		last.Used += remaining
		dl.add(last.BatchID, last.BatchNo, remaining, true)
		remaining = 0
	}

	if lotID != nil {
		for _, d := range dl.draws {
			if err := st.Lots().CreateLink(ctx, newLink(*lotID, d)); err != nil {
				return nil, err
			}
		}
	}

	return &ConsumeResult{
		Draws:     dl.draws,
		Deducted:  dl.total(),
		Remaining: remaining,
	}, nil
}
