package allocation_test

import (
	"context"
	"testing"
	"time"

	stockEntity "mes.GO/model/entity/stock"
	"mes.GO/model/repository/memory"
	"mes.GO/service/allocation"
)

func seedBatches(t *testing.T, st *memory.Store, qtys ...float64) (uint, []uint) {
	t.Helper()
	mat := st.PutMaterial(stockEntity.Material{Code: "RESIN", Unit: "kg"})
	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)
	ids := make([]uint, 0, len(qtys))
	for i, q := range qtys {
		b := stockEntity.MaterialBatch{
			MaterialID: mat.MaterialID,
			BatchNo:    "R-" + string(rune('A'+i)),
			Quantity:   q,
			ReceivedAt: base.Add(time.Duration(i) * 24 * time.Hour),
		}
		if err := st.Batches().Create(context.Background(), &b); err != nil {
			t.Fatalf("create batch: %v", err)
		}
		ids = append(ids, b.BatchID)
	}
	return mat.MaterialID, ids
}

func used(t *testing.T, st *memory.Store, batchID uint) float64 {
	t.Helper()
	b, err := st.Batches().ByID(context.Background(), batchID)
	if err != nil {
		t.Fatalf("batch %d: %v", batchID, err)
	}
	return b.Used
}

func TestConsumeFIFOOldestFirst(t *testing.T) {
	st := memory.NewStore()
	matID, ids := seedBatches(t, st, 10, 20, 30)
	eng := allocation.NewEngine(st)

	res, err := eng.ConsumeFIFO(context.Background(), matID, 25, nil, false)
	if err != nil {
		t.Fatalf("ConsumeFIFO: %v", err)
	}
	if res.Deducted != 25 || res.Remaining != 0 {
		t.Fatalf("deducted=%v remaining=%v, want 25 and 0", res.Deducted, res.Remaining)
	}
	if len(res.Draws) != 2 {
		t.Fatalf("draws = %+v, want 2", res.Draws)
	}
	if res.Draws[0].BatchID != ids[0] || res.Draws[0].Qty != 10 {
		t.Errorf("first draw = %+v, want 10 from oldest", res.Draws[0])
	}
	if res.Draws[1].BatchID != ids[1] || res.Draws[1].Qty != 15 {
		t.Errorf("second draw = %+v, want 15 from next", res.Draws[1])
	}
	if used(t, st, ids[2]) != 0 {
		t.Error("newest batch should be untouched")
	}
}

func TestConsumeFIFOSkipsExhausted(t *testing.T) {
	st := memory.NewStore()
	matID, ids := seedBatches(t, st, 10, 20)
	if err := st.Batches().AddUsed(context.Background(), ids[0], 10); err != nil {
		t.Fatalf("AddUsed: %v", err)
	}
	eng := allocation.NewEngine(st)

	res, err := eng.ConsumeFIFO(context.Background(), matID, 5, nil, false)
	if err != nil {
		t.Fatalf("ConsumeFIFO: %v", err)
	}
	if len(res.Draws) != 1 || res.Draws[0].BatchID != ids[1] {
		t.Errorf("draws = %+v, want one draw from the second batch", res.Draws)
	}
}

func TestConsumeFIFONegativeSpillover(t *testing.T) {
	st := memory.NewStore()
	matID, ids := seedBatches(t, st, 10, 20)
	eng := allocation.NewEngine(st)

	res, err := eng.ConsumeFIFO(context.Background(), matID, 50, nil, true)
	if err != nil {
		t.Fatalf("ConsumeFIFO: %v", err)
	}
	if res.Remaining != 0 || res.Deducted != 50 {
		t.Fatalf("deducted=%v remaining=%v, want 50 and 0", res.Deducted, res.Remaining)
	}
	// The 20 excess lands on the last receipt-ordered batch, merged with the
	// regular draw against it.
	if len(res.Draws) != 2 {
		t.Fatalf("draws = %+v, want 2 merged draws", res.Draws)
	}
	last := res.Draws[1]
	if last.BatchID != ids[1] || last.Qty != 40 || !last.WentNegative {
		t.Errorf("spillover draw = %+v, want 40 on last batch with WentNegative", last)
	}
	if got := used(t, st, ids[1]); got != 40 {
		t.Errorf("last batch used = %v, want 40 (20 past its quantity)", got)
	}
}

func TestConsumeFIFODisallowedShortfall(t *testing.T) {
	st := memory.NewStore()
	matID, ids := seedBatches(t, st, 10, 20)
	eng := allocation.NewEngine(st)

	res, err := eng.ConsumeFIFO(context.Background(), matID, 50, nil, false)
	if err != nil {
		t.Fatalf("ConsumeFIFO: %v", err)
	}
	if res.Deducted != 30 || res.Remaining != 20 {
		t.Errorf("deducted=%v remaining=%v, want capped at 30 with 20 short", res.Deducted, res.Remaining)
	}
	if used(t, st, ids[0]) != 10 || used(t, st, ids[1]) != 20 {
		t.Error("batches should be drained exactly to zero available")
	}
}

func TestConsumeFIFOZeroQtyNoOp(t *testing.T) {
	st := memory.NewStore()
	matID, ids := seedBatches(t, st, 10)
	eng := allocation.NewEngine(st)

	res, err := eng.ConsumeFIFO(context.Background(), matID, 0, nil, false)
	if err != nil {
		t.Fatalf("ConsumeFIFO: %v", err)
	}
	if len(res.Draws) != 0 || res.Deducted != 0 {
		t.Errorf("zero qty should touch nothing, got %+v", res)
	}
	if used(t, st, ids[0]) != 0 {
		t.Error("batch used changed on zero-qty call")
	}
}

func TestConsumeFIFOWritesLinks(t *testing.T) {
	st := memory.NewStore()
	matID, _ := seedBatches(t, st, 10, 20)
	eng := allocation.NewEngine(st)
	lotID := uint(99)

	res, err := eng.ConsumeFIFO(context.Background(), matID, 15, &lotID, false)
	if err != nil {
		t.Fatalf("ConsumeFIFO: %v", err)
	}
	links, err := st.Lots().LinksByLot(context.Background(), lotID)
	if err != nil {
		t.Fatalf("LinksByLot: %v", err)
	}
	if len(links) != len(res.Draws) {
		t.Fatalf("links = %d, want one per draw (%d)", len(links), len(res.Draws))
	}
	var total float64
	for _, l := range links {
		total += l.Qty
	}
	if total != 15 {
		t.Errorf("linked qty = %v, want 15", total)
	}
}
