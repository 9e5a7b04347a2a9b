package allocation_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"mes.GO/core/cache"
	bomEntity "mes.GO/model/entity/bom"
	stockEntity "mes.GO/model/entity/stock"
	"mes.GO/model/repository/memory"
	"mes.GO/service/allocation"
)

// newTestEngine flushes cached BOM lines so per-test stores with colliding
// IDs cannot see each other's bills.
func newTestEngine(st *memory.Store) *allocation.Engine {
	cache.GetInstance().DeleteByTag("bom")
	return allocation.NewEngine(st)
}

func ptr(v float64) *float64 { return &v }

type fixture struct {
	st      *memory.Store
	eng     *allocation.Engine
	product bomEntity.Product
	matA    stockEntity.Material
	matB    stockEntity.Material
}

// newFixture builds a product needing 2 of A and 1 of B per unit, with two
// batches of A (10 then 20) and one batch of B (50).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.NewStore()
	f := &fixture{st: st}
	f.matA = st.PutMaterial(stockEntity.Material{Code: "MAT-A", Unit: "kg"})
	f.matB = st.PutMaterial(stockEntity.Material{Code: "MAT-B", Unit: "pcs"})
	f.product = st.PutProduct(bomEntity.Product{Code: "WIDGET", Active: true})

	aID, bID := f.matA.MaterialID, f.matB.MaterialID
	st.PutBOMLine(bomEntity.BOMLine{ProductID: f.product.ProductID, ItemType: bomEntity.ItemTypeMaterial, MaterialID: &aID, QtyPer: 2, Unit: "kg"})
	st.PutBOMLine(bomEntity.BOMLine{ProductID: f.product.ProductID, ItemType: bomEntity.ItemTypeMaterial, MaterialID: &bID, QtyPer: 1, Unit: "pcs"})

	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)
	for i, spec := range []struct {
		mat uint
		no  string
		qty float64
	}{
		{aID, "A-1", 10},
		{aID, "A-2", 20},
		{bID, "B-1", 50},
	} {
		b := stockEntity.MaterialBatch{MaterialID: spec.mat, BatchNo: spec.no, Quantity: spec.qty, ReceivedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := st.Batches().Create(context.Background(), &b); err != nil {
			t.Fatalf("create batch: %v", err)
		}
	}
	f.eng = newTestEngine(st)
	return f
}

func outcomeFor(res *allocation.DeductionResult, materialID uint) *allocation.MaterialOutcome {
	for i := range res.Items {
		if res.Items[i].MaterialID == materialID {
			return &res.Items[i]
		}
	}
	return nil
}

func TestDeductScalesBOM(t *testing.T) {
	f := newFixture(t)

	res, err := f.eng.DeductForProduction(context.Background(), allocation.DeductionInput{ProductID: f.product.ProductID, Qty: 5})
	if err != nil {
		t.Fatalf("DeductForProduction: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	// 5 units: 10 of A, 5 of B.
	if res.TotalRequired != 15 || res.TotalDeducted != 15 {
		t.Errorf("required=%v deducted=%v, want 15 and 15", res.TotalRequired, res.TotalDeducted)
	}
	a := outcomeFor(res, f.matA.MaterialID)
	if a == nil || a.Deducted != 10 || a.MaterialCode != "MAT-A" {
		t.Errorf("material A outcome = %+v", a)
	}
}

func TestDeductEmptyBOMSucceeds(t *testing.T) {
	st := memory.NewStore()
	prod := st.PutProduct(bomEntity.Product{Code: "BARE", Active: true})
	eng := newTestEngine(st)

	res, err := eng.DeductForProduction(context.Background(), allocation.DeductionInput{ProductID: prod.ProductID, Qty: 3})
	if err != nil {
		t.Fatalf("DeductForProduction: %v", err)
	}
	if !res.Success || len(res.Items) != 0 || res.TotalRequired != 0 {
		t.Errorf("empty bill should succeed with nothing deducted, got %+v", res)
	}
}

func TestDeductHintsBeforeFIFO(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 3 units need 6 of A; the operator scanned the newer batch A-2.
	res, err := f.eng.DeductForProduction(ctx, allocation.DeductionInput{
		ProductID: f.product.ProductID,
		Qty:       3,
		Hints:     []allocation.BatchHint{{MaterialID: f.matA.MaterialID, BatchNo: "A-2", Qty: ptr(6.0)}},
	})
	if err != nil {
		t.Fatalf("DeductForProduction: %v", err)
	}
	a := outcomeFor(res, f.matA.MaterialID)
	if a == nil || !a.Success {
		t.Fatalf("material A outcome = %+v", a)
	}
	if len(a.Draws) != 1 || a.Draws[0].BatchNo != "A-2" || a.Draws[0].Qty != 6 {
		t.Errorf("draws = %+v, want all 6 from the hinted batch", a.Draws)
	}

	b2, err := f.st.Batches().ByBatchNo(ctx, "A-1")
	if err != nil {
		t.Fatalf("A-1: %v", err)
	}
	if b2.Used != 0 {
		t.Error("FIFO-first batch should be untouched when the hint covers demand")
	}
}

func TestDeductHintRemainderFallsToFIFO(t *testing.T) {
	f := newFixture(t)

	// 6 units need 12 of A; hint caps at 4 from A-2, FIFO covers 8 starting
	// at the oldest batch.
	res, err := f.eng.DeductForProduction(context.Background(), allocation.DeductionInput{
		ProductID: f.product.ProductID,
		Qty:       6,
		Hints:     []allocation.BatchHint{{MaterialID: f.matA.MaterialID, BatchNo: "A-2", Qty: ptr(4.0)}},
	})
	if err != nil {
		t.Fatalf("DeductForProduction: %v", err)
	}
	a := outcomeFor(res, f.matA.MaterialID)
	if a == nil || !a.Success || a.Deducted != 12 {
		t.Fatalf("material A outcome = %+v", a)
	}
	var fromA1, fromA2 float64
	for _, d := range a.Draws {
		switch d.BatchNo {
		case "A-1":
			fromA1 = d.Qty
		case "A-2":
			fromA2 = d.Qty
		}
	}
	if fromA1 != 8 || fromA2 != 4 {
		t.Errorf("draws = %+v, want 8 from A-1 (FIFO) and 4 from A-2 (hint)", a.Draws)
	}
}

func TestDeductHintAndFIFOMergeLinks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lotID := uint(7)

	// Drain A-1 so FIFO lands on A-2, the same batch the hint touched.
	if err := f.st.Batches().AddUsed(ctx, mustBatch(t, f.st, "A-1").BatchID, 10); err != nil {
		t.Fatalf("AddUsed: %v", err)
	}

	res, err := f.eng.DeductForProduction(ctx, allocation.DeductionInput{
		ProductID: f.product.ProductID,
		Qty:       5, // 10 of A
		Hints:     []allocation.BatchHint{{MaterialID: f.matA.MaterialID, BatchNo: "A-2", Qty: ptr(4.0)}},
		LotID:     &lotID,
	})
	if err != nil {
		t.Fatalf("DeductForProduction: %v", err)
	}
	a := outcomeFor(res, f.matA.MaterialID)
	if a == nil || !a.Success {
		t.Fatalf("material A outcome = %+v", a)
	}
	if len(a.Draws) != 1 || a.Draws[0].Qty != 10 {
		t.Errorf("draws = %+v, want one merged draw of 10 on A-2", a.Draws)
	}

	links, err := f.st.Lots().LinksByLot(ctx, lotID)
	if err != nil {
		t.Fatalf("LinksByLot: %v", err)
	}
	count := 0
	for _, l := range links {
		if l.BatchID == mustBatch(t, f.st, "A-2").BatchID {
			count++
			if l.Qty != 10 {
				t.Errorf("merged link qty = %v, want 10", l.Qty)
			}
		}
	}
	if count != 1 {
		t.Errorf("links to A-2 = %d, want exactly one merged link", count)
	}
}

func mustBatch(t *testing.T, st *memory.Store, batchNo string) *stockEntity.MaterialBatch {
	t.Helper()
	b, err := st.Batches().ByBatchNo(context.Background(), batchNo)
	if err != nil {
		t.Fatalf("batch %s: %v", batchNo, err)
	}
	return b
}

func TestDeductUnknownHintBatchRecorded(t *testing.T) {
	f := newFixture(t)

	res, err := f.eng.DeductForProduction(context.Background(), allocation.DeductionInput{
		ProductID: f.product.ProductID,
		Qty:       1,
		Hints:     []allocation.BatchHint{{MaterialID: f.matA.MaterialID, BatchNo: "GHOST"}},
	})
	if err != nil {
		t.Fatalf("DeductForProduction: %v", err)
	}
	a := outcomeFor(res, f.matA.MaterialID)
	if a == nil {
		t.Fatal("material A outcome missing")
	}
	if a.Success || !strings.Contains(a.Error, "GHOST") {
		t.Errorf("outcome = %+v, want recorded unknown-batch error", a)
	}
	// The orchestration itself still returned normally, and the quantity was
	// drawn by FIFO regardless.
	if a.Deducted != 2 {
		t.Errorf("deducted = %v, want FIFO to cover the demand", a.Deducted)
	}
	if res.Success {
		t.Error("aggregate Success must be false when any material reports an error")
	}
}

func TestDeductMissingMaterialRecordedSiblingsProceed(t *testing.T) {
	f := newFixture(t)
	ghost := uint(4242)
	f.st.PutBOMLine(bomEntity.BOMLine{ProductID: f.product.ProductID, ItemType: bomEntity.ItemTypeMaterial, MaterialID: &ghost, QtyPer: 1})
	f.eng = newTestEngine(f.st)

	res, err := f.eng.DeductForProduction(context.Background(), allocation.DeductionInput{ProductID: f.product.ProductID, Qty: 2})
	if err != nil {
		t.Fatalf("DeductForProduction: %v", err)
	}
	if res.Success {
		t.Error("expected aggregate failure")
	}
	g := outcomeFor(res, ghost)
	if g == nil || g.Error != "material not found" {
		t.Errorf("ghost outcome = %+v", g)
	}
	a := outcomeFor(res, f.matA.MaterialID)
	if a == nil || !a.Success || a.Deducted != 4 {
		t.Errorf("sibling material should still deduct: %+v", a)
	}
}

func TestDeductShortageRecordedNotFatal(t *testing.T) {
	f := newFixture(t)

	// 20 units need 40 of A; only 30 exists.
	res, err := f.eng.DeductForProduction(context.Background(), allocation.DeductionInput{ProductID: f.product.ProductID, Qty: 20})
	if err != nil {
		t.Fatalf("DeductForProduction: %v", err)
	}
	if res.Success {
		t.Error("expected aggregate failure on shortage")
	}
	a := outcomeFor(res, f.matA.MaterialID)
	if a == nil || a.Success || a.Deducted != 30 || a.Remaining != 10 {
		t.Errorf("material A outcome = %+v, want 30 drawn and 10 short", a)
	}
	b := outcomeFor(res, f.matB.MaterialID)
	if b == nil || !b.Success || b.Deducted != 20 {
		t.Errorf("material B should be unaffected: %+v", b)
	}
	found := false
	for _, msg := range res.Errors {
		if strings.Contains(msg, "short") {
			found = true
		}
	}
	if !found {
		t.Errorf("errors = %v, want a shortage entry", res.Errors)
	}
}

func TestDeductNegativeHint(t *testing.T) {
	f := newFixture(t)

	// The operator insists on 24 from A-1, which only holds 10.
	res, err := f.eng.DeductForProduction(context.Background(), allocation.DeductionInput{
		ProductID:     f.product.ProductID,
		Qty:           12,
		Hints:         []allocation.BatchHint{{MaterialID: f.matA.MaterialID, BatchNo: "A-1", Qty: ptr(24.0)}},
		AllowNegative: true,
	})
	if err != nil {
		t.Fatalf("DeductForProduction: %v", err)
	}
	a := outcomeFor(res, f.matA.MaterialID)
	if a == nil || !a.Success || !a.WentNegative {
		t.Fatalf("material A outcome = %+v, want success with WentNegative", a)
	}
	b := mustBatch(t, f.st, "A-1")
	if b.Available() >= 0 {
		t.Errorf("hinted batch available = %v, want negative", b.Available())
	}
}
