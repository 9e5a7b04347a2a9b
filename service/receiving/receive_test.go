package receiving

import (
	"context"
	"errors"
	"testing"

	stockEntity "mes.GO/model/entity/stock"
	"mes.GO/model/repository/memory"
	"mes.GO/service/allocation"
)

func TestReceiveCreatesBatch(t *testing.T) {
	st := memory.NewStore()
	st.PutMaterial(stockEntity.Material{Code: "AL-SHEET", Unit: "pcs"})
	ctx := context.Background()

	batch, err := Receive(ctx, st, ReceiptInput{MaterialCode: "AL-SHEET", BatchNo: "AL-100", Qty: 40, Location: "WH1"})
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if batch.BatchID == 0 || batch.Quantity != 40 || batch.Location != "WH1" {
		t.Errorf("unexpected batch: %+v", batch)
	}

	got, err := st.Batches().ByBatchNo(ctx, "AL-100")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.Available() != 40 {
		t.Errorf("available = %v, want 40", got.Available())
	}
}

func TestReceiveValidation(t *testing.T) {
	st := memory.NewStore()
	st.PutMaterial(stockEntity.Material{Code: "AL-SHEET", Unit: "pcs"})
	ctx := context.Background()

	if _, err := Receive(ctx, st, ReceiptInput{MaterialCode: "AL-SHEET", Qty: 1}); !errors.Is(err, ErrBadReceipt) {
		t.Errorf("empty batch_no: got %v", err)
	}
	if _, err := Receive(ctx, st, ReceiptInput{MaterialCode: "AL-SHEET", BatchNo: "X", Qty: 0}); !errors.Is(err, ErrBadReceipt) {
		t.Errorf("zero qty: got %v", err)
	}
	if _, err := Receive(ctx, st, ReceiptInput{MaterialCode: "NOPE", BatchNo: "X", Qty: 1}); !errors.Is(err, allocation.ErrNotFound) {
		t.Errorf("unknown material: got %v", err)
	}
}

func TestReceiveDuplicateBatchNo(t *testing.T) {
	st := memory.NewStore()
	st.PutMaterial(stockEntity.Material{Code: "AL-SHEET", Unit: "pcs"})
	ctx := context.Background()

	if _, err := Receive(ctx, st, ReceiptInput{MaterialCode: "AL-SHEET", BatchNo: "AL-100", Qty: 10}); err != nil {
		t.Fatalf("first receive: %v", err)
	}
	if _, err := Receive(ctx, st, ReceiptInput{MaterialCode: "AL-SHEET", BatchNo: "AL-100", Qty: 10}); err == nil {
		t.Error("duplicate batch_no should be rejected")
	}
}
