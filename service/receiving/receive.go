package receiving

import (
	"context"
	"errors"
	"fmt"
	"time"

	stockEntity "mes.GO/model/entity/stock"
	"mes.GO/service/allocation"
)

var ErrBadReceipt = errors.New("receiving: batch_no and positive qty required")

// Receive books a single batch through the storage port, for the interactive
// surfaces where one scan is one receipt.
func Receive(ctx context.Context, store allocation.Store, in ReceiptInput) (*stockEntity.MaterialBatch, error) {
	if in.BatchNo == "" || in.Qty <= 0 {
		return nil, ErrBadReceipt
	}
	mat, err := store.Materials().ByCode(ctx, in.MaterialCode)
	if err != nil {
		return nil, fmt.Errorf("receiving: material %q: %w", in.MaterialCode, err)
	}
	if existing, err := store.Batches().ByBatchNo(ctx, in.BatchNo); err == nil {
		return existing, fmt.Errorf("receiving: batch %s already received", in.BatchNo)
	} else if !errors.Is(err, allocation.ErrNotFound) {
		return nil, err
	}

	batch := &stockEntity.MaterialBatch{
		MaterialID: mat.MaterialID,
		BatchNo:    in.BatchNo,
		Quantity:   in.Qty,
		Location:   in.Location,
		ReceivedAt: time.Now(),
	}
	if in.ReceivedAt != nil {
		batch.ReceivedAt = *in.ReceivedAt
	}
	if err := store.Batches().Create(ctx, batch); err != nil {
		return nil, err
	}
	return batch, nil
}
