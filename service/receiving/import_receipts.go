// Package receiving takes material batches into the stock ledger: bulk JSON
// imports from upstream systems and ad-hoc single receipts.
package receiving

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	stockEntity "mes.GO/model/entity/stock"
)

// ReceiptInput is one incoming batch row. Material is addressed by code, the
// way upstream systems know it.
type ReceiptInput struct {
	MaterialCode string     `json:"material_code"`
	BatchNo      string     `json:"batch_no"`
	Qty          float64    `json:"qty"`
	Location     string     `json:"location,omitempty"`
	ReceivedAt   *time.Time `json:"received_at,omitempty"`
}

type ReceiptImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Warnings []string `json:"warnings,omitempty"`
}

// ImportReceiptsJSON bulk-inserts material batches. Material codes are
// resolved in chunks, rows with an unknown code, empty batch number or
// non-positive quantity are skipped with a warning, and duplicate batch
// numbers are left untouched.
func ImportReceiptsJSON(db *gorm.DB, items []ReceiptInput, batchSize int) (*ReceiptImportResult, error) {
	if batchSize <= 0 {
		batchSize = 500
	}

	result := &ReceiptImportResult{}

	codes := make([]string, 0, len(items))
	for _, it := range items {
		if it.MaterialCode != "" {
			codes = append(codes, it.MaterialCode)
		}
	}

	type codeRow struct {
		MaterialID uint   `gorm:"column:material_id"`
		Code       string `gorm:"column:code"`
	}
	codeToID := make(map[string]uint)
	for i := 0; i < len(codes); i += batchSize {
		end := i + batchSize
		if end > len(codes) {
			end = len(codes)
		}
		var chunk []codeRow
		db.Table("materials").Select("material_id, code").Where("code IN ?", codes[i:end]).Find(&chunk)
		for _, r := range chunk {
			codeToID[r.Code] = r.MaterialID
		}
	}

	rows := make([]stockEntity.MaterialBatch, 0, len(items))
	for _, it := range items {
		if it.BatchNo == "" {
			result.Skipped++
			result.Warnings = append(result.Warnings, "empty batch_no, skipping")
			continue
		}
		if it.Qty <= 0 {
			result.Skipped++
			result.Warnings = append(result.Warnings, fmt.Sprintf("batch_no=%s: non-positive qty", it.BatchNo))
			continue
		}
		materialID, ok := codeToID[it.MaterialCode]
		if !ok {
			result.Skipped++
			result.Warnings = append(result.Warnings, fmt.Sprintf("batch_no=%s: material %q not found", it.BatchNo, it.MaterialCode))
			continue
		}

		row := stockEntity.MaterialBatch{
			MaterialID: materialID,
			BatchNo:    it.BatchNo,
			Quantity:   it.Qty,
			Location:   it.Location,
			ReceivedAt: time.Now(),
		}
		if it.ReceivedAt != nil {
			row.ReceivedAt = *it.ReceivedAt
		}
		rows = append(rows, row)
	}

	if len(rows) > 0 {
		// Re-sent receipts must not double stock.
		keep := clause.OnConflict{
			Columns:   []clause.Column{{Name: "batch_no"}},
			DoNothing: true,
		}
		if err := db.Clauses(keep).CreateInBatches(rows, batchSize).Error; err != nil {
			return nil, fmt.Errorf("receipt insert: %w", err)
		}
	}

	result.Imported = len(rows)
	return result, nil
}
