package allocation

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// BatchHint is an operator-scanned batch to prefer over FIFO order for one
// material. A nil Qty means "up to the batch's available quantity".
type BatchHint struct {
	MaterialID uint     `json:"material_id"`
	BatchNo    string   `json:"batch_no"`
	Qty        *float64 `json:"qty,omitempty"`
}

// DeductionInput describes one production run's material deduction.
type DeductionInput struct {
	ProductID     uint        `json:"product_id"`
	ProcessStep   string      `json:"process_step"`
	Qty           float64     `json:"qty"`
	Hints         []BatchHint `json:"hints,omitempty"`
	AllowNegative bool        `json:"allow_negative"`
	// LotID attributes every draw to a production lot for rollback and
	// genealogy. Nil performs an unattributed deduction.
	LotID *uint `json:"lot_id,omitempty"`
}

// MaterialOutcome is the per-material deduction report.
type MaterialOutcome struct {
	MaterialID   uint        `json:"material_id"`
	MaterialCode string      `json:"material_code,omitempty"`
	Required     float64     `json:"required"`
	Deducted     float64     `json:"deducted"`
	Remaining    float64     `json:"remaining"`
	Draws        []BatchDraw `json:"draws,omitempty"`
	Success      bool        `json:"success"`
	WentNegative bool        `json:"went_negative,omitempty"`
	Error        string      `json:"error,omitempty"`
}

// DeductionResult aggregates one orchestrated deduction. Success is false
// when any material could not be fully deducted.
type DeductionResult struct {
	TotalRequired float64           `json:"total_required"`
	TotalDeducted float64           `json:"total_deducted"`
	Items         []MaterialOutcome `json:"items"`
	Errors        []string          `json:"errors,omitempty"`
	Success       bool              `json:"success"`
}

// DeductForProduction resolves the BOM and deducts every required material
// inside one storage transaction: operator hints first, FIFO for the
// remainder. A material whose lookup fails is recorded in the result and the
// siblings still get processed; storage failures abort and roll back the
// whole call.
func (e *Engine) DeductForProduction(ctx context.Context, in DeductionInput) (*DeductionResult, error) {
	res := &DeductionResult{Success: true}
	err := e.store.Transact(ctx, func(st Store) error {
		lines, err := e.materialLines(ctx, st, in.ProductID, in.ProcessStep)
		if err != nil {
			return err
		}
		for _, req := range scaleLines(lines, in.Qty) {
			out, err := e.deductMaterial(ctx, st, req, in)
			if err != nil {
				return err
			}
			res.Items = append(res.Items, out)
			res.TotalRequired += out.Required
			res.TotalDeducted += out.Deducted
			if !out.Success {
				res.Success = false
				if out.Error != "" {
					res.Errors = append(res.Errors, fmt.Sprintf("material %d: %s", out.MaterialID, out.Error))
				} else {
					res.Errors = append(res.Errors, fmt.Sprintf("material %d: short %.4f of %.4f", out.MaterialID, out.Remaining, out.Required))
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// deductMaterial handles one requirement. The returned error is reserved for
// storage failures; business failures (missing batch, short stock) land in
// the outcome.
func (e *Engine) deductMaterial(ctx context.Context, st Store, req Requirement, in DeductionInput) (MaterialOutcome, error) {
	out := MaterialOutcome{
		MaterialID: req.MaterialID,
		Required:   req.Qty,
		Remaining:  req.Qty,
	}
	var problems []string

	mat, err := st.Materials().ByID(ctx, req.MaterialID)
	switch {
	case errors.Is(err, ErrNotFound):
		out.Error = "material not found"
		return out, nil
	case err != nil:
		return out, err
	}
	out.MaterialCode = mat.Code

	dl := newDrawList()

	// Scanned batches first.
	for _, h := range in.Hints {
		if h.MaterialID != req.MaterialID || out.Remaining <= 0 {
			continue
		}
		b, err := st.Batches().ByBatchNo(ctx, h.BatchNo)
		switch {
		case errors.Is(err, ErrNotFound):
			problems = append(problems, fmt.Sprintf("batch %s not found", h.BatchNo))
			continue
		case err != nil:
			return out, err
		}
		if b.MaterialID != req.MaterialID {
			problems = append(problems, fmt.Sprintf("batch %s is not material %s", h.BatchNo, mat.Code))
			continue
		}

		avail := b.Available()
		want := out.Remaining
		if h.Qty != nil {
			if *h.Qty < want {
				want = *h.Qty
			}
		} else if avail < want {
			want = avail
		}
		if want <= 0 {
			continue
		}

		draw := want
		wentNegative := false
		if draw > avail {
			if !in.AllowNegative {
				draw = avail
				if draw <= 0 {
					continue
				}
			} else {
				wentNegative = true
			}
		}
		if err := st.Batches().AddUsed(ctx, b.BatchID, draw); err != nil {
			return out, err
		}
		dl.add(b.BatchID, b.BatchNo, draw, wentNegative)
		out.Remaining -= draw
		if wentNegative {
			out.WentNegative = true
		}
	}

	// FIFO picks up whatever the hints left unfulfilled. Links are written
	// once below from the merged draw list, so a batch hit by both a hint and
	// the FIFO pass yields a single link.
	if out.Remaining > 0 {
		fres, err := consumeFIFO(ctx, st, req.MaterialID, out.Remaining, nil, in.AllowNegative)
		if err != nil {
			return out, err
		}
		for _, d := range fres.Draws {
			dl.add(d.BatchID, d.BatchNo, d.Qty, d.WentNegative)
			if d.WentNegative {
				out.WentNegative = true
			}
		}
		out.Remaining = fres.Remaining
	}

	if in.LotID != nil {
		for _, d := range dl.draws {
			if err := st.Lots().CreateLink(ctx, newLink(*in.LotID, d)); err != nil {
				return out, err
			}
		}
	}

	out.Draws = dl.draws
	out.Deducted = dl.total()
	out.Error = strings.Join(problems, "; ")
	out.Success = out.Remaining <= 0 && out.Error == ""
	return out, nil
}
