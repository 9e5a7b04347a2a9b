package allocation

import (
	"context"

	"mes.GO/core/cache"
	bomEntity "mes.GO/model/entity/bom"
)

// Engine is the allocation engine: BOM resolution, FIFO consumption,
// multi-material deduction and rollback, all against a storage port.
type Engine struct {
	store Store
	cache *cache.Cache
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store, cache: cache.GetInstance()}
}

// Requirement is one resolved BOM demand: material and quantity for the
// whole production quantity.
type Requirement struct {
	MaterialID uint    `json:"material_id"`
	Qty        float64 `json:"qty"`
	Unit       string  `json:"unit,omitempty"`
}

// ResolveBOM scales the product's material lines by the production quantity.
// An empty BOM resolves to an empty list, not an error.
func (e *Engine) ResolveBOM(ctx context.Context, productID uint, processStep string, qty float64) ([]Requirement, error) {
	lines, err := e.materialLines(ctx, e.store, productID, processStep)
	if err != nil {
		return nil, err
	}
	return scaleLines(lines, qty), nil
}

func scaleLines(lines []bomEntity.BOMLine, qty float64) []Requirement {
	out := make([]Requirement, 0, len(lines))
	for _, l := range lines {
		if l.MaterialID == nil {
			continue
		}
		out = append(out, Requirement{
			MaterialID: *l.MaterialID,
			Qty:        l.QtyPer * qty,
			Unit:       l.Unit,
		})
	}
	return out
}

// materialLines loads the product's material lines for the step, cached for
// five minutes under the "bom" tag (BOM rows are static reference data;
// mutations invalidate the tag).
func (e *Engine) materialLines(ctx context.Context, st Store, productID uint, processStep string) ([]bomEntity.BOMLine, error) {
	if v, ok := e.cache.GetN("bom", productID, processStep); ok {
		if lines, isLines := v.([]bomEntity.BOMLine); isLines {
			return lines, nil
		}
	}
	lines, err := st.BOM().MaterialLines(ctx, productID, processStep)
	if err != nil {
		return nil, err
	}
	e.cache.SetN([]interface{}{"bom", productID, processStep}, lines, 300, []string{"bom"})
	return lines, nil
}
