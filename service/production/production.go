// Package production runs the lot lifecycle: start a lot (number it and
// deduct its BOM materials), complete it, or cancel it and hand the drawn
// stock back.
package production

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"

	productionEntity "mes.GO/model/entity/production"
	"mes.GO/service/allocation"
	"mes.GO/service/numbering"
)

var (
	ErrLotNotFound  = fmt.Errorf("production: %w", allocation.ErrNotFound)
	ErrBadStatus    = errors.New("production: lot status does not allow this transition")
	ErrShortStock   = errors.New("production: insufficient stock for one or more materials")
	ErrUnknownInput = errors.New("production: product_code or product_id required")
)

type Service struct {
	store   allocation.Store
	engine  *allocation.Engine
	numbers *numbering.Service
}

func NewService(store allocation.Store, engine *allocation.Engine, numbers *numbering.Service) *Service {
	return &Service{store: store, engine: engine, numbers: numbers}
}

// StartInput describes a new production lot.
type StartInput struct {
	ProductID       uint                   `json:"product_id"`
	ProductCode     string                 `json:"product_code"`
	ProcessStep     string                 `json:"process_step"`
	PlannedQty      float64                `json:"planned_qty"`
	ParentLotNumber string                 `json:"parent_lot_number,omitempty"`
	Hints           []allocation.BatchHint `json:"hints,omitempty"`
	AllowNegative   bool                   `json:"allow_negative"`
	Attrs           map[string]interface{} `json:"attrs,omitempty"`
}

// StartResult is the started lot plus its deduction report.
type StartResult struct {
	Lot       *productionEntity.ProductionLot `json:"lot"`
	Deduction *allocation.DeductionResult     `json:"deduction"`
}

// Start numbers and creates a lot, then deducts its BOM materials with every
// draw linked to the lot. Shortages are recorded in the deduction report and
// the lot still starts; only storage failures abort.
func (s *Service) Start(ctx context.Context, in StartInput) (*StartResult, error) {
	productID := in.ProductID
	if productID == 0 {
		if in.ProductCode == "" {
			return nil, ErrUnknownInput
		}
		p, err := s.store.Products().ByCode(ctx, in.ProductCode)
		if err != nil {
			return nil, fmt.Errorf("production: product %s: %w", in.ProductCode, err)
		}
		productID = p.ProductID
	} else if _, err := s.store.Products().ByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("production: product %d: %w", productID, err)
	}

	var parentID *uint
	if in.ParentLotNumber != "" {
		parent, err := s.store.Lots().ByNumber(ctx, in.ParentLotNumber)
		if err != nil {
			return nil, fmt.Errorf("production: parent lot %s: %w", in.ParentLotNumber, err)
		}
		parentID = &parent.LotID
	}

	number, err := s.numbers.Next(ctx)
	if err != nil {
		return nil, err
	}

	lot := &productionEntity.ProductionLot{
		LotNumber:   number,
		ProductID:   productID,
		ProcessStep: in.ProcessStep,
		PlannedQty:  in.PlannedQty,
		Status:      productionEntity.StatusInProgress,
		ParentLotID: parentID,
		StartedAt:   time.Now(),
	}
	if in.Attrs != nil {
		raw, err := json.Marshal(in.Attrs)
		if err != nil {
			return nil, fmt.Errorf("production: encode attrs: %w", err)
		}
		lot.Attrs = datatypes.JSON(raw)
	}
	if err := s.store.Lots().Create(ctx, lot); err != nil {
		return nil, err
	}

	ded, err := s.engine.DeductForProduction(ctx, allocation.DeductionInput{
		ProductID:     productID,
		ProcessStep:   in.ProcessStep,
		Qty:           in.PlannedQty,
		Hints:         in.Hints,
		AllowNegative: in.AllowNegative,
		LotID:         &lot.LotID,
	})
	if err != nil {
		return nil, err
	}

	return &StartResult{Lot: lot, Deduction: ded}, nil
}

// Complete moves an in-progress lot to completed and records its output.
func (s *Service) Complete(ctx context.Context, lotNumber string, completedQty, defectQty float64) (*productionEntity.ProductionLot, error) {
	lot, err := s.lotByNumber(ctx, lotNumber)
	if err != nil {
		return nil, err
	}
	if lot.Status != productionEntity.StatusInProgress {
		return nil, fmt.Errorf("%w: %s is %s", ErrBadStatus, lotNumber, lot.Status)
	}
	now := time.Now()
	lot.Status = productionEntity.StatusCompleted
	lot.CompletedQty = completedQty
	lot.DefectQty = defectQty
	lot.CompletedAt = &now
	if err := s.store.Lots().Update(ctx, lot); err != nil {
		return nil, err
	}
	return lot, nil
}

// Cancel rolls back every deduction attributed to the lot and marks it
// cancelled. Completed lots cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, lotNumber string) (*productionEntity.ProductionLot, int, error) {
	lot, err := s.lotByNumber(ctx, lotNumber)
	if err != nil {
		return nil, 0, err
	}
	if lot.Status == productionEntity.StatusCompleted {
		return nil, 0, fmt.Errorf("%w: %s is completed", ErrBadStatus, lotNumber)
	}

	restored, err := s.engine.Rollback(ctx, lot.LotID)
	if err != nil {
		return nil, 0, err
	}

	lot.Status = productionEntity.StatusCancelled
	if err := s.store.Lots().Update(ctx, lot); err != nil {
		return nil, restored, err
	}
	return lot, restored, nil
}

// Deduct runs a deduction for an existing lot, for reruns after a shortage
// was resolved.
func (s *Service) Deduct(ctx context.Context, lotNumber string, in allocation.DeductionInput) (*allocation.DeductionResult, error) {
	lot, err := s.lotByNumber(ctx, lotNumber)
	if err != nil {
		return nil, err
	}
	if lot.Status != productionEntity.StatusInProgress {
		return nil, fmt.Errorf("%w: %s is %s", ErrBadStatus, lotNumber, lot.Status)
	}
	if in.ProductID == 0 {
		in.ProductID = lot.ProductID
	}
	if in.ProcessStep == "" {
		in.ProcessStep = lot.ProcessStep
	}
	in.LotID = &lot.LotID
	return s.engine.DeductForProduction(ctx, in)
}

func (s *Service) lotByNumber(ctx context.Context, lotNumber string) (*productionEntity.ProductionLot, error) {
	lot, err := s.store.Lots().ByNumber(ctx, lotNumber)
	if errors.Is(err, allocation.ErrNotFound) {
		return nil, fmt.Errorf("%w: lot %s", ErrLotNotFound, lotNumber)
	}
	if err != nil {
		return nil, err
	}
	return lot, nil
}
