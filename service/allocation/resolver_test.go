package allocation_test

import (
	"context"
	"testing"

	bomEntity "mes.GO/model/entity/bom"
	stockEntity "mes.GO/model/entity/stock"
	"mes.GO/model/repository/memory"
)

func TestResolveBOMScaling(t *testing.T) {
	f := newFixture(t)

	reqs, err := f.eng.ResolveBOM(context.Background(), f.product.ProductID, "", 4)
	if err != nil {
		t.Fatalf("ResolveBOM: %v", err)
	}
	if len(reqs) != 2 {
		t.Fatalf("requirements = %+v, want 2", reqs)
	}
	byMat := map[uint]float64{}
	for _, r := range reqs {
		byMat[r.MaterialID] = r.Qty
	}
	if byMat[f.matA.MaterialID] != 8 || byMat[f.matB.MaterialID] != 4 {
		t.Errorf("scaled quantities = %v, want A=8 B=4", byMat)
	}
}

func TestResolveBOMStepFilter(t *testing.T) {
	st := memory.NewStore()
	mat := st.PutMaterial(stockEntity.Material{Code: "FLUX", Unit: "g"})
	other := st.PutMaterial(stockEntity.Material{Code: "WIRE", Unit: "m"})
	prod := st.PutProduct(bomEntity.Product{Code: "PCB", Active: true})
	matID, otherID := mat.MaterialID, other.MaterialID
	st.PutBOMLine(bomEntity.BOMLine{ProductID: prod.ProductID, ItemType: bomEntity.ItemTypeMaterial, MaterialID: &matID, QtyPer: 1, ProcessStep: "solder"})
	st.PutBOMLine(bomEntity.BOMLine{ProductID: prod.ProductID, ItemType: bomEntity.ItemTypeMaterial, MaterialID: &otherID, QtyPer: 2, ProcessStep: ""})
	eng := newTestEngine(st)

	// A step-scoped resolve sees the step's lines plus every-step lines.
	reqs, err := eng.ResolveBOM(context.Background(), prod.ProductID, "solder", 1)
	if err != nil {
		t.Fatalf("ResolveBOM: %v", err)
	}
	if len(reqs) != 2 {
		t.Fatalf("solder step requirements = %+v, want both lines", reqs)
	}

	// A different step sees only the every-step line.
	reqs, err = eng.ResolveBOM(context.Background(), prod.ProductID, "assembly", 1)
	if err != nil {
		t.Fatalf("ResolveBOM: %v", err)
	}
	if len(reqs) != 1 || reqs[0].MaterialID != otherID {
		t.Errorf("assembly step requirements = %+v, want only the unscoped line", reqs)
	}
}

func TestResolveBOMEmpty(t *testing.T) {
	st := memory.NewStore()
	prod := st.PutProduct(bomEntity.Product{Code: "EMPTY", Active: true})
	eng := newTestEngine(st)

	reqs, err := eng.ResolveBOM(context.Background(), prod.ProductID, "", 10)
	if err != nil {
		t.Fatalf("ResolveBOM: %v", err)
	}
	if len(reqs) != 0 {
		t.Errorf("requirements = %+v, want none", reqs)
	}
}

func TestResolveBOMSkipsSubAssemblies(t *testing.T) {
	st := memory.NewStore()
	mat := st.PutMaterial(stockEntity.Material{Code: "SCREW", Unit: "pcs"})
	prod := st.PutProduct(bomEntity.Product{Code: "CHAIR", Active: true})
	child := st.PutProduct(bomEntity.Product{Code: "LEG", Active: true})
	matID, childID := mat.MaterialID, child.ProductID
	st.PutBOMLine(bomEntity.BOMLine{ProductID: prod.ProductID, ItemType: bomEntity.ItemTypeMaterial, MaterialID: &matID, QtyPer: 4})
	st.PutBOMLine(bomEntity.BOMLine{ProductID: prod.ProductID, ItemType: bomEntity.ItemTypeSubAssembly, ChildProductID: &childID, QtyPer: 4})
	eng := newTestEngine(st)

	reqs, err := eng.ResolveBOM(context.Background(), prod.ProductID, "", 1)
	if err != nil {
		t.Fatalf("ResolveBOM: %v", err)
	}
	if len(reqs) != 1 || reqs[0].MaterialID != matID {
		t.Errorf("requirements = %+v, want only the material line", reqs)
	}
}
