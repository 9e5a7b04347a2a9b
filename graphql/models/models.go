// Package models holds the GraphQL output shapes. graphql-go matches struct
// fields to schema fields case-insensitively, and Int fields must be int32.
package models

type Lot struct {
	LotID        int32
	LotNumber    string
	Status       string
	ProcessStep  *string
	PlannedQty   float64
	CompletedQty float64
	DefectQty    float64
	Consumed     []*Consumption
}

type Consumption struct {
	BatchNo      string
	MaterialCode string
	MaterialName *string
	Qty          float64
}

type Batch struct {
	BatchID      int32
	BatchNo      string
	MaterialCode string
	Quantity     float64
	Used         float64
	Available    float64
	Location     *string
}

type Material struct {
	MaterialID int32
	Code       string
	Name       string
	Unit       string
	Available  float64
}

type Availability struct {
	MaterialCode string
	MaterialName string
	Unit         string
	Available    float64
}

type Requirement struct {
	MaterialID int32
	Qty        float64
	Unit       *string
}

type TraceBoth struct {
	Forward  *TraceNode
	Backward *TraceNode
}

type TraceNode struct {
	Kind     string
	Label    string
	Detail   *string
	Qty      *float64
	Depth    int32
	Children []*TraceNode
}
