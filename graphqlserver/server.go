package graphqlserver

import (
	"context"
	"encoding/json"
	"errors"

	gql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"gorm.io/gorm"

	"mes.GO/config"
	"mes.GO/graphql"
	gqlmodels "mes.GO/graphql/models"
	"mes.GO/graphql/registry"
	productionEntity "mes.GO/model/entity/production"
	"mes.GO/model/repository/gormstore"
	productionRepo "mes.GO/model/repository/production"
	stockRepo "mes.GO/model/repository/stock"
	"mes.GO/service/allocation"
	"mes.GO/service/search"
	traceService "mes.GO/service/trace"
)

// RootResolver is the root for graphql-go.
type RootResolver struct {
	DB *gorm.DB
}

// Query returns the query resolver.
func (r *RootResolver) Query() *QueryResolver {
	return &QueryResolver{db: r.DB}
}

// QueryResolver implements Query fields against the repositories and services.
type QueryResolver struct {
	db *gorm.DB
}

func (r *QueryResolver) tracer() *traceService.Tracer {
	return traceService.NewTracer(gormstore.New(r.db))
}

func (r *QueryResolver) depth(in *int32) int {
	config.LoadAppConfig()
	if in != nil && *in > 0 {
		return int(*in)
	}
	return config.AppConfig.TraceMaxDepth
}

func (r *QueryResolver) lotModel(ctx context.Context, lot *productionEntity.ProductionLot) (*gqlmodels.Lot, error) {
	repo := productionRepo.NewLotRepository(r.db)
	rows, err := repo.LinkDetailsByLot(ctx, lot.LotID)
	if err != nil {
		return nil, err
	}
	out := &gqlmodels.Lot{
		LotID:        int32(lot.LotID),
		LotNumber:    lot.LotNumber,
		Status:       lot.Status,
		PlannedQty:   lot.PlannedQty,
		CompletedQty: lot.CompletedQty,
		DefectQty:    lot.DefectQty,
		Consumed:     make([]*gqlmodels.Consumption, 0, len(rows)),
	}
	if lot.ProcessStep != "" {
		step := lot.ProcessStep
		out.ProcessStep = &step
	}
	for _, row := range rows {
		c := &gqlmodels.Consumption{
			BatchNo:      row.BatchNo,
			MaterialCode: row.MaterialCode,
			Qty:          row.Qty,
		}
		if row.MaterialName != "" {
			name := row.MaterialName
			c.MaterialName = &name
		}
		out.Consumed = append(out.Consumed, c)
	}
	return out, nil
}

// LotArgs matches the lot query arguments.
type LotArgs struct {
	Number string
}

func (r *QueryResolver) Lot(ctx context.Context, args LotArgs) (*gqlmodels.Lot, error) {
	lot, err := productionRepo.NewLotRepository(r.db).ByNumber(ctx, args.Number)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.lotModel(ctx, lot)
}

// SearchLotsArgs matches the searchLots query arguments.
type SearchLotsArgs struct {
	Query string
	Limit *int32
}

func (r *QueryResolver) SearchLots(ctx context.Context, args SearchLotsArgs) ([]*gqlmodels.Lot, error) {
	limit := 20
	if args.Limit != nil && *args.Limit > 0 {
		limit = int(*args.Limit)
	}
	repo := productionRepo.NewLotRepository(r.db)
	lots, err := search.GetSearchService().SearchLots(ctx, repo, args.Query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*gqlmodels.Lot, 0, len(lots))
	for i := range lots {
		m, err := r.lotModel(ctx, &lots[i])
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// BatchArgs matches the batch query arguments.
type BatchArgs struct {
	BatchNo string
}

func (r *QueryResolver) Batch(ctx context.Context, args BatchArgs) (*gqlmodels.Batch, error) {
	store := gormstore.New(r.db)
	batch, err := store.Batches().ByBatchNo(ctx, args.BatchNo)
	if errors.Is(err, allocation.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	mat, err := store.Materials().ByID(ctx, batch.MaterialID)
	if err != nil {
		return nil, err
	}
	out := &gqlmodels.Batch{
		BatchID:      int32(batch.BatchID),
		BatchNo:      batch.BatchNo,
		MaterialCode: mat.Code,
		Quantity:     batch.Quantity,
		Used:         batch.Used,
		Available:    batch.Available(),
	}
	if batch.Location != "" {
		loc := batch.Location
		out.Location = &loc
	}
	return out, nil
}

// MaterialArgs matches the material query arguments.
type MaterialArgs struct {
	Code string
}

func (r *QueryResolver) Material(ctx context.Context, args MaterialArgs) (*gqlmodels.Material, error) {
	stock := stockRepo.NewStockRepository(r.db)
	mat, err := stock.MaterialByCode(ctx, args.Code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	available, err := stock.GetAvailableByMaterial(ctx, mat.MaterialID)
	if err != nil {
		return nil, err
	}
	return &gqlmodels.Material{
		MaterialID: int32(mat.MaterialID),
		Code:       mat.Code,
		Name:       mat.Name,
		Unit:       mat.Unit,
		Available:  available,
	}, nil
}

func (r *QueryResolver) Availability(ctx context.Context) ([]*gqlmodels.Availability, error) {
	rows, err := stockRepo.NewStockRepository(r.db).Availability(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*gqlmodels.Availability, 0, len(rows))
	for _, row := range rows {
		out = append(out, &gqlmodels.Availability{
			MaterialCode: row.Code,
			MaterialName: row.Name,
			Unit:         row.Unit,
			Available:    row.Available,
		})
	}
	return out, nil
}

// BomArgs matches the bom query arguments.
type BomArgs struct {
	ProductCode string
	Step        *string
	Qty         *float64
}

func (r *QueryResolver) Bom(ctx context.Context, args BomArgs) ([]*gqlmodels.Requirement, error) {
	store := gormstore.New(r.db)
	product, err := store.Products().ByCode(ctx, args.ProductCode)
	if err != nil {
		if errors.Is(err, allocation.ErrNotFound) {
			return []*gqlmodels.Requirement{}, nil
		}
		return nil, err
	}
	step := ""
	if args.Step != nil {
		step = *args.Step
	}
	qty := 1.0
	if args.Qty != nil && *args.Qty > 0 {
		qty = *args.Qty
	}
	reqs, err := allocation.NewEngine(store).ResolveBOM(ctx, product.ProductID, step, qty)
	if err != nil {
		return nil, err
	}
	out := make([]*gqlmodels.Requirement, 0, len(reqs))
	for _, req := range reqs {
		m := &gqlmodels.Requirement{MaterialID: int32(req.MaterialID), Qty: req.Qty}
		if req.Unit != "" {
			unit := req.Unit
			m.Unit = &unit
		}
		out = append(out, m)
	}
	return out, nil
}

// TraceForwardArgs matches the traceForward query arguments.
type TraceForwardArgs struct {
	BatchNo string
	Depth   *int32
}

func (r *QueryResolver) TraceForward(ctx context.Context, args TraceForwardArgs) (*gqlmodels.TraceNode, error) {
	tree, err := r.tracer().TraceForward(ctx, args.BatchNo, r.depth(args.Depth))
	if err != nil {
		return nil, err
	}
	return toTraceNode(tree.Root), nil
}

// TraceBackwardArgs matches the traceBackward query arguments.
type TraceBackwardArgs struct {
	LotNumber string
	Depth     *int32
}

func (r *QueryResolver) TraceBackward(ctx context.Context, args TraceBackwardArgs) (*gqlmodels.TraceNode, error) {
	tree, err := r.tracer().TraceBackward(ctx, args.LotNumber, r.depth(args.Depth))
	if err != nil {
		return nil, err
	}
	return toTraceNode(tree.Root), nil
}

// TraceBothArgs matches the traceBoth query arguments.
type TraceBothArgs struct {
	ID    string
	Depth *int32
}

func (r *QueryResolver) TraceBoth(ctx context.Context, args TraceBothArgs) (*gqlmodels.TraceBoth, error) {
	res, err := r.tracer().TraceBoth(ctx, args.ID, r.depth(args.Depth))
	if err != nil {
		return nil, err
	}
	return &gqlmodels.TraceBoth{
		Forward:  toTraceNode(res.Forward.Root),
		Backward: toTraceNode(res.Backward.Root),
	}, nil
}

func toTraceNode(n *traceService.Node) *gqlmodels.TraceNode {
	if n == nil {
		return nil
	}
	out := &gqlmodels.TraceNode{
		Kind:     n.Kind,
		Label:    n.Label,
		Depth:    int32(n.Depth),
		Children: make([]*gqlmodels.TraceNode, 0, len(n.Children)),
	}
	if n.Detail != "" {
		detail := n.Detail
		out.Detail = &detail
	}
	if n.Qty != 0 {
		qty := n.Qty
		out.Qty = &qty
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, toTraceNode(c))
	}
	return out
}

// ExtensionArgs for _extension(name, args).
type ExtensionArgs struct {
	Name string
	Args *string
}

func (r *QueryResolver) Extension(ctx context.Context, args ExtensionArgs) (*string, error) {
	var m map[string]interface{}
	if args.Args != nil && *args.Args != "" {
		_ = json.Unmarshal([]byte(*args.Args), &m)
	}
	if m == nil {
		m = make(map[string]interface{})
	}
	out, err := registry.Resolve(ctx, args.Name, m)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

// NewSchema parses the schema and returns a graphql-go Schema.
func NewSchema(db *gorm.DB) (*gql.Schema, error) {
	return gql.ParseSchema(graphql.Schema(), &RootResolver{DB: db}, gql.UseFieldResolvers())
}

// Handler returns an http.Handler for GraphQL (relay format).
func Handler(schema *gql.Schema) *relay.Handler {
	return &relay.Handler{Schema: schema}
}
