// Package trace builds lot genealogy trees: forward from a material batch to
// every downstream production lot, backward from a lot to its consumed
// batches and parent chain. Traversal is a worklist with an explicit depth
// bound; cyclic or malformed parent links cannot hang it.
package trace

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	productionEntity "mes.GO/model/entity/production"
	"mes.GO/service/allocation"
)

// DefaultMaxDepth bounds traversal when the caller passes none.
const DefaultMaxDepth = 10

// Node kinds.
const (
	KindMaterial = "material"
	KindBatch    = "batch"
	KindLot      = "lot"
	KindNotFound = "not_found"
)

// Node is one vertex of a genealogy tree.
type Node struct {
	Kind     string  `json:"kind"`
	Label    string  `json:"label"`
	Detail   string  `json:"detail,omitempty"`
	Qty      float64 `json:"qty,omitempty"`
	Depth    int     `json:"depth"`
	Children []*Node `json:"children,omitempty"`
}

// Tree is a complete trace result.
type Tree struct {
	Root      *Node `json:"root"`
	NodeCount int   `json:"node_count"`
	MaxDepth  int   `json:"max_depth"`
}

// BothResult carries the two independent trees of a both-directions trace.
type BothResult struct {
	Forward  *Tree `json:"forward"`
	Backward *Tree `json:"backward"`
}

type Tracer struct {
	store allocation.Store
}

func NewTracer(store allocation.Store) *Tracer {
	return &Tracer{store: store}
}

// treeBuilder accumulates node count and deepest level while nodes attach.
type treeBuilder struct {
	count    int
	maxDepth int
}

func (t *treeBuilder) node(kind, label, detail string, qty float64, depth int) *Node {
	t.count++
	if depth > t.maxDepth {
		t.maxDepth = depth
	}
	return &Node{Kind: kind, Label: label, Detail: detail, Qty: qty, Depth: depth}
}

func notFoundTree(kind, label string) *Tree {
	return &Tree{
		Root:      &Node{Kind: KindNotFound, Label: label, Detail: kind + " not found"},
		NodeCount: 1,
	}
}

// TraceForward builds the downstream tree of a material batch: every lot
// that drew from it, then recursively the lots built from those lots, up to
// maxDepth levels.
func (t *Tracer) TraceForward(ctx context.Context, batchNo string, maxDepth int) (*Tree, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	batch, err := t.store.Batches().ByBatchNo(ctx, batchNo)
	if errors.Is(err, allocation.ErrNotFound) {
		return notFoundTree(KindBatch, batchNo), nil
	}
	if err != nil {
		return nil, err
	}

	links, err := t.store.Lots().LinksByBatch(ctx, batch.BatchID)
	if err != nil {
		return nil, err
	}

	tb := &treeBuilder{}
	root := tb.node(KindBatch, batch.BatchNo, fmt.Sprintf("material %d", batch.MaterialID), batch.Quantity, 0)

	// Worklist of lots whose children still need expanding. Each entry
	// already has its node attached; expanding costs one unit of depth.
	type workItem struct {
		lotID uint
		node  *Node
		depth int
	}
	var work []workItem

	for _, link := range links {
		lot, err := t.store.Lots().ByID(ctx, link.LotID)
		if errors.Is(err, allocation.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		n := tb.node(KindLot, lot.LotNumber, lot.Status, link.Qty, 1)
		root.Children = append(root.Children, n)
		work = append(work, workItem{lotID: lot.LotID, node: n, depth: 1})
	}

	for len(work) > 0 {
		item := work[0]
		work = work[1:]
		if item.depth >= maxDepth {
			continue
		}
		children, err := t.store.Lots().Children(ctx, item.lotID)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			n := tb.node(KindLot, child.LotNumber, child.Status, child.CompletedQty, item.depth+1)
			item.node.Children = append(item.node.Children, n)
			work = append(work, workItem{lotID: child.LotID, node: n, depth: item.depth + 1})
		}
	}

	return &Tree{Root: root, NodeCount: tb.count, MaxDepth: tb.maxDepth}, nil
}

// TraceBackward builds the upstream tree of a production lot: the batches it
// consumed at each level, following the parent-lot chain up to maxDepth
// levels. Parent links are not guaranteed acyclic, so the climb spends one
// unit of depth per hop and stops at the bound.
func (t *Tracer) TraceBackward(ctx context.Context, lotNumber string, maxDepth int) (*Tree, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	lot, err := t.store.Lots().ByNumber(ctx, lotNumber)
	if errors.Is(err, allocation.ErrNotFound) {
		return notFoundTree(KindLot, lotNumber), nil
	}
	if err != nil {
		return nil, err
	}

	tb := &treeBuilder{}
	root := tb.node(KindLot, lot.LotNumber, lot.Status, lot.CompletedQty, 0)

	node, depth := root, 0
	current := lot
	for {
		if err := t.attachConsumed(ctx, tb, node, current, depth+1); err != nil {
			return nil, err
		}
		if current.ParentLotID == nil || depth+1 > maxDepth {
			break
		}
		parent, err := t.store.Lots().ByID(ctx, *current.ParentLotID)
		if errors.Is(err, allocation.ErrNotFound) {
			node.Children = append(node.Children, tb.node(KindNotFound, fmt.Sprintf("lot %d", *current.ParentLotID), "parent lot missing", 0, depth+1))
			break
		}
		if err != nil {
			return nil, err
		}
		depth++
		pn := tb.node(KindLot, parent.LotNumber, parent.Status, parent.CompletedQty, depth)
		node.Children = append(node.Children, pn)
		node = pn
		current = parent
		if depth >= maxDepth {
			break
		}
	}

	return &Tree{Root: root, NodeCount: tb.count, MaxDepth: tb.maxDepth}, nil
}

// attachConsumed adds one child node per material batch the lot drew from.
func (t *Tracer) attachConsumed(ctx context.Context, tb *treeBuilder, node *Node, lot *productionEntity.ProductionLot, depth int) error {
	links, err := t.store.Lots().LinksByLot(ctx, lot.LotID)
	if err != nil {
		return err
	}
	for _, link := range links {
		batch, err := t.store.Batches().ByID(ctx, link.BatchID)
		if errors.Is(err, allocation.ErrNotFound) {
			node.Children = append(node.Children, tb.node(KindNotFound, fmt.Sprintf("batch %d", link.BatchID), "batch missing", link.Qty, depth))
			continue
		}
		if err != nil {
			return err
		}
		mat, err := t.store.Materials().ByID(ctx, batch.MaterialID)
		detail := ""
		if err == nil {
			detail = mat.Code
		} else if !errors.Is(err, allocation.ErrNotFound) {
			return err
		}
		node.Children = append(node.Children, tb.node(KindMaterial, batch.BatchNo, detail, link.Qty, depth))
	}
	return nil
}

// TraceBoth runs the forward and backward traces independently and returns
// both trees. The id is tried as a batch number forward and as a lot number
// backward; the traces run concurrently.
func (t *Tracer) TraceBoth(ctx context.Context, id string, maxDepth int) (*BothResult, error) {
	res := &BothResult{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tree, err := t.TraceForward(gctx, id, maxDepth)
		if err != nil {
			return err
		}
		res.Forward = tree
		return nil
	})
	g.Go(func() error {
		tree, err := t.TraceBackward(gctx, id, maxDepth)
		if err != nil {
			return err
		}
		res.Backward = tree
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// Flatten returns the tree's nodes in depth-first order, for list renderers.
func Flatten(tree *Tree) []*Node {
	if tree == nil || tree.Root == nil {
		return nil
	}
	var out []*Node
	stack := []*Node{tree.Root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, n)
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	return out
}
