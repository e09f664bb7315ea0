package transaction

import (
	"errors"
	"slices"

	apperrors "encrypted-notes/internal/errors"
	"encrypted-notes/internal/ids"
)

// CausalGraph is an ordered view over one bucket's transactions. Ordering is
// produced outside this package.
type CausalGraph interface {
	Len() int
	// Transactions returns the bucket in causal order.
	Transactions() []*Transaction
}

// GraphBuilder turns an unordered subset into a CausalGraph.
type GraphBuilder func(txs []*Transaction) CausalGraph

// Sequence is a CausalGraph that trusts the order transactions were
// delivered in.
type Sequence []*Transaction

// NewSequence copies txs. The result is never nil, even for an empty batch.
func NewSequence(txs []*Transaction) CausalGraph {
	return append(Sequence{}, txs...)
}

func (s Sequence) Len() int { return len(s) }

func (s Sequence) Transactions() []*Transaction { return s }

// Groups is the router output: one graph for personal transactions and one
// per space.
type Groups struct {
	Personal CausalGraph
	Spaces   map[ids.SpaceID]CausalGraph
}

// Get returns the graph for space, or the personal graph when space is nil.
func (g Groups) Get(space *ids.SpaceID) (CausalGraph, bool) {
	if space == nil {
		return g.Personal, g.Personal != nil
	}
	graph, ok := g.Spaces[*space]
	return graph, ok
}

// SpaceIDs lists the routed spaces in id order.
func (g Groups) SpaceIDs() []ids.SpaceID {
	out := make([]ids.SpaceID, 0, len(g.Spaces))
	for id := range g.Spaces {
		out = append(out, id)
	}
	slices.SortFunc(out, func(a, b ids.SpaceID) int { return a.Compare(b.ObjectID) })
	return out
}

// Count is the number of transactions across every bucket.
func (g Groups) Count() int {
	n := 0
	if g.Personal != nil {
		n += g.Personal.Len()
	}
	for _, graph := range g.Spaces {
		n += graph.Len()
	}
	return n
}

// GroupOperationsBySpace buckets a batch by the clear space routing entry.
// A bad transaction is reported in the error list and never aborts the
// batch; every input lands in exactly one bucket or one error. The personal
// bucket is always present. build defaults to NewSequence.
func GroupOperationsBySpace(txs []*Transaction, build GraphBuilder) (Groups, []error) {
	if build == nil {
		build = NewSequence
	}
	var (
		personal []*Transaction
		spaces   = map[ids.SpaceID][]*Transaction{}
		errs     []error
	)

	for _, tx := range txs {
		if tx == nil {
			errs = append(errs, apperrors.New(apperrors.KindDeserialization, "nil transaction", nil))
			continue
		}
		space, err := route(tx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if space == nil {
			personal = append(personal, tx)
			continue
		}
		spaces[*space] = append(spaces[*space], tx)
	}

	groups := Groups{
		Personal: build(personal),
		Spaces:   make(map[ids.SpaceID]CausalGraph, len(spaces)),
	}
	for id, bucket := range spaces {
		groups.Spaces[id] = build(bucket)
	}
	return groups, errs
}

func route(tx *Transaction) (*ids.SpaceID, error) {
	// Non-extension bodies carry no type tag, so the variant is checked first.
	if tx.Variant != VariantExtV1 {
		return nil, apperrors.WrongTransactionVariant(string(tx.Variant)).WithTransaction(string(tx.ID))
	}
	if tx.Type != OperationType {
		return nil, apperrors.WrongTransactionType(tx.Type).WithTransaction(string(tx.ID))
	}
	space, err := tx.Space()
	if err != nil {
		var apiErr *apperrors.APIError
		if errors.As(err, &apiErr) {
			return nil, apiErr.WithTransaction(string(tx.ID))
		}
		return nil, err
	}
	return space, nil
}
