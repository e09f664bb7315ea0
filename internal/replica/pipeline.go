package replica

import (
	"context"
	"errors"
	"sync"

	apperrors "encrypted-notes/internal/errors"
	"encrypted-notes/internal/ids"
	"encrypted-notes/internal/keys"
	"encrypted-notes/internal/metrics"
	"encrypted-notes/internal/operation"
	"encrypted-notes/internal/seal"
	"encrypted-notes/internal/state"
	"encrypted-notes/internal/transaction"
	"encrypted-notes/internal/worker"
)

// Filter decides from the context alone whether an operation is worth
// opening. Rejected operations are skipped, not reported.
type Filter func(operation.Context) bool

type decoded struct {
	tx      *transaction.Transaction
	op      operation.Operation
	err     error
	skipped bool
}

type pipeline struct {
	keys    *keys.Ring
	pool    *worker.WorkerPool
	metrics *metrics.Metrics
	filter  Filter
}

// tag attaches the transaction id to err.
func tag(err error, id transaction.ID) error {
	var apiErr *apperrors.APIError
	if !errors.As(err, &apiErr) {
		apiErr = apperrors.Internal(err)
	}
	return apiErr.WithTransaction(string(id))
}

// decrypt opens every operation of one bucket on the worker pool. The
// result keeps the bucket's causal order.
func (p *pipeline) decrypt(ctx context.Context, space *ids.SpaceID, graph transaction.CausalGraph) []decoded {
	txs := graph.Transactions()
	out := make([]decoded, len(txs))

	key, err := p.keys.For(space)
	if err != nil {
		for i, tx := range txs {
			out[i] = decoded{tx: tx, err: tag(err, tx.ID)}
		}
		return out
	}

	var wg sync.WaitGroup
	for i, tx := range txs {
		wg.Add(1)
		p.pool.Go(ctx, func(context.Context) error {
			defer wg.Done()
			out[i] = p.open(ctx, key, space, tx)
			p.metrics.Decrypt(out[i].err == nil)
			return out[i].err
		})
	}
	wg.Wait()
	return out
}

func (p *pipeline) open(ctx context.Context, key seal.SecretKey, space *ids.SpaceID, tx *transaction.Transaction) decoded {
	d := decoded{tx: tx}
	if err := ctx.Err(); err != nil {
		d.err = tag(err, tx.ID)
		return d
	}

	enc, err := tx.Operation()
	if err != nil {
		d.err = tag(err, tx.ID)
		return d
	}
	if !sameSpace(enc.Space, space) {
		d.err = tag(apperrors.InvalidOperation("payload space does not match routing space"), tx.ID)
		return d
	}

	if p.filter != nil {
		opCtx, err := enc.FullContext(key)
		if err != nil {
			d.err = tag(err, tx.ID)
			return d
		}
		if !p.filter(opCtx) {
			d.skipped = true
			return d
		}
	}

	d.op, d.err = operation.Decrypt(key, enc)
	if d.err != nil {
		d.err = tag(d.err, tx.ID)
	}
	return d
}

func sameSpace(a, b *ids.SpaceID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// fold applies decoded operations in order on the calling goroutine. A
// failed operation leaves the State untouched and folding continues with
// the next one.
func fold(st *state.State, ops []decoded) (applied, skipped int, errs []error) {
	for _, d := range ops {
		switch {
		case d.err != nil:
			errs = append(errs, d.err)
		case d.skipped:
			skipped++
		default:
			if err := st.ApplyOperation(d.op); err != nil {
				errs = append(errs, tag(err, d.tx.ID))
				continue
			}
			applied++
		}
	}
	return applied, skipped, errs
}
