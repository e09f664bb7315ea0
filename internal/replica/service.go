// Package replica keeps a materialized State in sync with the transactions
// delivered to this device and serves it to the local API.
package replica

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"encrypted-notes/internal/domain"
	apperrors "encrypted-notes/internal/errors"
	"encrypted-notes/internal/ids"
	"encrypted-notes/internal/keys"
	"encrypted-notes/internal/metrics"
	"encrypted-notes/internal/operation"
	"encrypted-notes/internal/oplog"
	"encrypted-notes/internal/seal"
	"encrypted-notes/internal/state"
	"encrypted-notes/internal/transaction"
	"encrypted-notes/internal/utils"
	"encrypted-notes/internal/worker"
	"encrypted-notes/redis"

	"github.com/rs/zerolog"
)

const (
	versionKey = "replica:version"
	cacheTTL   = time.Hour
)

// IngestResult summarizes one batch. Errors holds one entry per rejected
// transaction, each tagged with its id.
type IngestResult struct {
	Received   int     `json:"received"`
	Duplicates int     `json:"duplicates"`
	Stored     int     `json:"stored"`
	Applied    int     `json:"applied"`
	Skipped    int     `json:"skipped"`
	Errors     []error `json:"-"`
}

type Service interface {
	Ingest(ctx context.Context, txs []*transaction.Transaction) (*IngestResult, error)
	Rebuild(ctx context.Context) (*IngestResult, error)
	PutSpaceKey(ctx context.Context, space ids.SpaceID, key seal.SecretKey) (*IngestResult, error)
	Checkpoint(ctx context.Context, space ids.SpaceID) ([]*operation.Encrypted, error)
	Spaces(ctx context.Context) []domain.Space
	Notes(ctx context.Context, space ids.SpaceID, page, pageSize int) (*utils.Paginated[domain.Note], error)
	Pages(ctx context.Context, space ids.SpaceID) ([]domain.Page, error)
	Files(ctx context.Context, space ids.SpaceID) ([]domain.File, error)
	Note(ctx context.Context, id ids.NoteID) (*domain.Note, error)
	Settings(ctx context.Context) domain.UserSettings
}

type Options struct {
	// Build orders each bucket. Defaults to delivery order.
	Build transaction.GraphBuilder
	// Filter, when set, skips operations by context before their action
	// is opened.
	Filter Filter
}

type DefaultService struct {
	// ingest serializes writers; seen is only touched under it.
	ingest sync.Mutex
	seen   map[transaction.ID]struct{}

	mu    sync.RWMutex
	state *state.State

	log      oplog.Repository
	keys     *keys.Ring
	pipeline pipeline
	metrics  *metrics.Metrics
	cache    *redis.Cache
	build    transaction.GraphBuilder
	logger   zerolog.Logger
}

func NewService(
	log oplog.Repository,
	ring *keys.Ring,
	pool *worker.WorkerPool,
	m *metrics.Metrics,
	cache *redis.Cache,
	logger zerolog.Logger,
	opts Options,
) *DefaultService {
	return &DefaultService{
		seen:  map[transaction.ID]struct{}{},
		state: state.New(),
		log:   log,
		keys:  ring,
		pipeline: pipeline{
			keys:    ring,
			pool:    pool,
			metrics: m,
			filter:  opts.Filter,
		},
		metrics: m,
		cache:   cache,
		build:   opts.Build,
		logger:  logger.With().Str("component", "replica").Logger(),
	}
}

// Ingest routes a delivered batch, stores the new transactions and folds
// them into the State. Transactions already seen are counted and dropped.
func (s *DefaultService) Ingest(ctx context.Context, txs []*transaction.Transaction) (*IngestResult, error) {
	defer s.metrics.ObserveIngest(time.Now())
	s.ingest.Lock()
	defer s.ingest.Unlock()

	res := &IngestResult{Received: len(txs)}
	fresh := make([]*transaction.Transaction, 0, len(txs))
	inBatch := map[transaction.ID]struct{}{}
	for _, tx := range txs {
		if tx != nil {
			_, known := s.seen[tx.ID]
			_, dup := inBatch[tx.ID]
			if known || dup {
				res.Duplicates++
				continue
			}
			inBatch[tx.ID] = struct{}{}
		}
		fresh = append(fresh, tx)
	}

	groups, errs := transaction.GroupOperationsBySpace(fresh, s.build)
	s.metrics.Route(groups.Count(), len(errs))
	res.Errors = errs

	entries := entriesOf(groups)
	stored, err := s.log.Append(ctx, entries)
	if err != nil {
		return nil, err
	}
	res.Stored = stored
	s.metrics.Appended.Add(float64(stored))
	for _, e := range entries {
		s.seen[e.Tx.ID] = struct{}{}
	}

	ops := s.decryptAll(ctx, groups)
	s.mu.Lock()
	s.foldInto(s.state, ops, res)
	s.mu.Unlock()

	if res.Applied > 0 {
		s.cache.IncrementVersion(ctx, versionKey)
	}
	s.logger.Debug().
		Int("received", res.Received).
		Int("stored", res.Stored).
		Int("applied", res.Applied).
		Int("errors", len(res.Errors)).
		Msg("batch ingested")
	return res, nil
}

// Rebuild replays the whole operation log into a fresh State and swaps it
// in. Readers keep seeing the old State until the swap.
func (s *DefaultService) Rebuild(ctx context.Context) (*IngestResult, error) {
	defer s.metrics.ObserveIngest(time.Now())
	s.ingest.Lock()
	defer s.ingest.Unlock()

	entries, err := s.log.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	txs := make([]*transaction.Transaction, len(entries))
	seen := make(map[transaction.ID]struct{}, len(entries))
	for i, e := range entries {
		txs[i] = e.Tx
		seen[e.Tx.ID] = struct{}{}
	}

	groups, errs := transaction.GroupOperationsBySpace(txs, s.build)
	res := &IngestResult{Received: len(txs), Errors: errs}

	fresh := state.New()
	s.foldInto(fresh, s.decryptAll(ctx, groups), res)

	s.mu.Lock()
	s.state = fresh
	s.mu.Unlock()
	s.seen = seen

	s.cache.IncrementVersion(ctx, versionKey)
	s.logger.Info().
		Int("transactions", res.Received).
		Int("applied", res.Applied).
		Int("errors", len(res.Errors)).
		Msg("state rebuilt from log")
	return res, nil
}

// PutSpaceKey registers a key and rebuilds, so operations that failed for
// lack of it are applied.
func (s *DefaultService) PutSpaceKey(ctx context.Context, space ids.SpaceID, key seal.SecretKey) (*IngestResult, error) {
	s.keys.Put(space, key)
	return s.Rebuild(ctx)
}

// Checkpoint seals the operations that rebuild the space from empty. They
// are handed to the transaction layer to replace the space's history.
func (s *DefaultService) Checkpoint(ctx context.Context, space ids.SpaceID) ([]*operation.Encrypted, error) {
	key, err := s.keys.For(&space)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	ops := s.state.Checkpoint(space)
	s.mu.RUnlock()
	if len(ops) == 0 {
		return nil, apperrors.NotFound("space not found")
	}

	out := make([]*operation.Encrypted, 0, len(ops))
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		enc, err := op.Encrypt(key)
		if err != nil {
			return nil, err
		}
		out = append(out, enc)
	}
	return out, nil
}

func entriesOf(groups transaction.Groups) []oplog.Entry {
	entries := make([]oplog.Entry, 0, groups.Count())
	if groups.Personal != nil {
		for _, tx := range groups.Personal.Transactions() {
			entries = append(entries, oplog.Entry{Tx: tx})
		}
	}
	for _, id := range groups.SpaceIDs() {
		space := id
		for _, tx := range groups.Spaces[id].Transactions() {
			entries = append(entries, oplog.Entry{Space: &space, Tx: tx})
		}
	}
	return entries
}

// decryptAll opens every bucket, personal first then spaces in id order.
func (s *DefaultService) decryptAll(ctx context.Context, groups transaction.Groups) []decoded {
	var out []decoded
	if groups.Personal != nil {
		out = append(out, s.pipeline.decrypt(ctx, nil, groups.Personal)...)
	}
	for _, id := range groups.SpaceIDs() {
		space := id
		out = append(out, s.pipeline.decrypt(ctx, &space, groups.Spaces[id])...)
	}
	return out
}

func (s *DefaultService) foldInto(st *state.State, ops []decoded, res *IngestResult) {
	applied, skipped, errs := fold(st, ops)
	s.metrics.Fold(applied, len(errs))
	res.Applied += applied
	res.Skipped += skipped
	res.Errors = append(res.Errors, errs...)
	for _, err := range errs {
		s.logger.Warn().Err(err).Stringer("kind", apperrors.KindOf(err)).Msg("operation rejected")
	}
}

func sortByID[T any, K interface{ Object() ids.ObjectID }](items []T, id func(T) K) []T {
	slices.SortFunc(items, func(a, b T) int {
		return id(a).Object().Compare(id(b).Object())
	})
	return items
}

func (s *DefaultService) Spaces(ctx context.Context) []domain.Space {
	s.mu.RLock()
	spaces := s.state.Spaces()
	s.mu.RUnlock()

	out := make([]domain.Space, 0, len(spaces))
	for _, sp := range spaces {
		out = append(out, sp)
	}
	return sortByID(out, func(sp domain.Space) ids.SpaceID { return sp.ID })
}

// inSpace collects the values of m that belong to space. It fails with
// NotFound when the space is unknown and holds nothing.
func inSpace[K comparable, V any](st *state.State, space ids.SpaceID, m map[K]V, spaceOf func(V) ids.SpaceID) ([]V, error) {
	var out []V
	for _, v := range m {
		if spaceOf(v) == space {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		if _, ok := st.Space(space); !ok {
			return nil, apperrors.NotFound("space not found")
		}
		out = []V{}
	}
	return out, nil
}

func (s *DefaultService) Notes(ctx context.Context, space ids.SpaceID, page, pageSize int) (*utils.Paginated[domain.Note], error) {
	v := s.cache.GetVersion(ctx, versionKey)
	cacheKey := fmt.Sprintf("notes:s:%s:v:%d:p:%d:ps:%d", space, v, page, pageSize)

	var result utils.Paginated[domain.Note]
	// get data from cache
	if found, _ := s.cache.Get(ctx, cacheKey, &result); found {
		return &result, nil
	}

	s.mu.RLock()
	notes, err := inSpace(s.state, space, s.state.Notes(), func(n domain.Note) ids.SpaceID { return n.SpaceID })
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	result = utils.Paginate(sortByID(notes, func(n domain.Note) ids.NoteID { return n.ID }), page, pageSize)
	s.cache.Set(ctx, cacheKey, result, cacheTTL)
	return &result, nil
}

func (s *DefaultService) Pages(ctx context.Context, space ids.SpaceID) ([]domain.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pages, err := inSpace(s.state, space, s.state.Pages(), func(p domain.Page) ids.SpaceID { return p.SpaceID })
	if err != nil {
		return nil, err
	}
	return sortByID(pages, func(p domain.Page) ids.PageID { return p.ID }), nil
}

func (s *DefaultService) Files(ctx context.Context, space ids.SpaceID) ([]domain.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	files, err := inSpace(s.state, space, s.state.Files(), func(f domain.File) ids.SpaceID { return f.SpaceID })
	if err != nil {
		return nil, err
	}
	return sortByID(files, func(f domain.File) ids.FileID { return f.ID }), nil
}

func (s *DefaultService) Note(ctx context.Context, id ids.NoteID) (*domain.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.state.Note(id)
	if !ok {
		return nil, apperrors.NotFound("note not found")
	}
	return &n, nil
}

func (s *DefaultService) Settings(ctx context.Context) domain.UserSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.UserSettings()
}

var _ Service = (*DefaultService)(nil)
