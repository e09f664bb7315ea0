package oplog

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"

	"encrypted-notes/internal/codec"
	apperrors "encrypted-notes/internal/errors"
	"encrypted-notes/internal/ids"
	"encrypted-notes/internal/transaction"

	"github.com/cockroachdb/pebble"
)

// Key layout:
//
//	'l' seq          -> record
//	't' txid         -> seq
//	'b' bucket 0 seq -> empty
const (
	logPrefix    = 'l'
	txPrefix     = 't'
	bucketPrefix = 'b'
)

type record struct {
	Space *ids.SpaceID `cbor:"0,keyasint,omitempty"`
	Tx    []byte       `cbor:"1,keyasint"`
}

type PebbleRepository struct {
	db *pebble.DB

	mu  sync.Mutex
	seq uint64
}

// OpenPebble opens (or creates) the log at dir. Pass a vfs in opts.FS to
// keep it in memory.
func OpenPebble(dir string, opts *pebble.Options) (*PebbleRepository, error) {
	if opts == nil {
		opts = &pebble.Options{}
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	r := &PebbleRepository{db: db}
	if err := r.loadSeq(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *PebbleRepository) loadSeq() error {
	iter, err := r.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte{logPrefix},
		UpperBound: []byte{logPrefix + 1},
	})
	if err != nil {
		return apperrors.Internal(err)
	}
	defer iter.Close()
	if iter.Last() {
		r.seq = binary.BigEndian.Uint64(iter.Key()[1:])
	}
	return nil
}

func logKey(seq uint64) []byte {
	key := make([]byte, 9)
	key[0] = logPrefix
	binary.BigEndian.PutUint64(key[1:], seq)
	return key
}

func txKey(id transaction.ID) []byte {
	return append([]byte{txPrefix}, string(id)...)
}

func bucketKey(bucket string, seq uint64) []byte {
	key := append([]byte{bucketPrefix}, bucket...)
	key = append(key, 0)
	return binary.BigEndian.AppendUint64(key, seq)
}

func (r *PebbleRepository) known(id transaction.ID) (bool, error) {
	_, closer, err := r.db.Get(txKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.Internal(err)
	}
	closer.Close()
	return true, nil
}

func (r *PebbleRepository) Append(ctx context.Context, entries []Entry) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	batch := r.db.NewBatch()
	defer batch.Close()

	seq := r.seq
	seen := map[transaction.ID]struct{}{}
	for _, e := range entries {
		if _, dup := seen[e.Tx.ID]; dup {
			continue
		}
		seen[e.Tx.ID] = struct{}{}
		known, err := r.known(e.Tx.ID)
		if err != nil {
			return 0, err
		}
		if known {
			continue
		}

		body, err := transaction.Marshal(e.Tx)
		if err != nil {
			return 0, err
		}
		value, err := codec.Marshal(record{Space: e.Space, Tx: body})
		if err != nil {
			return 0, apperrors.Serialization(err)
		}

		seq++
		batch.Set(logKey(seq), value, nil)
		batch.Set(txKey(e.Tx.ID), logKey(seq)[1:], nil)
		batch.Set(bucketKey(e.Bucket(), seq), nil, nil)
	}

	added := int(seq - r.seq)
	if added == 0 {
		return 0, nil
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return 0, apperrors.Internal(err)
	}
	r.seq = seq
	return added, nil
}

func (r *PebbleRepository) get(seq uint64) (record, error) {
	value, closer, err := r.db.Get(logKey(seq))
	if err != nil {
		return record{}, apperrors.Internal(err)
	}
	defer closer.Close()

	var rec record
	if err := codec.Unmarshal(value, &rec); err != nil {
		return record{}, apperrors.Deserialization(err)
	}
	return rec, nil
}

func (r *PebbleRepository) List(ctx context.Context, space *ids.SpaceID) ([]*transaction.Transaction, error) {
	prefix := bucketKey(bucketOf(space), 0)
	prefix = prefix[:len(prefix)-8]
	upper := append([]byte(nil), prefix...)
	upper[len(upper)-1]++

	iter, err := r.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: upper})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	defer iter.Close()

	var txs []*transaction.Transaction
	for valid := iter.First(); valid; valid = iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seq := binary.BigEndian.Uint64(iter.Key()[len(prefix):])
		rec, err := r.get(seq)
		if err != nil {
			return nil, err
		}
		tx, err := transaction.Unmarshal(rec.Tx)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, iter.Error()
}

func (r *PebbleRepository) ListAll(ctx context.Context) ([]Entry, error) {
	iter, err := r.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte{logPrefix},
		UpperBound: []byte{logPrefix + 1},
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	defer iter.Close()

	var entries []Entry
	for valid := iter.First(); valid; valid = iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var rec record
		if err := codec.Unmarshal(iter.Value(), &rec); err != nil {
			return nil, apperrors.Deserialization(err)
		}
		tx, err := transaction.Unmarshal(rec.Tx)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Space: rec.Space, Tx: tx})
	}
	return entries, iter.Error()
}

func (r *PebbleRepository) Close() error {
	return r.db.Close()
}
