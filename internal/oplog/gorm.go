package oplog

import (
	"context"

	apperrors "encrypted-notes/internal/errors"
	"encrypted-notes/internal/ids"
	"encrypted-notes/internal/transaction"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Append(ctx context.Context, entries []Entry) (int, error) {
	records := make([]LogRecord, 0, len(entries))
	seen := map[transaction.ID]struct{}{}
	for _, e := range entries {
		if _, dup := seen[e.Tx.ID]; dup {
			continue
		}
		seen[e.Tx.ID] = struct{}{}
		body, err := transaction.Marshal(e.Tx)
		if err != nil {
			return 0, err
		}
		records = append(records, LogRecord{
			TransactionID: string(e.Tx.ID),
			Bucket:        e.Bucket(),
			Body:          body,
		})
	}
	if len(records) == 0 {
		return 0, nil
	}

	res := insertRecords(r.db.WithContext(ctx), &records)
	if res.Error != nil {
		return 0, apperrors.Internal(res.Error)
	}
	return int(res.RowsAffected), nil
}

// insertRecords skips rows whose transaction id is already stored.
func insertRecords(tx *gorm.DB, records *[]LogRecord) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "transaction_id"}},
		DoNothing: true,
	}).Create(records)
}

func listBucket(tx *gorm.DB, bucket string, records *[]LogRecord) *gorm.DB {
	return tx.Where("bucket = ?", bucket).Order("seq ASC").Find(records)
}

func (r *GormRepository) List(ctx context.Context, space *ids.SpaceID) ([]*transaction.Transaction, error) {
	var records []LogRecord
	if err := listBucket(r.db.WithContext(ctx), bucketOf(space), &records).Error; err != nil {
		return nil, apperrors.Internal(err)
	}

	txs := make([]*transaction.Transaction, 0, len(records))
	for _, rec := range records {
		tx, err := transaction.Unmarshal(rec.Body)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (r *GormRepository) ListAll(ctx context.Context) ([]Entry, error) {
	var records []LogRecord
	if err := r.db.WithContext(ctx).Order("seq ASC").Find(&records).Error; err != nil {
		return nil, apperrors.Internal(err)
	}

	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		tx, err := transaction.Unmarshal(rec.Body)
		if err != nil {
			return nil, err
		}
		var space *ids.SpaceID
		if rec.Bucket != PersonalBucket {
			id, err := ids.ParseSpaceID(rec.Bucket)
			if err != nil {
				return nil, apperrors.Deserialization(err)
			}
			space = &id
		}
		entries = append(entries, Entry{Space: space, Tx: tx})
	}
	return entries, nil
}

// Close is a no-op; the connection pool belongs to the caller.
func (r *GormRepository) Close() error {
	return nil
}
