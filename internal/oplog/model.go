// Package oplog persists received transactions so the materialized State
// can be rebuilt at start.
package oplog

import (
	"context"
	"time"

	"encrypted-notes/internal/ids"
	"encrypted-notes/internal/transaction"
)

// PersonalBucket names the bucket of transactions without a space.
const PersonalBucket = "personal"

// Entry is one routed transaction.
type Entry struct {
	Space *ids.SpaceID
	Tx    *transaction.Transaction
}

func (e Entry) Bucket() string {
	return bucketOf(e.Space)
}

func bucketOf(space *ids.SpaceID) string {
	if space == nil {
		return PersonalBucket
	}
	return space.String()
}

// Repository is an append-only, deduplicated transaction log. Entries are
// listed in arrival order.
type Repository interface {
	// Append stores entries whose transaction id is not yet known and
	// returns how many were new.
	Append(ctx context.Context, entries []Entry) (int, error)
	List(ctx context.Context, space *ids.SpaceID) ([]*transaction.Transaction, error)
	ListAll(ctx context.Context) ([]Entry, error)
	Close() error
}

// LogRecord is the relational row of one Entry.
type LogRecord struct {
	Seq           uint64 `gorm:"primaryKey;autoIncrement"`
	TransactionID string `gorm:"size:128;not null;uniqueIndex"`
	Bucket        string `gorm:"size:32;not null;index"`
	Body          []byte `gorm:"not null"`
	CreatedAt     time.Time
}

func (LogRecord) TableName() string {
	return "transaction_log"
}

var (
	_ Repository = (*PebbleRepository)(nil)
	_ Repository = (*GormRepository)(nil)
)
