package auth

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v3"
)

// RevocationStore remembers signed-out token ids until they expire.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	Close() error
}

const revokedPrefix = "revoked/"

// BadgerRevocations keeps revoked token ids in Badger with a TTL matching the
// token's expiry, so entries disappear on their own. The store is local to
// one process: a sign-out is only seen by the API instance that handled it,
// and other instances keep accepting the token until it expires.
type BadgerRevocations struct {
	db  *badger.DB
	now func() time.Time
}

// OpenBadgerRevocations opens the store in dir, or in memory when dir is empty.
func OpenBadgerRevocations(dir string) (*BadgerRevocations, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerRevocations{db: db, now: time.Now}, nil
}

// Revoke marks tokenID revoked until the given time. Past times are ignored
// since such tokens already fail verification.
func (b *BadgerRevocations) Revoke(_ context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(b.now())
	if ttl <= 0 {
		return nil
	}
	return b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(revokedPrefix+tokenID), []byte{1}).WithTTL(ttl)
		return txn.SetEntry(e)
	})
}

// IsRevoked reports whether tokenID has been revoked and not yet expired.
func (b *BadgerRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(revokedPrefix + tokenID))
		return err
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Close releases the underlying database.
func (b *BadgerRevocations) Close() error {
	return b.db.Close()
}
