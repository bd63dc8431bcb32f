package sqlstore

import (
	"context"
	"database/sql"

	"github.com/bonechkabonechka/tgauth/internal/auth/store"
)

type txStore struct {
	tx      *sql.Tx
	dialect Dialect
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// Close is a no-op; the caller commits or rolls back and the pool stays open.
func (t *txStore) Close() error { return nil }

// Ping is a no-op, the transaction already holds a connection.
func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) Profiles() store.Profiles {
	return &profilesRepo{q: t.tx, d: t.dialect}
}

func (t *txStore) PairingSessions() store.PairingSessions {
	return &pairingRepo{q: t.tx, d: t.dialect}
}

func (t *txStore) ApplyMigrations() error { return nil } // migrations run before any tx
