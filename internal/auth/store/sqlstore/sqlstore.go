// Package sqlstore holds the database/sql repositories shared by the sqlite
// and postgres drivers. Queries are written with "?" placeholders and
// rebound per dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/bonechkabonechka/tgauth/internal/auth/store"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect captures the differences between drivers.
type Dialect struct {
	Name string

	// Numbered switches "?" placeholders to "$1", "$2", ...
	Numbered bool

	// IsUniqueViolation reports whether err is a unique constraint failure.
	IsUniqueViolation func(err error) bool
}

func (d Dialect) rebind(q string) string {
	if !d.Numbered {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) uniqueViolation(err error) bool {
	return d.IsUniqueViolation != nil && d.IsUniqueViolation(err)
}

// Base implements everything in store.Store except ApplyMigrations, which
// each driver supplies.
type Base struct {
	db      *sql.DB
	dialect Dialect
}

func NewBase(db *sql.DB, d Dialect) *Base {
	return &Base{db: db, dialect: d}
}

// DB exposes the pool for migrations.
func (b *Base) DB() *sql.DB { return b.db }

func (b *Base) Close() error { return b.db.Close() }

// Ping verifies the database connection is still alive.
func (b *Base) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func (b *Base) Profiles() store.Profiles {
	return &profilesRepo{q: b.db, d: b.dialect}
}

func (b *Base) PairingSessions() store.PairingSessions {
	return &pairingRepo{q: b.db, d: b.dialect}
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (b *Base) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &txStore{tx: tx, dialect: b.dialect}, nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (b *Base) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := b.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func nullMillis(ms sql.NullInt64) *time.Time {
	if !ms.Valid {
		return nil
	}
	t := fromMillis(ms.Int64)
	return &t
}

func joinRoles(roles []string) string { return strings.Join(roles, " ") }

func splitRoles(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}
