package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/bonechkabonechka/tgauth/internal/auth/store"
	"github.com/bonechkabonechka/tgauth/internal/auth/store/sqlstore"
	_ "modernc.org/sqlite"
)

var dialect = sqlstore.Dialect{
	Name: "sqlite",
	IsUniqueViolation: func(err error) bool {
		return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
	},
}

type Store struct {
	*sqlstore.Base
	dsn string
}

// pragmas are applied by the driver to every pooled connection.
var pragmas = []string{"foreign_keys(1)", "busy_timeout(5000)"}

// NewStore opens the database at dsn, a file path or ":memory:".
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, err
	}

	// Every connection to :memory: is a fresh database.
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		Base: sqlstore.NewBase(db, dialect),
		dsn:  dsn,
	}, nil
}

func withPragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	var b strings.Builder
	b.WriteString(dsn)
	for _, p := range pragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

var _ store.Store = (*Store)(nil)
