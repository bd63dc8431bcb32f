package sqlite

import (
	"github.com/golang-migrate/migrate/v4/database/sqlite"

	"github.com/bonechkabonechka/tgauth/internal/auth/store/drivers/sqlite/migrations"
	"github.com/bonechkabonechka/tgauth/internal/auth/store/sqlstore"
)

// ApplyMigrations runs the embedded migrations against the store's database.
func (s *Store) ApplyMigrations() error {
	driver, err := sqlite.WithInstance(s.DB(), &sqlite.Config{})
	if err != nil {
		return err
	}
	return sqlstore.Migrate(migrations.Migrations, "sqlite", driver)
}
