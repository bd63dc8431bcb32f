package postgres

import (
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"

	"github.com/bonechkabonechka/tgauth/internal/auth/store/drivers/postgres/migrations"
	"github.com/bonechkabonechka/tgauth/internal/auth/store/sqlstore"
)

// ApplyMigrations brings the schema up to date using the embedded files.
func (s *Store) ApplyMigrations() error {
	driver, err := pgxmigrate.WithInstance(s.DB(), &pgxmigrate.Config{})
	if err != nil {
		return err
	}
	return sqlstore.Migrate(migrations.Migrations, "pgx", driver)
}
