package sqlstore

import (
	"context"
	"time"

	"github.com/bonechkabonechka/tgauth/internal/auth/domain"
	"github.com/bonechkabonechka/tgauth/internal/auth/store"
)

const profileColumns = `id, tg_id, first_name, last_name, username, photo_url, roles, created_at, updated_at`

const upsertProfile = `
INSERT INTO profiles (` + profileColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (tg_id) DO UPDATE SET
	first_name = excluded.first_name,
	last_name  = excluded.last_name,
	username   = excluded.username,
	photo_url  = excluded.photo_url,
	updated_at = excluded.updated_at
RETURNING ` + profileColumns

const getProfileByID = `SELECT ` + profileColumns + ` FROM profiles WHERE id = ?`

const getProfileByTelegramID = `SELECT ` + profileColumns + ` FROM profiles WHERE tg_id = ?`

type profilesRepo struct {
	q DBTX
	d Dialect
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (domain.Profile, error) {
	var (
		p                domain.Profile
		roles            string
		created, updated int64
	)
	if err := row.Scan(&p.ID, &p.TelegramID, &p.FirstName, &p.LastName, &p.Username, &p.PhotoURL, &roles, &created, &updated); err != nil {
		return domain.Profile{}, err
	}
	p.Roles = splitRoles(roles)
	p.CreatedAt = fromMillis(created)
	p.UpdatedAt = fromMillis(updated)
	return p, nil
}

func (r *profilesRepo) UpsertProfile(
	ctx context.Context,
	id string,
	identity domain.Identity,
	roles []string,
	now time.Time,
) (domain.Profile, error) {
	ms := toMillis(now)
	row := r.q.QueryRowContext(ctx, r.d.rebind(upsertProfile),
		id,
		identity.TelegramID,
		identity.FirstName,
		identity.LastName,
		identity.Username,
		identity.PhotoURL,
		joinRoles(roles),
		ms,
		ms,
	)
	return scanProfile(row)
}

func (r *profilesRepo) GetProfileByID(ctx context.Context, id string) (domain.Profile, error) {
	p, err := scanProfile(r.q.QueryRowContext(ctx, r.d.rebind(getProfileByID), id))
	if err != nil {
		return domain.Profile{}, mapNotFound(err)
	}
	return p, nil
}

func (r *profilesRepo) GetProfileByTelegramID(ctx context.Context, telegramID int64) (domain.Profile, error) {
	p, err := scanProfile(r.q.QueryRowContext(ctx, r.d.rebind(getProfileByTelegramID), telegramID))
	if err != nil {
		return domain.Profile{}, mapNotFound(err)
	}
	return p, nil
}

var _ store.Profiles = (*profilesRepo)(nil)
