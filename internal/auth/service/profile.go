package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/bonechkabonechka/tgauth/internal/auth/domain"
	"github.com/bonechkabonechka/tgauth/internal/auth/store"
	"github.com/bonechkabonechka/tgauth/pkg/idx"
)

// ProfileService resolves platform identities to local profiles.
type ProfileService struct {
	Store        store.Store
	DefaultRoles []string
	Now          func() time.Time
}

func (s *ProfileService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *ProfileService) defaultRoles() []string {
	if len(s.DefaultRoles) == 0 {
		return slices.Clone(domain.DefaultRoles)
	}
	return slices.Clone(s.DefaultRoles)
}

// FindOrCreate upserts the profile for identity.
func (s *ProfileService) FindOrCreate(ctx context.Context, identity domain.Identity) (domain.Profile, error) {
	return s.findOrCreateIn(ctx, s.Store.Profiles(), identity)
}

// findOrCreateIn runs the upsert against repo, which may be tx scoped.
func (s *ProfileService) findOrCreateIn(ctx context.Context, repo store.Profiles, identity domain.Identity) (domain.Profile, error) {
	if !identity.Validate() {
		return domain.Profile{}, ErrInvalidIdentity
	}
	p, err := repo.UpsertProfile(ctx, idx.New().String(), identity, s.defaultRoles(), s.now())
	if err != nil {
		return domain.Profile{}, upstream("upsert profile", err)
	}
	return p, nil
}

// GetByID returns the profile with the local id, or ErrProfileNotFound. An
// id that is not a ULID cannot exist and never reaches the store.
func (s *ProfileService) GetByID(ctx context.Context, id string) (domain.Profile, error) {
	pid, err := idx.Parse(id)
	if err != nil {
		return domain.Profile{}, ErrProfileNotFound
	}
	p, err := s.Store.Profiles().GetProfileByID(ctx, pid.String())
	if errors.Is(err, store.ErrNotFound) {
		return domain.Profile{}, ErrProfileNotFound
	}
	if err != nil {
		return domain.Profile{}, upstream("get profile", err)
	}
	return p, nil
}

// issue resolves identity and mints a pair for the resulting profile.
// Both sign-in paths end here.
func issue(ctx context.Context, profiles *ProfileService, repo store.Profiles, issuer *CredentialIssuer, identity domain.Identity) (domain.Profile, domain.CredentialPair, error) {
	p, err := profiles.findOrCreateIn(ctx, repo, identity)
	if err != nil {
		return domain.Profile{}, domain.CredentialPair{}, err
	}
	pair, err := issuer.Mint(Subject{ID: p.ID, TelegramID: p.TelegramID, Roles: p.Roles})
	if err != nil {
		return domain.Profile{}, domain.CredentialPair{}, upstream("mint credentials", err)
	}
	return p, pair, nil
}
