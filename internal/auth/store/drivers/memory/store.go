// Package memory is an in-process store driver for tests and local
// development. Data does not survive a restart.
package memory

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/bonechkabonechka/tgauth/internal/auth/domain"
	"github.com/bonechkabonechka/tgauth/internal/auth/store"
)

var errNestedTx = errors.New("memory: nested transactions are not supported")

type state struct {
	mu       sync.Mutex
	profiles map[string]domain.Profile // keyed by id
	byTG     map[int64]string
	sessions map[string]domain.PairingSession
}

type Store struct {
	st *state
}

func New() *Store {
	return &Store{st: &state{
		profiles: make(map[string]domain.Profile),
		byTG:     make(map[int64]string),
		sessions: make(map[string]domain.PairingSession),
	}}
}

func (s *Store) Profiles() store.Profiles               { return profilesRepo{s.st} }
func (s *Store) PairingSessions() store.PairingSessions { return pairingRepo{s.st} }
func (s *Store) ApplyMigrations() error                 { return nil }
func (s *Store) Close() error                           { return nil }
func (s *Store) Ping(context.Context) error             { return nil }

// Tx returns a view over the same data. Every repository call is atomic on
// its own, but writes are applied immediately and Rollback does not undo them.
func (s *Store) Tx(context.Context) (store.Tx, error) {
	return &txStore{Store: s}, nil
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, _ := s.Tx(ctx)
	return fn(tx)
}

type txStore struct {
	*Store
}

func (t *txStore) Commit() error   { return nil }
func (t *txStore) Rollback() error { return nil }

func (t *txStore) Tx(context.Context) (store.Tx, error) { return nil, errNestedTx }

func (t *txStore) WithTx(context.Context, func(tx store.Tx) error) error { return errNestedTx }

type profilesRepo struct{ st *state }

func (r profilesRepo) UpsertProfile(_ context.Context, id string, identity domain.Identity, roles []string, now time.Time) (domain.Profile, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	if existing, ok := r.st.byTG[identity.TelegramID]; ok {
		p := r.st.profiles[existing]
		p.FirstName = identity.FirstName
		p.LastName = identity.LastName
		p.Username = identity.Username
		p.PhotoURL = identity.PhotoURL
		p.UpdatedAt = now.UTC()
		r.st.profiles[existing] = p
		return cloneProfile(p), nil
	}

	if _, ok := r.st.profiles[id]; ok {
		return domain.Profile{}, store.ErrAlreadyExists
	}
	p := domain.Profile{
		ID:         id,
		TelegramID: identity.TelegramID,
		FirstName:  identity.FirstName,
		LastName:   identity.LastName,
		Username:   identity.Username,
		PhotoURL:   identity.PhotoURL,
		Roles:      slices.Clone(roles),
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}
	r.st.profiles[id] = p
	r.st.byTG[identity.TelegramID] = id
	return cloneProfile(p), nil
}

func (r profilesRepo) GetProfileByID(_ context.Context, id string) (domain.Profile, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	p, ok := r.st.profiles[id]
	if !ok {
		return domain.Profile{}, store.ErrNotFound
	}
	return cloneProfile(p), nil
}

func (r profilesRepo) GetProfileByTelegramID(_ context.Context, telegramID int64) (domain.Profile, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	id, ok := r.st.byTG[telegramID]
	if !ok {
		return domain.Profile{}, store.ErrNotFound
	}
	return cloneProfile(r.st.profiles[id]), nil
}

func cloneProfile(p domain.Profile) domain.Profile {
	p.Roles = slices.Clone(p.Roles)
	return p
}

type pairingRepo struct{ st *state }

func (r pairingRepo) CreatePairingSession(_ context.Context, s domain.PairingSession) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	if _, ok := r.st.sessions[s.Token]; ok {
		return store.ErrAlreadyExists
	}
	if s.State == "" {
		s.State = domain.PairingPending
	}
	s.SubjectID = ""
	s.Credentials = nil
	s.CompletedAt = nil
	s.ConsumedAt = nil
	r.st.sessions[s.Token] = s
	return nil
}

func (r pairingRepo) GetPairingSession(_ context.Context, token string) (domain.PairingSession, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	s, ok := r.st.sessions[token]
	if !ok {
		return domain.PairingSession{}, store.ErrNotFound
	}
	return cloneSession(s), nil
}

func (r pairingRepo) CompletePairingSession(_ context.Context, token, subjectID string, creds domain.CredentialPair, now time.Time) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	s, ok := r.st.sessions[token]
	switch {
	case !ok:
		return store.ErrNotFound
	case s.State != domain.PairingPending:
		return store.ErrAlreadyCompleted
	case now.After(s.ExpiresAt):
		return store.ErrExpired
	}

	completed := now.UTC()
	s.State = domain.PairingCompleted
	s.SubjectID = subjectID
	s.Credentials = &creds
	s.CompletedAt = &completed
	r.st.sessions[token] = s
	return nil
}

func (r pairingRepo) MarkPairingSessionConsumed(_ context.Context, token string, now time.Time) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	s, ok := r.st.sessions[token]
	if !ok || s.ConsumedAt != nil {
		return nil
	}
	consumed := now.UTC()
	s.ConsumedAt = &consumed
	r.st.sessions[token] = s
	return nil
}

func (r pairingRepo) DeletePairingSessionsExpiredBefore(_ context.Context, before time.Time) (int64, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	var n int64
	for token, s := range r.st.sessions {
		if s.ExpiresAt.Before(before) {
			delete(r.st.sessions, token)
			n++
		}
	}
	return n, nil
}

func cloneSession(s domain.PairingSession) domain.PairingSession {
	if s.Credentials != nil {
		c := *s.Credentials
		s.Credentials = &c
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		s.CompletedAt = &t
	}
	if s.ConsumedAt != nil {
		t := *s.ConsumedAt
		s.ConsumedAt = &t
	}
	return s
}

var _ store.Store = (*Store)(nil)
