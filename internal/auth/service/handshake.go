package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/bonechkabonechka/tgauth/internal/auth/domain"
	"github.com/bonechkabonechka/tgauth/internal/auth/metrics"
	"github.com/bonechkabonechka/tgauth/internal/auth/store"
	"github.com/bonechkabonechka/tgauth/pkg/cryptox"
	"github.com/bonechkabonechka/tgauth/pkg/slogx"
)

// StartParamPrefix precedes the pairing token in the bot deep link.
const StartParamPrefix = "auth_"

// CallbackPath is where the continuation URL points.
const CallbackPath = "/v1/auth/callback"

const maxBeginAttempts = 3

// PollStatus is what a poll reports to the browser.
type PollStatus string

const (
	PollPending   PollStatus = "pending"
	PollCompleted PollStatus = "completed"
	PollExpired   PollStatus = "expired"
	PollNotFound  PollStatus = "not_found"
)

// Handshake is returned by Begin.
type Handshake struct {
	Token             string
	ExternalActionURL string
	ExpiresAt         time.Time
}

// CompleteResult is returned to the bot after a successful completion.
type CompleteResult struct {
	Profile         domain.Profile
	ContinuationURL string
}

type PollResult struct {
	Status      PollStatus
	Credentials *domain.CredentialPair
	ExpiresAt   time.Time
}

// HandshakeService drives the remote pairing flow: the browser begins, the
// bot completes, the browser polls.
type HandshakeService struct {
	Store    store.Store
	Issuer   *CredentialIssuer
	Profiles *ProfileService
	Metrics  *metrics.Metrics

	BotUsername string
	PublicURL   string
	TTL         time.Duration
	Now         func() time.Time
}

func (s *HandshakeService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *HandshakeService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return domain.DefaultPairingTTL
}

// DeepLink is the bot URL carrying token as its start parameter.
func (s *HandshakeService) DeepLink(token string) string {
	return "https://t.me/" + url.PathEscape(strings.TrimPrefix(s.BotUsername, "@")) +
		"?start=" + StartParamPrefix + token
}

// ContinuationURL is where the bot sends the user once pairing succeeded.
func (s *HandshakeService) ContinuationURL(token string) string {
	return strings.TrimRight(s.PublicURL, "/") + CallbackPath + "?token=" + url.QueryEscape(token)
}

// Begin creates a pending pairing session.
func (s *HandshakeService) Begin(ctx context.Context) (Handshake, error) {
	l := slogx.FromContext(ctx)

	for attempt := 1; attempt <= maxBeginAttempts; attempt++ {
		token, err := cryptox.GenerateToken(cryptox.TokenSize128)
		if err != nil {
			return Handshake{}, upstream("generate token", err)
		}

		now := s.now()
		session := domain.PairingSession{
			Token:     token,
			State:     domain.PairingPending,
			CreatedAt: now,
			ExpiresAt: now.Add(s.ttl()),
		}

		err = s.Store.PairingSessions().CreatePairingSession(ctx, session)
		if errors.Is(err, store.ErrAlreadyExists) {
			l.Warn("pairing token collision, retrying", slog.Int("attempt", attempt))
			continue
		}
		if err != nil {
			l.Error("failed to create pairing session", slog.Any("error", err))
			return Handshake{}, upstream("create pairing session", err)
		}

		s.Metrics.HandshakeBegun()
		l.Info("pairing session started", slogx.Token("token", token), slog.Time("expires_at", session.ExpiresAt))
		return Handshake{
			Token:             token,
			ExternalActionURL: s.DeepLink(token),
			ExpiresAt:         session.ExpiresAt,
		}, nil
	}
	return Handshake{}, upstream("create pairing session", store.ErrAlreadyExists)
}

// Complete is called by the bot once the user confirmed. On any error the
// session is left untouched.
func (s *HandshakeService) Complete(ctx context.Context, token string, identity domain.Identity) (CompleteResult, error) {
	res, err := s.complete(ctx, token, identity)
	s.Metrics.HandshakeCompleted(outcome(err))
	return res, err
}

func (s *HandshakeService) complete(ctx context.Context, token string, identity domain.Identity) (CompleteResult, error) {
	l := slogx.FromContext(ctx).With(slogx.Token("token", token))

	if token == "" {
		return CompleteResult{}, ErrSessionNotFound
	}

	session, err := s.Store.PairingSessions().GetPairingSession(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		l.Info("completion for unknown pairing session")
		return CompleteResult{}, ErrSessionNotFound
	}
	if err != nil {
		l.Error("failed to load pairing session", slog.Any("error", err))
		return CompleteResult{}, upstream("get pairing session", err)
	}

	now := s.now()
	if session.State != domain.PairingPending {
		l.Info("completion for pairing session that is not pending", slog.String("state", string(session.State)))
		return CompleteResult{}, ErrSessionNotPending
	}
	if !session.IsPending(now) {
		l.Info("completion for expired pairing session")
		return CompleteResult{}, ErrSessionExpired
	}
	if !identity.Validate() {
		return CompleteResult{}, ErrInvalidIdentity
	}

	var profile domain.Profile
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		p, pair, err := issue(ctx, s.Profiles, tx.Profiles(), s.Issuer, identity)
		if err != nil {
			return err
		}
		if err := tx.PairingSessions().CompletePairingSession(ctx, token, p.ID, pair, now); err != nil {
			return err
		}
		profile = p
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, store.ErrAlreadyCompleted):
		l.Info("lost completion race")
		return CompleteResult{}, ErrSessionNotPending
	case errors.Is(err, store.ErrExpired):
		return CompleteResult{}, ErrSessionExpired
	case errors.Is(err, store.ErrNotFound):
		return CompleteResult{}, ErrSessionNotFound
	case errors.Is(err, ErrInvalidIdentity), IsUpstream(err):
		l.Error("failed to complete pairing session", slog.Any("error", err))
		return CompleteResult{}, err
	default:
		l.Error("failed to complete pairing session", slog.Any("error", err))
		return CompleteResult{}, upstream("complete pairing session", err)
	}

	l.Info("pairing session completed", slog.String("subject", profile.ID))
	return CompleteResult{Profile: profile, ContinuationURL: s.ContinuationURL(token)}, nil
}

// Poll classifies the session without changing it, other than recording
// the first retrieval of completed credentials. Only store failures are
// returned as errors.
func (s *HandshakeService) Poll(ctx context.Context, token string) (PollResult, error) {
	res, err := s.poll(ctx, token)
	if err == nil {
		s.Metrics.HandshakePolled(string(res.Status))
	}
	return res, err
}

func (s *HandshakeService) poll(ctx context.Context, token string) (PollResult, error) {
	if token == "" {
		return PollResult{Status: PollNotFound}, nil
	}

	session, err := s.Store.PairingSessions().GetPairingSession(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return PollResult{Status: PollNotFound}, nil
	}
	if err != nil {
		slogx.FromContext(ctx).Error("failed to load pairing session", slog.Any("error", err))
		return PollResult{}, upstream("get pairing session", err)
	}

	now := s.now()
	switch session.Status(now) {
	case domain.PairingExpired:
		return PollResult{Status: PollExpired, ExpiresAt: session.ExpiresAt}, nil
	case domain.PairingCompleted:
		s.markConsumed(ctx, token, now)
		return PollResult{Status: PollCompleted, Credentials: session.Credentials, ExpiresAt: session.ExpiresAt}, nil
	default:
		return PollResult{Status: PollPending, ExpiresAt: session.ExpiresAt}, nil
	}
}

// Redeem hands completed credentials to the browser callback. Unlike Poll
// every non-completed outcome is an error.
func (s *HandshakeService) Redeem(ctx context.Context, token string) (domain.CredentialPair, error) {
	res, err := s.Poll(ctx, token)
	if err != nil {
		return domain.CredentialPair{}, err
	}
	switch res.Status {
	case PollCompleted:
		return *res.Credentials, nil
	case PollExpired:
		return domain.CredentialPair{}, ErrSessionExpired
	case PollPending:
		return domain.CredentialPair{}, ErrSessionNotCompleted
	default:
		return domain.CredentialPair{}, ErrSessionNotFound
	}
}

func (s *HandshakeService) markConsumed(ctx context.Context, token string, now time.Time) {
	if err := s.Store.PairingSessions().MarkPairingSessionConsumed(ctx, token, now); err != nil {
		slogx.FromContext(ctx).Warn("failed to mark pairing session consumed",
			slogx.Token("token", token), slog.Any("error", err))
	}
}
