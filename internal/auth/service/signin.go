package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bonechkabonechka/tgauth/internal/auth/domain"
	"github.com/bonechkabonechka/tgauth/internal/auth/metrics"
	"github.com/bonechkabonechka/tgauth/internal/auth/store"
	"github.com/bonechkabonechka/tgauth/pkg/initdata"
	"github.com/bonechkabonechka/tgauth/pkg/slogx"
)

// IssuedSession is a resolved profile and the pair minted for it.
type IssuedSession struct {
	Profile     domain.Profile
	Credentials domain.CredentialPair
}

// SignInService accepts Mini App initData signed by Telegram with the bot
// token and issues credentials directly, with no pairing session.
type SignInService struct {
	Store    store.Store
	Issuer   *CredentialIssuer
	Profiles *ProfileService
	Metrics  *metrics.Metrics

	BotToken string

	// MaxAge bounds how old auth_date may be. Zero disables the check.
	MaxAge time.Duration
	Now    func() time.Time
}

func (s *SignInService) SignIn(ctx context.Context, rawInitData string) (IssuedSession, error) {
	res, err := s.signIn(ctx, rawInitData)
	s.Metrics.SignedIn(outcome(err))
	return res, err
}

func (s *SignInService) signIn(ctx context.Context, raw string) (IssuedSession, error) {
	l := slogx.FromContext(ctx)

	if s.BotToken == "" {
		return IssuedSession{}, ErrSignInDisabled
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	data, err := initdata.VerifyAndParse(raw, s.BotToken, s.MaxAge, now)
	if err != nil {
		mapped := mapInitDataError(err)
		l.Info("rejected sign-in assertion", slog.String("reason", mapped.Error()), slog.Any("error", err))
		return IssuedSession{}, mapped
	}

	identity := domain.Identity{
		TelegramID: data.User.ID,
		FirstName:  data.User.FirstName,
		LastName:   data.User.LastName,
		Username:   data.User.Username,
		PhotoURL:   data.User.PhotoURL,
	}
	profile, pair, err := issue(ctx, s.Profiles, s.Store.Profiles(), s.Issuer, identity)
	if err != nil {
		if errors.Is(err, ErrInvalidIdentity) {
			return IssuedSession{}, ErrMalformedAssertion
		}
		l.Error("failed to issue credentials", slog.Any("error", err))
		return IssuedSession{}, err
	}

	l.Info("direct sign-in", slog.String("subject", profile.ID))
	return IssuedSession{Profile: profile, Credentials: pair}, nil
}

func mapInitDataError(err error) error {
	switch {
	case errors.Is(err, initdata.ErrSignatureMismatch):
		return ErrInvalidSignature
	case errors.Is(err, initdata.ErrExpired):
		return ErrAssertionExpired
	default:
		return ErrMalformedAssertion
	}
}
