package service

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/bonechkabonechka/tgauth/internal/auth/domain"
	"github.com/bonechkabonechka/tgauth/pkg/jwtx"
)

var (
	ErrMissingSecret      = errors.New("service: access and refresh secrets are required")
	ErrSecretsNotDistinct = errors.New("service: access and refresh secrets must differ")
	ErrIdentityChanged    = fmt.Errorf("%w: identity changed across rotation", ErrInvalidCredential)
)

// Subject is the identity carried by both halves of a credential pair.
type Subject struct {
	ID         string
	TelegramID int64
	Roles      []string
}

// SubjectFromClaims copies the identity claims out of c.
func SubjectFromClaims(c jwtx.Claims) Subject {
	return Subject{ID: c.Subject, TelegramID: c.TelegramID, Roles: slices.Clone(c.Roles)}
}

type IssuerOptions struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Now           func() time.Time
}

// CredentialIssuer mints and verifies the two-tier credential pair. It holds
// no state beyond its secrets and clock.
type CredentialIssuer struct {
	accessSigner    jwtx.Signer
	refreshSigner   jwtx.Signer
	accessVerifier  jwtx.Verifier
	refreshVerifier jwtx.Verifier

	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	now        func() time.Time
}

func NewCredentialIssuer(opts IssuerOptions) (*CredentialIssuer, error) {
	if len(opts.AccessSecret) == 0 || len(opts.RefreshSecret) == 0 {
		return nil, ErrMissingSecret
	}
	if bytes.Equal(opts.AccessSecret, opts.RefreshSecret) {
		return nil, ErrSecretsNotDistinct
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = jwtx.DefaultAccessTokenTTL
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = jwtx.DefaultRefreshTokenTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	accessSigner, err := jwtx.NewHMACSigner(opts.AccessSecret)
	if err != nil {
		return nil, fmt.Errorf("access signer: %w", err)
	}
	refreshSigner, err := jwtx.NewHMACSigner(opts.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("refresh signer: %w", err)
	}

	verifyOpts := jwtx.VerifyOptions{Issuer: opts.Issuer, Now: opts.Now}
	accessVerifier, err := jwtx.NewHMACVerifier(opts.AccessSecret, verifyOpts)
	if err != nil {
		return nil, fmt.Errorf("access verifier: %w", err)
	}
	refreshVerifier, err := jwtx.NewHMACVerifier(opts.RefreshSecret, verifyOpts)
	if err != nil {
		return nil, fmt.Errorf("refresh verifier: %w", err)
	}

	return &CredentialIssuer{
		accessSigner:    accessSigner,
		refreshSigner:   refreshSigner,
		accessVerifier:  accessVerifier,
		refreshVerifier: refreshVerifier,
		accessTTL:       opts.AccessTTL,
		refreshTTL:      opts.RefreshTTL,
		issuer:          opts.Issuer,
		now:             opts.Now,
	}, nil
}

func (i *CredentialIssuer) AccessTTL() time.Duration  { return i.accessTTL }
func (i *CredentialIssuer) RefreshTTL() time.Duration { return i.refreshTTL }

// Mint signs a fresh pair for subject.
func (i *CredentialIssuer) Mint(subject Subject) (domain.CredentialPair, error) {
	now := i.now()

	access := jwtx.NewClaims(subject.ID, subject.TelegramID, subject.Roles, i.accessTTL, i.issuer, now)
	if err := access.ValidateStructure(); err != nil {
		return domain.CredentialPair{}, err
	}
	refresh := jwtx.NewClaims(subject.ID, subject.TelegramID, subject.Roles, i.refreshTTL, i.issuer, now)

	accessToken, err := i.accessSigner.Sign(access)
	if err != nil {
		return domain.CredentialPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refreshToken, err := i.refreshSigner.Sign(refresh)
	if err != nil {
		return domain.CredentialPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return domain.CredentialPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  access.ExpiresAt.Time,
		RefreshExpiresAt: refresh.ExpiresAt.Time,
	}, nil
}

// VerifyAccess returns the claims of a valid access token.
func (i *CredentialIssuer) VerifyAccess(token string) (jwtx.Claims, error) {
	c, err := i.accessVerifier.Verify(token)
	if err != nil {
		return jwtx.Claims{}, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}
	return c, nil
}

// VerifyRefresh returns the claims of a valid refresh token.
func (i *CredentialIssuer) VerifyRefresh(token string) (jwtx.Claims, error) {
	c, err := i.refreshVerifier.Verify(token)
	if err != nil {
		return jwtx.Claims{}, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}
	return c, nil
}

// Rotate verifies refreshToken and mints a brand-new pair from the
// identity it carries. The returned claims are those of the new access
// token, which must describe the same identity as the refresh token.
func (i *CredentialIssuer) Rotate(refreshToken string) (domain.CredentialPair, jwtx.Claims, error) {
	claims, err := i.VerifyRefresh(refreshToken)
	if err != nil {
		return domain.CredentialPair{}, jwtx.Claims{}, err
	}
	pair, err := i.Mint(SubjectFromClaims(claims))
	if err != nil {
		return domain.CredentialPair{}, jwtx.Claims{}, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}
	next, err := i.VerifyAccess(pair.AccessToken)
	if err != nil {
		return domain.CredentialPair{}, jwtx.Claims{}, err
	}
	if !next.SameIdentity(claims) {
		return domain.CredentialPair{}, jwtx.Claims{}, ErrIdentityChanged
	}
	return pair, next, nil
}
