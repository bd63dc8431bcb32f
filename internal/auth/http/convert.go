package http

import (
	"time"

	"github.com/bonechkabonechka/tgauth/internal/auth/domain"
	"github.com/bonechkabonechka/tgauth/pkg/authsdk"
)

func toProfile(p domain.Profile) authsdk.Profile {
	return authsdk.Profile{
		ID:         p.ID,
		TelegramID: p.TelegramID,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Username:   p.Username,
		PhotoURL:   p.PhotoURL,
		Roles:      p.Roles,
		CreatedAt:  p.CreatedAt.UnixMilli(),
		UpdatedAt:  p.UpdatedAt.UnixMilli(),
	}
}

func toCredentials(pair domain.CredentialPair, now time.Time) authsdk.Credentials {
	return authsdk.Credentials{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    pair.ExpiresIn(now),
	}
}

func toIdentity(i authsdk.Identity) domain.Identity {
	return domain.Identity{
		TelegramID: i.TelegramID,
		FirstName:  i.FirstName,
		LastName:   i.LastName,
		Username:   i.Username,
		PhotoURL:   i.PhotoURL,
	}
}
