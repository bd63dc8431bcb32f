package authsdk

import (
	"context"
	"net/http"
)

// SignIn exchanges Telegram WebApp initData for a credential pair.
func (c *Client) SignIn(ctx context.Context, initData string) (*SignInResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/auth/signin", SignInRequest{InitData: initData}, nil)
	if err != nil {
		return nil, err
	}

	var out SignInResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// MeResponse is the profile plus any rotated credentials the server
// handed back.
type MeResponse struct {
	Profile Profile

	// Rotated is set when the access token had expired and the server
	// issued a new pair. Callers must replace both tokens.
	Rotated *Credentials
}

// Me fetches the caller's profile with the given pair.
func (c *Client) Me(ctx context.Context, creds Credentials) (*MeResponse, error) {
	headers := map[string]string{}
	if creds.AccessToken != "" {
		headers["Authorization"] = "Bearer " + creds.AccessToken
	}
	if creds.RefreshToken != "" {
		headers[RefreshTokenHeader] = creds.RefreshToken
	}

	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/auth/me", nil, headers)
	if err != nil {
		return nil, err
	}

	access := resp.Header.Get(AccessTokenHeader)
	refresh := resp.Header.Get(RefreshTokenHeader)

	var out MeResponse
	if err := decodeJSON(resp, &out.Profile, http.StatusOK); err != nil {
		return nil, err
	}
	if access != "" && refresh != "" {
		out.Rotated = &Credentials{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer"}
	}
	return &out, nil
}

// Logout asks the server to clear the credential cookies.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/logout", nil, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// Header names used when credentials travel outside cookies.
const (
	AccessTokenHeader  = "X-Access-Token"
	RefreshTokenHeader = "X-Refresh-Token"
)
