package authsdk

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// BeginHandshake starts a pairing session.
func (c *Client) BeginHandshake(ctx context.Context) (*BeginHandshakeResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/handshake", nil, nil)
	if err != nil {
		return nil, err
	}

	var out BeginHandshakeResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// PollHandshake reports the session status once. An unknown token is not
// an error; it comes back as StatusNotFound.
func (c *Client) PollHandshake(ctx context.Context, token string) (*PollHandshakeResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/auth/handshake?token="+url.QueryEscape(token), nil, nil)
	if err != nil {
		return nil, err
	}

	expected := http.StatusOK
	if resp.StatusCode == http.StatusNotFound {
		expected = http.StatusNotFound
	}

	var out PollHandshakeResponse
	if err := decodeJSON(resp, &out, expected); err != nil {
		return nil, err
	}
	return &out, nil
}

// WaitForHandshake polls every interval until the session completes,
// expires or ctx is done. Expired and unknown sessions return
// ErrSessionExpired and ErrSessionNotFound.
func (c *Client) WaitForHandshake(ctx context.Context, token string, interval time.Duration) (*Credentials, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		res, err := c.PollHandshake(ctx, token)
		if err != nil {
			return nil, err
		}

		switch res.Status {
		case StatusCompleted:
			if res.Credentials == nil {
				return nil, ErrServerError
			}
			return res.Credentials, nil
		case StatusExpired:
			return nil, ErrSessionExpired
		case StatusNotFound:
			return nil, ErrSessionNotFound
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// CompleteHandshake is what the bot calls once the user confirmed.
// botSecret is sent as a bearer token when non-empty.
func (c *Client) CompleteHandshake(ctx context.Context, botSecret, token string, identity Identity) (*CompleteHandshakeResponse, error) {
	headers := map[string]string{}
	if botSecret != "" {
		headers["Authorization"] = "Bearer " + botSecret
	}

	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/auth/handshake/complete",
		CompleteHandshakeRequest{Token: token, Identity: identity}, headers)
	if err != nil {
		return nil, err
	}

	var out CompleteHandshakeResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
