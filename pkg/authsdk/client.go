package authsdk

import (
	"net/http"
	"strings"
	"time"
)

// DefaultPollInterval is how often WaitForHandshake polls.
const DefaultPollInterval = 2 * time.Second

// Client talks to the tgauth service. The zero value is not usable; call
// NewClient.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client for baseURL with a 10 second request timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}
