package authsdk

// ErrorResponse is the JSON shape of an error.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ============================================================================
// Handshake Types
// ============================================================================

// PollStatus values reported by GET /v1/auth/handshake.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusExpired   = "expired"
	StatusNotFound  = "not_found"
)

// BeginHandshakeResponse is returned by POST /v1/auth/handshake.
type BeginHandshakeResponse struct {
	// Token identifies the pairing session. Keep it secret until completion.
	Token string `json:"token"`

	// ExternalActionURL is the bot deep link the user must open.
	ExternalActionURL string `json:"external_action_url"`

	// ExpiresAt is the session deadline in epoch milliseconds.
	ExpiresAt int64 `json:"expires_at"`
}

// Identity is what the bot knows about the Telegram user.
type Identity struct {
	TelegramID int64  `json:"tg_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name,omitempty"`
	Username   string `json:"username,omitempty"`
	PhotoURL   string `json:"photo_url,omitempty"`
}

// CompleteHandshakeRequest is sent by the bot to POST /v1/auth/handshake/complete.
type CompleteHandshakeRequest struct {
	Token    string   `json:"token"`
	Identity Identity `json:"identity"`
}

type CompleteHandshakeResponse struct {
	Success bool `json:"success"`

	// ContinuationURL is where the bot should send the user back to.
	ContinuationURL string `json:"continuation_url"`
}

// Credentials is a credential pair delivered inline.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`

	// ExpiresIn is the remaining access token lifetime in seconds.
	ExpiresIn int `json:"expires_in"`
}

// PollHandshakeResponse is returned by GET /v1/auth/handshake?token=.
type PollHandshakeResponse struct {
	Status      string       `json:"status"`
	Credentials *Credentials `json:"credentials,omitempty"`
}

// ============================================================================
// Sign-in Types
// ============================================================================

// SignInRequest carries raw Telegram WebApp initData.
type SignInRequest struct {
	InitData string `json:"init_data"`
}

// SignInResponse is returned by POST /v1/auth/signin. The same credentials
// are also set as cookies.
type SignInResponse struct {
	Profile     Profile     `json:"profile"`
	Credentials Credentials `json:"credentials"`
}

// Profile is the public view of a local account.
type Profile struct {
	ID         string   `json:"id"`
	TelegramID int64    `json:"tg_id"`
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name,omitempty"`
	Username   string   `json:"username,omitempty"`
	PhotoURL   string   `json:"photo_url,omitempty"`
	Roles      []string `json:"roles"`
	CreatedAt  int64    `json:"created_at"`
	UpdatedAt  int64    `json:"updated_at"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is used by both /livez and /readyz (readyz adds Checks).
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the status of each dependency.
type HealthChecks struct {
	Database string `json:"database"`
	Issuer   string `json:"issuer"`
}
