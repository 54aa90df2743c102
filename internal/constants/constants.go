package constants

// Session and request-context keys.
const (
	SessionCookieName = "task_session"
	ContextKeyUserID  = "user_id"

	SessionKeyOAuthState = "oauth_state"
	SessionKeyOAuthToken = "oauth_token"
)

// Validation limits.
const (
	MinPasswordLength = 8
	MaxTitleLength    = 150
)

// DueDateFormat is the wire format for task due dates.
const DueDateFormat = "2006-01-02"
