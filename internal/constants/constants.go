package constants

const (
	// ContextKeyUserID is the gin context and session key holding the authenticated user ID.
	ContextKeyUserID = "user_id"
	// ContextKeyUserRole holds the authenticated user's profile role.
	ContextKeyUserRole = "user_role"
	// ContextKeyRequestID holds the request correlation ID.
	ContextKeyRequestID = "request_id"

	// SessionCookieName is the cookie carrying the session.
	SessionCookieName = "eventhub_session"

	MinPasswordLength = 8
	MaxPhoneLength    = 15

	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	// DateLayout is the wire format for date-only query and body parameters.
	DateLayout = "2006-01-02"
)
