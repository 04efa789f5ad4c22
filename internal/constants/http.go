package constants

// HTTP Header Names
const (
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderUserAgent     = "User-Agent"
	HeaderXRequestID    = "X-Request-ID"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderXRealIP       = "X-Real-IP"
)

// HTTP Content Types
const (
	ContentTypeJSON      = "application/json"
	ContentTypeForm      = "application/x-www-form-urlencoded"
	ContentTypeMultipart = "multipart/form-data"
)

// Common HTTP Error Messages
const (
	MsgUnauthorized  = "Unauthorized"
	MsgForbidden     = "Forbidden"
	MsgNotFound      = "Resource not found"
	MsgBadRequest    = "Invalid request"
	MsgInternalError = "Something went wrong!"
)
