package domain

// Error codes surfaced to API clients as extensions.code.
const (
	CodeUnauthenticated  = "UNAUTHENTICATED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeBadUserInput     = "BAD_USER_INPUT"
	CodeInvalidToken     = "INVALID_TOKEN"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeEnvironmentError = "ENVIRONMENT_ERROR"
)

// Error is a client-facing failure with a stable machine-readable code. The
// message is the contract: callers match on it, so it must not be wrapped or
// reworded on the way out.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Extensions surfaces the code in the transport error envelope.
func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.Code}
}

// NewError creates a client-facing error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// ErrorCode extracts the machine-readable code from an error, or
// INTERNAL_ERROR for anything outside the taxonomy.
func ErrorCode(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return CodeInternalError
}

var (
	ErrUnauthenticated    = NewError(CodeUnauthenticated, "Authentication required")
	ErrInvalidToken       = NewError(CodeInvalidToken, "Invalid token")
	ErrInvalidCredentials = NewError(CodeBadUserInput, "Invalid credentials")
	ErrUserAlreadyExists  = NewError(CodeBadUserInput, "User already exists with this email")
	ErrTaskNotFound       = NewError(CodeNotFound, "Task not found")
	ErrTestEnvironment    = NewError(CodeEnvironmentError, "This operation can only be performed in test environment")
)
