package membership

import "net/http"

// Kind classifies an engine failure for propagation policy purposes.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindConflict       Kind = "conflict"
	KindNotFound       Kind = "not_found"
	KindAuthorization  Kind = "authorization"
	KindInfrastructure Kind = "infrastructure"
)

// Error is a tagged engine failure. Code is machine-readable and stable;
// Message carries enough context for the caller to self-correct.
type Error struct {
	Kind    Kind   `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// Retryable reports whether the caller may retry the operation as-is.
// Only infrastructure failures qualify; everything else is deterministic.
func (e *Error) Retryable() bool {
	return e.Kind == KindInfrastructure
}

func validationErr(code, msg string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: msg}
}

func conflictErr(code, msg string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: msg}
}

func notFoundErr(code, msg string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: msg}
}

func forbiddenErr(code, msg string) *Error {
	return &Error{Kind: KindAuthorization, Code: code, Message: msg}
}

func infraErr(msg string) *Error {
	return &Error{Kind: KindInfrastructure, Code: "INTERNAL", Message: msg}
}

// Stable error codes surfaced to callers.
const (
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeDuplicateApplication = "DUPLICATE_APPLICATION"
	CodeNotFound             = "NOT_FOUND"
	CodeAlreadyTerminal      = "ALREADY_TERMINAL"
	CodeInvalidTransition    = "INVALID_STATE_TRANSITION"
	CodeWrongApprovalTrack   = "WRONG_APPROVAL_TRACK"
	CodeEmailAlreadyMember   = "EMAIL_ALREADY_MEMBER"
	CodeNotApproved          = "NOT_APPROVED"
	CodeAccountExists        = "ACCOUNT_ALREADY_EXISTS"
	CodeNotPending           = "NOT_PENDING"
	CodeForbidden            = "FORBIDDEN"
)

// HTTPStatus maps an engine error to a response status. Handlers own the
// HTTP mapping; the engine never sees status codes.
func HTTPStatus(err error) int {
	e, ok := err.(*Error)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindAuthorization:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
