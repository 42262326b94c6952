package trybeauth

import (
	"errors"
	"net/http"
)

// Kind classifies an Error and determines its HTTP status.
type Kind uint8

const (
	// KindInternal is an infrastructure or programming fault (500).
	KindInternal Kind = iota
	// KindValidation is a malformed request (400).
	KindValidation
	// KindDuplicate is a uniqueness conflict (400).
	KindDuplicate
	// KindNotFound is a missing identity (404).
	KindNotFound
	// KindForbidden is a refused session or account state (403).
	KindForbidden
	// KindUnauthorized is a credential mismatch (401).
	KindUnauthorized
)

// Status returns the HTTP status code for k.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindDuplicate:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDuplicate:
		return "duplicate"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Error is the typed failure returned by Engine operations.
//
// Code is stable and machine-readable; Message is the client-facing copy.
// Two Errors match under errors.Is when their codes are equal, so a sentinel
// still matches after a detail has been attached with WithDetail.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Status is shorthand for e.Kind.Status().
func (e *Error) Status() int { return e.Kind.Status() }

// WithDetail returns a copy of e whose message is suffixed with detail and
// whose cause is err.
func (e *Error) WithDetail(detail string, err error) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message + detail, Err: err}
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	// ErrValidation is the base for request validation failures.
	ErrValidation = newError(KindValidation, "validation_failed", "Invalid request")
	// ErrInvalidRole is returned when a registration names an unknown role.
	ErrInvalidRole = newError(KindValidation, "invalid_role", "Role must be one of user, admin or super_admin")
	// ErrEmailAlreadyExists is returned when the normalized email is already registered.
	ErrEmailAlreadyExists = newError(KindDuplicate, "email_already_exists", "Email is already in use, please login or use another email")
	// ErrPasswordTooLong is returned when the password exceeds the hasher's byte cap.
	ErrPasswordTooLong = newError(KindValidation, "password_too_long", "Password must not be longer than 1024 bytes")
	// ErrProcessUnsuccessful is returned when the store accepted a create but returned no identity.
	ErrProcessUnsuccessful = newError(KindInternal, "process_unsuccessful", "Process unsuccessful, please try again. Contact Admin if error persists")

	// ErrUserNotFound is returned by Login for an unknown email.
	ErrUserNotFound = newError(KindNotFound, "user_not_found", "This account does not exist in our database")
	// ErrBlockedAccount is returned by Login for a blocked identity.
	ErrBlockedAccount = newError(KindForbidden, "account_blocked", "This account is blocked, please contact the admin")
	// ErrDifferentSignupMethod is returned by Login for an identity created through a federated provider.
	ErrDifferentSignupMethod = newError(KindForbidden, "different_signup_method", "You may have used a different signup method")
	// ErrInvalidCredentials is returned by Login when the password does not match.
	ErrInvalidCredentials = newError(KindUnauthorized, "invalid_credentials", "Check the credentials and try again")

	// ErrAuthorizationMissing is returned by the gate when no Authorization header is present.
	ErrAuthorizationMissing = newError(KindForbidden, "authorization_missing", "Please login again")
	// ErrLoginRequired is returned by the gate when the Authorization header carries no bearer token.
	ErrLoginRequired = newError(KindForbidden, "login_required", "Login required")
	// ErrSessionUserNotFound is returned by the gate when the token's identity no longer exists.
	ErrSessionUserNotFound = newError(KindForbidden, "session_user_not_found", "User not found, please login again or contact admin")
	// ErrSessionBlocked is returned by the gate when the token's identity is blocked.
	ErrSessionBlocked = newError(KindForbidden, "session_blocked", "Account blocked, please contact admin")
	// ErrSessionEnded is returned by the gate when the identity holds no refresh token.
	ErrSessionEnded = newError(KindForbidden, "session_ended", "Please login again.")
	// ErrRefreshExpired is returned by the gate when an expired access token cannot be rotated.
	ErrRefreshExpired = newError(KindForbidden, "refresh_expired", "Refresh Token Expired. Please login again.")
	// ErrTokenMissingIdentity is returned by the gate when an expired token carries no id.
	ErrTokenMissingIdentity = newError(KindForbidden, "token_missing_identity", "Invalid token")
	// ErrTokenInvalid is returned by the gate for a malformed or foreign token. The
	// message is suffixed with the verifier's detail.
	ErrTokenInvalid = newError(KindForbidden, "token_invalid", "Login Again, Invalid Token: ")

	// ErrInternal wraps infrastructure faults.
	ErrInternal = newError(KindInternal, "internal_error", "Internal Server Error")
)

var (
	// ErrSigningKeyMissing is returned by Build and LoadConfigFromEnv when no JWT secret is configured.
	ErrSigningKeyMissing = errors.New("jwt signing secret is required")
	// ErrEngineNotReady is returned by Engine methods called on a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// ValidationError returns a validation failure carrying message as client copy.
func ValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Code: ErrValidation.Code, Message: message}
}

// AsError converts err into an *Error. Untyped errors become ErrInternal with
// err as the cause; nil stays nil.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return &Error{Kind: KindInternal, Code: ErrInternal.Code, Message: ErrInternal.Message, Err: err}
}

// StatusOf returns the HTTP status for err.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return AsError(err).Status()
}
