package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated indicates a missing, malformed or expired token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden indicates the permission engine denied the request.
	ErrForbidden = errors.New("forbidden")
	// ErrAlreadyProcessed indicates an approval was resolved by an earlier call.
	ErrAlreadyProcessed = errors.New("approval already processed")
	// ErrUnsupportedApprovalAction indicates no content mutator is registered
	// for an approval's module/action pair. A silent no-op here would report
	// success while leaving the real mutation undone, so callers must fail loud.
	ErrUnsupportedApprovalAction = errors.New("unsupported approval action")
	// ErrValidation indicates a malformed request payload.
	ErrValidation = errors.New("validation failed")
)
