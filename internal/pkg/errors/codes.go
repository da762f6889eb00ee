package errors

import "net/http"

// Error code constants. Errors carry code + params; reply text for chat
// users is rendered by the command handlers, not here.

// Approval code errors.
const (
	// CodeApprovalRejected covers not-found, expired and race-loser cases.
	// They are deliberately indistinguishable to the requester.
	CodeApprovalRejected = "APPROVAL_CODE_REJECTED"
)

// Admin registry errors.
const (
	CodeNotChiefAdmin  = "NOT_CHIEF_ADMIN"
	CodeNotAdmin       = "NOT_ADMIN"
	CodeChiefImmutable = "CHIEF_ADMIN_IMMUTABLE"
	CodeAlreadyAdmin   = "ALREADY_ADMIN"
	CodeAdminNotFound  = "ADMIN_NOT_FOUND"
)

// Quota ledger errors.
const (
	CodeInvalidLimit  = "INVALID_DAILY_LIMIT"
	CodeNoRoomQuota   = "ROOM_QUOTA_NOT_FOUND"
	CodeQuotaExceeded = "QUOTA_EXCEEDED"
)

// Learned-reply errors.
const (
	CodeEmptySimSimPair = "EMPTY_SIMSIM_PAIR"
)

// Transport errors.
const (
	CodeAuthFailed     = "AUTH_FAILED"
	CodeInvalidRequest = "INVALID_REQUEST"
)

// Convenience constructors using predefined codes.

// ErrApprovalRejected creates the collapsed approval failure.
func ErrApprovalRejected() *AppError {
	return &AppError{
		Code:       CodeApprovalRejected,
		Message:    "approval code is invalid, expired, or already used",
		HTTPStatus: http.StatusNotFound,
	}
}

// ErrNotChiefAdmin creates a chief-admin-only authorization failure.
func ErrNotChiefAdmin() *AppError {
	return &AppError{
		Code:       CodeNotChiefAdmin,
		Message:    "only the chief admin may perform this action",
		HTTPStatus: http.StatusForbidden,
	}
}

// ErrNotAdmin creates an admin-only authorization failure.
func ErrNotAdmin() *AppError {
	return &AppError{
		Code:       CodeNotAdmin,
		Message:    "only admins may perform this action",
		HTTPStatus: http.StatusForbidden,
	}
}

// ErrChiefImmutable rejects promotion or removal of the chief admin.
func ErrChiefImmutable() *AppError {
	return &AppError{
		Code:       CodeChiefImmutable,
		Message:    "the chief admin cannot be promoted or removed",
		HTTPStatus: http.StatusForbidden,
	}
}

// ErrEmptySimSimPair rejects learned replies with a blank prompt or
// response.
func ErrEmptySimSimPair() *AppError {
	return &AppError{
		Code:       CodeEmptySimSimPair,
		Message:    "prompt and response must not be empty",
		HTTPStatus: http.StatusBadRequest,
	}
}

// ErrInvalidLimit rejects non-positive daily limits.
func ErrInvalidLimit(limit int) *AppError {
	return (&AppError{
		Code:       CodeInvalidLimit,
		Message:    "daily limit must be a positive integer",
		HTTPStatus: http.StatusBadRequest,
	}).WithParams(map[string]interface{}{"daily_limit": limit})
}
