// Package errors provides structured, coded error handling for the ledger.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Supply state machine errors
	CodeUnauthorized           Code = "UNAUTHORIZED"
	CodeProgramPaused          Code = "PROGRAM_PAUSED"
	CodeInvalidAmount          Code = "INVALID_AMOUNT"
	CodeItemIDTooLong          Code = "ITEM_ID_TOO_LONG"
	CodeArithmeticOverflow     Code = "ARITHMETIC_OVERFLOW"
	CodeArithmeticUnderflow    Code = "ARITHMETIC_UNDERFLOW"
	CodeInsufficientCollateral Code = "INSUFFICIENT_COLLATERAL"
	CodeAlreadyInitialized     Code = "ALREADY_INITIALIZED"
	CodeNotInitialized         Code = "NOT_INITIALIZED"

	// Token ledger errors
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"
	CodeLedgerFailure       Code = "LEDGER_FAILURE"

	// Engagement ledger errors
	CodeProjectKeyTooLong    Code = "PROJECT_KEY_TOO_LONG"
	CodeQuestIDTooLong       Code = "QUEST_ID_TOO_LONG"
	CodeInvalidProject       Code = "INVALID_PROJECT"
	CodeInvalidUser          Code = "INVALID_USER"
	CodeAlreadyLoggedInToday Code = "ALREADY_LOGGED_IN_TODAY"

	// Auth errors
	CodeGrantInvalid  Code = "GRANT_INVALID"
	CodeGrantExpired  Code = "GRANT_EXPIRED"
	CodeGrantMismatch Code = "GRANT_MISMATCH"

	// Storage errors
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
)

// HTTPStatus maps an error code to the HTTP status returned by the API.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeUnauthorized, CodeGrantInvalid, CodeGrantExpired, CodeGrantMismatch:
		return http.StatusUnauthorized
	case CodeProgramPaused:
		return http.StatusServiceUnavailable
	case CodeInvalidAmount, CodeItemIDTooLong, CodeProjectKeyTooLong,
		CodeQuestIDTooLong, CodeInvalidProject, CodeInvalidUser:
		return http.StatusBadRequest
	case CodeInsufficientCollateral, CodeInsufficientBalance:
		return http.StatusUnprocessableEntity
	case CodeAlreadyInitialized, CodeAlreadyExists, CodeAlreadyLoggedInToday:
		return http.StatusConflict
	case CodeNotFound, CodeNotInitialized:
		return http.StatusNotFound
	case CodeArithmeticOverflow, CodeArithmeticUnderflow, CodeLedgerFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
