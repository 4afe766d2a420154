package supply

import (
	apperrors "github.com/Theras-Labs/theras-boost-protocol/internal/platform/errors"
)

// Sentinel domain errors. Matching is by code, so errors.Is works against
// any error produced with the same code elsewhere in the system.
var (
	ErrUnauthorized = apperrors.New(apperrors.CodeUnauthorized,
		"caller is not the supply authority")
	ErrProgramPaused = apperrors.New(apperrors.CodeProgramPaused,
		"supply transitions are paused")
	ErrInvalidAmount = apperrors.New(apperrors.CodeInvalidAmount,
		"amount must be greater than zero")
	ErrItemIDTooLong = apperrors.New(apperrors.CodeItemIDTooLong,
		"catalog item id exceeds 64 characters")
	ErrArithmeticOverflow = apperrors.New(apperrors.CodeArithmeticOverflow,
		"supply counter overflow")
	ErrArithmeticUnderflow = apperrors.New(apperrors.CodeArithmeticUnderflow,
		"supply counter underflow")
	ErrInsufficientCollateral = apperrors.New(apperrors.CodeInsufficientCollateral,
		"vault collateral is insufficient for redemption")
	ErrAlreadyInitialized = apperrors.New(apperrors.CodeAlreadyInitialized,
		"supply state is already initialized")
	ErrNotInitialized = apperrors.New(apperrors.CodeNotInitialized,
		"supply state is not initialized")
)
