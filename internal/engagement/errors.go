package engagement

import (
	apperrors "github.com/Theras-Labs/theras-boost-protocol/internal/platform/errors"
)

// Sentinel domain errors, matched by code.
var (
	ErrUnauthorized = apperrors.New(apperrors.CodeUnauthorized,
		"caller is not the project authority")
	ErrProjectKeyTooLong = apperrors.New(apperrors.CodeProjectKeyTooLong,
		"project key exceeds 32 characters")
	ErrQuestIDTooLong = apperrors.New(apperrors.CodeQuestIDTooLong,
		"quest id exceeds 64 characters")
	ErrInvalidProject = apperrors.New(apperrors.CodeInvalidProject,
		"user does not belong to this project")
	ErrAlreadyLoggedInToday = apperrors.New(apperrors.CodeAlreadyLoggedInToday,
		"daily login already recorded within the last 24 hours")
)
