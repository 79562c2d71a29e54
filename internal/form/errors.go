package form

import (
	dErrors "shipform/pkg/domain-errors"
	"shipform/pkg/platform/sentinel"
)

// Precondition and logic errors. Remote failures are wrapped separately with
// dErrors.CodeUnavailable / dErrors.CodeBadGateway.
var (
	ErrMissingSelection  = dErrors.New(dErrors.CodeValidation, "a region and a district must be chosen before submitting")
	ErrBusy              = dErrors.Wrap(sentinel.ErrInvalidState, dErrors.CodeConflict, "another operation is in flight")
	ErrRegionsNotLoaded  = dErrors.Wrap(sentinel.ErrInvalidState, dErrors.CodeConflict, "regions are not loaded")
	ErrNoRegion          = dErrors.Wrap(sentinel.ErrInvalidState, dErrors.CodeConflict, "no region chosen")
	ErrDistrictsNotReady = dErrors.Wrap(sentinel.ErrInvalidState, dErrors.CodeConflict, "districts are not available for the chosen region")
	ErrSuperseded        = dErrors.Wrap(sentinel.ErrConflict, dErrors.CodeConflict, "superseded by a newer region choice")
	ErrUnknownRegion     = dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeInvariantViolation, "region is not in the loaded region list")
	ErrUnknownDistrict   = dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeInvariantViolation, "district is not in the current district list")
)
