package sentinel

import "errors"

// Sentinel errors for infrastructure and state facts. Lower layers return
// these (optionally wrapped) so services can translate them into domain errors:
//   - ErrNotFound: the referenced record does not exist
//   - ErrConflict: a concurrent change won
//   - ErrInvalidState: the entity is in the wrong state for the operation
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
)
