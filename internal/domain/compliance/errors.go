package compliance

import "errors"

// Error kinds surfaced to the boundary around every engine call. Callers
// match with errors.Is and map to their own failure shapes.
var (
	ErrNotFound              = errors.New("not found")
	ErrDuplicateRegistration = errors.New("registration number already exists")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrInvalidUpload         = errors.New("invalid document upload")
)
