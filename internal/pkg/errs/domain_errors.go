package errs

import "errors"

// Domain-specific sentinel errors shared across usecase layers
var (
	ErrRequestNotFound     = errors.New("request not found")
	ErrNotRequestOwner     = errors.New("request not owned by caller")
	ErrDomainValidation    = errors.New("domain validation error")
	ErrInvalidTargetStatus = errors.New("invalid target response status")

	// StorageUnavailable marks transient store failures; the transport
	// adapter may retry, the engine does not.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
