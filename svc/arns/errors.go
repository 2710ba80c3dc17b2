package arns

import "errors"

var (
	ErrNameNotFound        = errors.New("leased name not found")
	ErrRegistryUnavailable = errors.New("arns registry unavailable")
	ErrInvalidRegistryPage = errors.New("invalid arns registry page")
	ErrCursorLoop          = errors.New("arns registry returned a cursor that was already visited")
	ErrResolverFailed      = errors.New("arns resolver failed")
	ErrSyncInProgress      = errors.New("arns sync already in progress")
	ErrInvalidWindowPolicy = errors.New("invalid expiration window policy")
)
