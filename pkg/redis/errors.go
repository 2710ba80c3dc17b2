package redis

import "errors"

var (
	ErrEmptyConnectionURL           = errors.New("redis: REDIS_URL is empty")
	ErrFailedToParseRedisConnString = errors.New("redis: invalid connection url")
	ErrRedisNotReady                = errors.New("redis: server did not answer ping in time")
	ErrHealthcheckFailed            = errors.New("redis: healthcheck failed")
	// ErrLockFailed wraps transport errors from TryLock and its release func.
	ErrLockFailed = errors.New("redis: lock operation failed")
)
