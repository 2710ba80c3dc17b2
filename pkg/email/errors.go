package email

import "errors"

// Sentinels returned by every EmailSender in this package.
var (
	ErrInvalidConfig     = errors.New("email: invalid sender configuration")
	ErrInvalidParams     = errors.New("email: invalid message")
	ErrFailedToSendEmail = errors.New("email: delivery failed")
)
