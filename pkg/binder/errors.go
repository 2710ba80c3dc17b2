package binder

import "errors"

var (
	// ErrBinderNotApplicable makes handler.Wrap try the next binder.
	ErrBinderNotApplicable = errors.New("binder: request not handled by this binder")

	ErrMissingContentType   = errors.New("binder: Content-Type header is required")
	ErrUnsupportedMediaType = errors.New("binder: unsupported media type")
	ErrFailedToParseJSON    = errors.New("binder: malformed JSON body")
)
