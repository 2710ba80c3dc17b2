package httpserver

import "errors"

var (
	ErrStart          = errors.New("httpserver: listen failed")
	ErrShutdown       = errors.New("httpserver: drain did not finish cleanly")
	ErrAlreadyRunning = errors.New("httpserver: Run called twice")
)
