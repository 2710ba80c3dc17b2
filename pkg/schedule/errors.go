package schedule

import "errors"

var (
	ErrJobAlreadyRegistered = errors.New("schedule: job already registered")
	ErrNoJobs               = errors.New("schedule: no jobs registered")
	ErrInvalidJob           = errors.New("schedule: job name, schedule and func are required")
)
