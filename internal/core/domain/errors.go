package domain

import "errors"

var (
	ErrInvalidSample   = errors.New("invalid metric sample")
	ErrNoData          = errors.New("no samples recorded for session")
	ErrReportNotFound  = errors.New("session report not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrPersistence     = errors.New("persistence store unavailable")
	ErrTimeout         = errors.New("persistence query timed out")
)
