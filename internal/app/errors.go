package service

import "errors"

// Sentinel errors returned by the service. Callers match them with errors.Is.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrInvalidInput    = errors.New("invalid input")
	ErrQueueFull       = errors.New("submission queue full")
	ErrAnalystDisabled = errors.New("analyst not configured")
)
