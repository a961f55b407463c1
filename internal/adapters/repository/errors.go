package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidRecord = errors.New("invalid record")
	ErrInvalidTarget = errors.New("invalid target")
	ErrDuplicate     = errors.New("duplicate id")
)
