package domain

import "errors"

// Sentinel errors wrapped throughout the core with fmt.Errorf("%w: ...").
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrAccessDenied = errors.New("access denied")
	ErrConflict     = errors.New("conflict")
)
