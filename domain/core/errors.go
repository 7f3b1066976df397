package core

import (
	"errors"
)

// Domain errors - centralized error definitions
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrUnknownLabel   = errors.New("unknown category label")
)
