package domain

import "errors"

// Domain errors shared across the analytics packages.
var (
	ErrInvalidGameMode = errors.New("invalid game mode")
	ErrInvalidImport   = errors.New("invalid import document")
)
