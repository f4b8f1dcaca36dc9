package model

import "errors"

// Sentinels shared by the store, services and HTTP layers. respond.Error maps
// them to 404, 400 and 409.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
)
