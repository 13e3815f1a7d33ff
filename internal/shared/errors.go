package shared

import "fmt"

var (
	// Repository errors
	ErrNotFound      = fmt.Errorf("not found")
	ErrAlreadyExists = fmt.Errorf("already exists")
	ErrInvalidID     = fmt.Errorf("invalid identifier")
	ErrBackend       = fmt.Errorf("backend failure")
	ErrPoisoned      = fmt.Errorf("repository poisoned")

	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
