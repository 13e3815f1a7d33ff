package models

import (
	"errors"
	"fmt"

	"github.com/desertthunder/lipl/internal/shared"
)

// RepoError is a repository failure tied to an identifier.
//
// Err is one of [shared.ErrNotFound] or [shared.ErrAlreadyExists], so callers match with [errors.Is]
// and recover the ID with [errors.As].
type RepoError struct {
	Err error
	ID  ID
}

func (e *RepoError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.ID)
}

func (e *RepoError) Unwrap() error {
	return e.Err
}

// NotFound reports that id does not name a record of the requested kind.
func NotFound(id ID) error {
	return &RepoError{Err: shared.ErrNotFound, ID: id}
}

// AlreadyExists reports that id is already used by a lyric or playlist.
func AlreadyExists(id ID) error {
	return &RepoError{Err: shared.ErrAlreadyExists, ID: id}
}

// ErrorID extracts the identifier carried by a [RepoError] anywhere in err's chain.
func ErrorID(err error) (ID, bool) {
	var re *RepoError
	if errors.As(err, &re) {
		return re.ID, true
	}
	return ID{}, false
}
