// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// Failure categories shared by every stage.
var (
	ErrDirectoryCreation = errors.New("directory creation failed")
	ErrExtraction        = errors.New("extraction failed")
	ErrListing           = errors.New("listing failed")
	ErrDecode            = errors.New("decode failed")
	ErrWrite             = errors.New("write failed")
)

// StageError attaches a failure category and the responsible path to an
// underlying cause. errors.Is matches both Kind and the cause.
type StageError struct {
	Kind error
	Path string
	Err  error
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Path)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewStageError builds a StageError of the given kind for path.
func NewStageError(kind error, path string, err error) error {
	return &StageError{Kind: kind, Path: path, Err: err}
}

// FailedPath returns the path recorded on the first StageError in err's
// tree, or "" if there is none.
func FailedPath(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Path
	}
	return ""
}
