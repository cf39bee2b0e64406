package fileinfo

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrNotALink is the cause of a LinkResolutionError for a path that exists
// but is not a symbolic link.
var ErrNotALink = errors.New("invalid argument")

// ErrUnsupported is matched by every UnsupportedOperationError.
var ErrUnsupported = errors.New("not supported")

// StatUnavailableError reports a value accessor called on a path whose
// attributes could not be obtained.
type StatUnavailableError struct {
	Op   string
	Path string
}

func (e *StatUnavailableError) Error() string {
	return fmt.Sprintf("%s(): stat failed for %s", e.Op, e.Path)
}

// Unwrap lets errors.Is(err, fs.ErrNotExist) match.
func (e *StatUnavailableError) Unwrap() error {
	return fs.ErrNotExist
}

// LinkReason tells why a link target could not be resolved.
type LinkReason int

// Link resolution failures.
const (
	// LinkMissing means nothing exists at the path.
	LinkMissing LinkReason = iota
	// LinkNotALink means the path exists but is not a symbolic link.
	LinkNotALink
	// LinkUnreadable means the path is a symbolic link whose target could
	// not be read; Err holds the driver's failure.
	LinkUnreadable
)

// LinkResolutionError reports that the target of a path could not be given:
// nothing is there, it is not a symbolic link, or the link is unreadable.
type LinkResolutionError struct {
	Path   string
	Reason LinkReason
	Err    error
}

func (e *LinkResolutionError) Error() string {
	switch e.Reason {
	case LinkMissing:
		return fmt.Sprintf("unable to read link %s, error: no such file or directory", e.Path)
	case LinkUnreadable:
		return fmt.Sprintf("unable to read link %s, error: %v", e.Path, e.Err)
	case LinkNotALink:
	}

	return fmt.Sprintf("unable to read link %s, error: invalid argument", e.Path)
}

// Unwrap returns fs.ErrNotExist, ErrNotALink or the read failure.
func (e *LinkResolutionError) Unwrap() error {
	switch e.Reason {
	case LinkMissing:
		return fs.ErrNotExist
	case LinkUnreadable:
		return e.Err
	case LinkNotALink:
	}

	return ErrNotALink
}

// UnsupportedOperationError is returned by operations a variant deliberately
// does not provide.
type UnsupportedOperationError struct {
	Op string
}

func (e *UnsupportedOperationError) Error() string {
	return e.Op + ": not supported"
}

// Unwrap returns ErrUnsupported.
func (e *UnsupportedOperationError) Unwrap() error {
	return ErrUnsupported
}
