package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrBadFilterSyntax signals a malformed "[~]field:operand" expression.
	ErrBadFilterSyntax = errors.New("bad filter syntax")
	// ErrUnknownField signals a field name outside the known field set.
	ErrUnknownField = errors.New("unknown field")
	// ErrUnknownTag signals a tag literal absent from the snapshot's tag catalog.
	ErrUnknownTag = errors.New("unknown tag")
	// ErrBadDateFormat signals a date string matching none of the accepted layouts.
	ErrBadDateFormat = errors.New("bad date format")
	// ErrBadLimit signals a limit count that is not a positive integer.
	ErrBadLimit = errors.New("bad limit")
	// ErrUnknownChildType signals a child record that is neither attachment, note nor annotation.
	ErrUnknownChildType = errors.New("unknown child type")
	// ErrBadPagesValue signals an unparsable page count (recoverable, yields -1).
	ErrBadPagesValue = errors.New("bad pages value")
	// ErrNoData signals an empty result set where a caller needs at least one row.
	ErrNoData = errors.New("no data")
	// ErrUnknownMarker signals a marker outside read/irrelevant/ignore and their negations.
	ErrUnknownMarker = errors.New("unknown marker")
	// ErrSnapshotNotFound signals a missing cached snapshot.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// UnknownFieldError wraps ErrUnknownField with the offending name and the known field set.
type UnknownFieldError struct {
	Field string
	Known []string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("%s %q; should be one of: %s", ErrUnknownField.Error(), e.Field, listing(e.Known))
}

func (e *UnknownFieldError) Unwrap() error { return ErrUnknownField }

// NewUnknownField creates an unknown field error.
func NewUnknownField(name string, known []string) error {
	return &UnknownFieldError{Field: name, Known: known}
}

// UnknownTagError wraps ErrUnknownTag with the offending literal and the known tags.
type UnknownTagError struct {
	Tag   string
	Known []string
}

func (e *UnknownTagError) Error() string {
	return fmt.Sprintf("%s %q; should be one of: %s", ErrUnknownTag.Error(), e.Tag, listing(e.Known))
}

func (e *UnknownTagError) Unwrap() error { return ErrUnknownTag }

// NewUnknownTag creates an unknown tag error.
func NewUnknownTag(tag string, known []string) error {
	return &UnknownTagError{Tag: tag, Known: known}
}

func listing(names []string) string {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i]) < strings.ToLower(sorted[j])
	})
	return strings.Join(sorted, ", ")
}
