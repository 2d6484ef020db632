package bibq

import (
	"errors"

	"github.com/kailas-cloud/bibq/internal/domain"
)

// Errors returned by the client. Test with errors.Is.
var (
	ErrBadFilterSyntax  = domain.ErrBadFilterSyntax
	ErrUnknownField     = domain.ErrUnknownField
	ErrUnknownTag       = domain.ErrUnknownTag
	ErrBadDateFormat    = domain.ErrBadDateFormat
	ErrBadLimit         = domain.ErrBadLimit
	ErrNoData           = domain.ErrNoData
	ErrUnknownMarker    = domain.ErrUnknownMarker
	ErrSnapshotNotFound = domain.ErrSnapshotNotFound

	// ErrMarksDisabled is returned by marker operations when no marks database is configured.
	ErrMarksDisabled = errors.New("bibq: marks database not configured (use WithMarks)")
	// ErrNoStore is returned by cache operations without a key-value store.
	ErrNoStore = errors.New("bibq: key-value store not configured (use WithRedis or WithValkey)")
)

// UnknownFieldError carries the known field names.
type UnknownFieldError = domain.UnknownFieldError

// UnknownTagError carries the known tags.
type UnknownTagError = domain.UnknownTagError
