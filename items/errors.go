package items

import (
	"github.com/pkg/errors"
)

var (
	// ErrMissingMetadata means an attachment has neither a legacy record
	// nor the file metadata needed to build a new one.
	ErrMissingMetadata = errors.New("no attachment metadata")

	// ErrStoreWrite means the item store rejected a record, for example
	// because of a key constraint.
	ErrStoreWrite = errors.New("item store rejected record")
)

// An UnavailableError is returned when the item store (or any collaborator
// behind it) cannot be reached. It is not tied to any one record.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return "item store unavailable: " + e.Err.Error()
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Unavailable wraps err in an *UnavailableError. It returns nil if err is nil.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	return &UnavailableError{Err: err}
}

// IsUnavailable reports whether err is, or wraps, an *UnavailableError.
func IsUnavailable(err error) bool {
	var u *UnavailableError
	return errors.As(err, &u)
}
