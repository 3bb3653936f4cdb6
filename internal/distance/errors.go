package distance

import (
	"errors"
	"fmt"
)

// ErrWordNotFound is matched by every *NotFoundError.
var ErrWordNotFound = errors.New("word not found")

// NotFoundError reports a query word that has no recorded occurrence.
type NotFoundError struct {
	Word string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %q", ErrWordNotFound.Error(), e.Word)
}

func (e *NotFoundError) Unwrap() error {
	return ErrWordNotFound
}

// MissingWord extracts the offending word from err, if err carries one.
func MissingWord(err error) (string, bool) {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf.Word, true
	}
	return "", false
}
