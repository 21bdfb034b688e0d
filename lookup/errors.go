/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package lookup

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the backend reports that there is no entity for the key.
// Backends should return an error for which errors.Is(err, ErrNotFound) is true.
var ErrNotFound = errors.New("not found")

// BackingError is returned when the backend fails for a reason other than absence of the entity.
type BackingError struct {
	Key string
	Err error
}

func (e *BackingError) Error() string {
	return fmt.Sprintf("fetch %q from backend: %v", e.Key, e.Err)
}

func (e *BackingError) Unwrap() error {
	return e.Err
}
