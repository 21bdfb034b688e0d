/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package userstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/acronis/go-lookupcache/lookup"
)

// ErrUserNotFound is returned when there is no user with the requested id.
// It satisfies errors.Is(err, lookup.ErrNotFound).
var ErrUserNotFound = fmt.Errorf("user %w", lookup.ErrNotFound)

// ErrEmailTaken is returned by Create when a user with the same email already exists.
var ErrEmailTaken = errors.New("email is already taken")

// User represents a user entity.
type User struct {
	ID    int64  `json:"id" mapstructure:"id" yaml:"id"`
	Name  string `json:"name" mapstructure:"name" yaml:"name"`
	Email string `json:"email" mapstructure:"email" yaml:"email"`
}

// Store is a backing store of users.
// Fetch implements lookup.Backend, the key is a decimal user id.
type Store interface {
	lookup.Backend[User]
	Create(ctx context.Context, name, email string) (User, error)
	Ping(ctx context.Context) error
}

// UserKey returns the lookup key of the user with the passed id.
func UserKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func parseUserKey(key string) (int64, error) {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid key %q", ErrUserNotFound, key)
	}
	return id, nil
}
