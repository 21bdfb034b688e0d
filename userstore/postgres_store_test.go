/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package userstore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-lookupcache/lookup"
)

// Integration test, runs only if LOOKUPCACHE_TEST_POSTGRES_DSN is set.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("LOOKUPCACHE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LOOKUPCACHE_TEST_POSTGRES_DSN is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := NewPostgresStore(ctx, PostgresConfig{DSN: dsn, MaxConns: 4})
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.EnsureSchema(ctx))
	require.NoError(t, store.Ping(ctx))

	email := fmt.Sprintf("pg-test-%d@example.com", time.Now().UnixNano())
	created, err := store.Create(ctx, "Postgres User", email)
	require.NoError(t, err)
	require.Positive(t, created.ID)

	fetched, err := store.Fetch(ctx, UserKey(created.ID))
	require.NoError(t, err)
	require.Equal(t, created, fetched)

	_, err = store.Create(ctx, "Duplicate", email)
	require.ErrorIs(t, err, ErrEmailTaken)

	_, err = store.Fetch(ctx, UserKey(1<<62))
	require.ErrorIs(t, err, lookup.ErrNotFound)
}

func TestNewPostgresStore_InvalidDSN(t *testing.T) {
	_, err := NewPostgresStore(context.Background(), PostgresConfig{DSN: "postgres://localhost:notaport/db"})
	require.ErrorContains(t, err, "parse postgres dsn")
}
