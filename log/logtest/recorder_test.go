/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package logtest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-lookupcache/log"
)

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	rec.Warn("slow user lookup", log.Int("attempt", 2), log.String("key", "user:1"))
	rec.With(log.String("component", "store")).Info("store connected")
	rec.WithLevel(log.LevelError).Info("must be skipped")

	entries := rec.Entries()
	require.Len(t, entries, 2)

	entry, found := rec.FindEntry("slow user lookup")
	require.True(t, found)
	require.Equal(t, log.LevelWarn, entry.Level)
	attempt, found := entry.FindField("attempt")
	require.True(t, found)
	require.EqualValues(t, 2, attempt.Int)
	key, found := entry.FindField("key")
	require.True(t, found)
	require.Equal(t, "user:1", string(key.Bytes))
	_, found = entry.FindField("missing")
	require.False(t, found)

	entry, found = rec.FindEntryByFilter(func(e RecordedEntry) bool {
		_, ok := e.FindField("component")
		return ok
	})
	require.True(t, found)
	require.Equal(t, "store connected", entry.Text)

	_, found = rec.FindEntry("must be skipped")
	require.False(t, found)

	rec.Reset()
	require.Empty(t, rec.Entries())
}
