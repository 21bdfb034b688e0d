/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package logtest provides log.FieldLogger implementations for tests:
// a Recorder that keeps entries in memory and a plain JSON logger writing to stderr.
package logtest
