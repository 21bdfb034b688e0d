/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package userstore provides backing stores of users that are put behind the lookup cache:
// an in-memory store with simulated latency and a PostgreSQL store.
// Both can be wrapped with RetryingBackend that retries transient failures.
package userstore
