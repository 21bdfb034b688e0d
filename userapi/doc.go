/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package userapi provides the REST API for reading and creating users through the lookup cache.
// It exposes the cache statistics and allows clearing the cache as well.
package userapi
