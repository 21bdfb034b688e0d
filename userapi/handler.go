/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package userapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/acronis/go-lookupcache/httpserver/middleware"
	"github.com/acronis/go-lookupcache/log"
	"github.com/acronis/go-lookupcache/lookup"
	"github.com/acronis/go-lookupcache/restapi"
	"github.com/acronis/go-lookupcache/userstore"
)

// ErrorDomain is used in all error responses of the API.
const ErrorDomain = "LookupCache"

// Error codes.
const (
	ErrCodeInvalidUserID = "invalidUserID"
	ErrCodeInvalidUser   = "invalidUser"
	ErrCodeEmailTaken    = "emailTaken"
)

var emailRegexp = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// UserLookup is a read-through cache of users.
// It's implemented by *lookup.Service[userstore.User].
type UserLookup interface {
	lookup.StatsProvider
	Lookup(ctx context.Context, key string) (lookup.Result[userstore.User], error)
	Put(key string, value userstore.User)
	InvalidateAll()
}

// UserCreator creates users in the backing store.
type UserCreator interface {
	Create(ctx context.Context, name, email string) (userstore.User, error)
}

// Handler serves the users API.
type Handler struct {
	users   UserLookup
	creator UserCreator
}

// NewHandler creates a new Handler.
func NewHandler(users UserLookup, creator UserCreator) *Handler {
	return &Handler{users: users, creator: creator}
}

// Routes registers the API routes. It may be used as httpserver.APIRoute.
func (h *Handler) Routes(router chi.Router) {
	router.Route("/users", func(router chi.Router) {
		router.Get("/cache/status", h.getCacheStatus)
		router.Delete("/cache", h.clearCache)
		router.Get("/{id}", h.getUser)
		router.Post("/", h.createUser)
	})
}

type getUserResponse struct {
	User         userstore.User `json:"user"`
	Cached       bool           `json:"cached"`
	ResponseTime string         `json:"responseTime"`
}

func (h *Handler) getUser(rw http.ResponseWriter, r *http.Request) {
	logger := getLogger(r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		apiErr := restapi.NewError(ErrorDomain, ErrCodeInvalidUserID, "Invalid user ID. Must be a positive number.")
		restapi.RespondError(rw, http.StatusBadRequest, apiErr, logger)
		return
	}

	res, err := h.users.Lookup(r.Context(), userstore.UserKey(id))
	if err != nil {
		if errors.Is(err, lookup.ErrNotFound) {
			apiErr := restapi.NewError(ErrorDomain, restapi.ErrCodeNotFound, "User not found.")
			restapi.RespondError(rw, http.StatusNotFound, apiErr, logger)
			return
		}
		logger.Error("error while looking up user", log.Int64("user_id", id), log.Error(err))
		restapi.RespondInternalError(rw, ErrorDomain, logger)
		return
	}

	if lp := middleware.GetLoggingParamsFromContext(r.Context()); lp != nil {
		lp.ExtendFields(log.String("lookup_source", string(res.Source)), log.Bool("lookup_shared", res.Shared))
		lp.AddTimeSlotDurationInMs("lookup_ms", res.Elapsed)
	}

	restapi.RespondJSON(rw, getUserResponse{
		User:         res.Value,
		Cached:       res.Cached(),
		ResponseTime: fmt.Sprintf("%dms", res.Elapsed.Milliseconds()),
	}, logger)
}

type createUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type createUserResponse struct {
	User userstore.User `json:"user"`
}

func (h *Handler) createUser(rw http.ResponseWriter, r *http.Request) {
	logger := getLogger(r)

	var req createUserRequest
	if err := restapi.DecodeRequestJSONStrict(r, &req, true); err != nil {
		restapi.RespondMalformedRequestOrInternalError(rw, ErrorDomain, err, logger)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" {
		apiErr := restapi.NewError(ErrorDomain, ErrCodeInvalidUser, "Name and email are required.")
		restapi.RespondError(rw, http.StatusBadRequest, apiErr, logger)
		return
	}
	if !emailRegexp.MatchString(req.Email) {
		apiErr := restapi.NewError(ErrorDomain, ErrCodeInvalidUser, "Invalid email format.").
			AddContext("email", req.Email)
		restapi.RespondError(rw, http.StatusBadRequest, apiErr, logger)
		return
	}

	user, err := h.creator.Create(r.Context(), req.Name, req.Email)
	if err != nil {
		if errors.Is(err, userstore.ErrEmailTaken) {
			apiErr := restapi.NewError(ErrorDomain, ErrCodeEmailTaken, "User with this email already exists.")
			restapi.RespondError(rw, http.StatusConflict, apiErr, logger)
			return
		}
		logger.Error("error while creating user", log.Error(err))
		restapi.RespondInternalError(rw, ErrorDomain, logger)
		return
	}
	h.users.Put(userstore.UserKey(user.ID), user)

	logger.Info(fmt.Sprintf("user created: %d", user.ID), log.Int64("user_id", user.ID))
	restapi.RespondCodeAndJSON(rw, http.StatusCreated, createUserResponse{User: user}, logger)
}

func (h *Handler) getCacheStatus(rw http.ResponseWriter, r *http.Request) {
	restapi.RespondJSON(rw, newCacheStatusResponse(h.users.StatsSnapshot()), getLogger(r))
}

type clearCacheResponse struct {
	Cleared bool `json:"cleared"`
}

func (h *Handler) clearCache(rw http.ResponseWriter, r *http.Request) {
	h.users.InvalidateAll()
	restapi.RespondJSON(rw, clearCacheResponse{Cleared: true}, getLogger(r))
}

func getLogger(r *http.Request) log.FieldLogger {
	if logger := middleware.GetLoggerFromContext(r.Context()); logger != nil {
		return logger
	}
	return log.NewDisabledLogger()
}
