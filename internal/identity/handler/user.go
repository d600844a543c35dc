package handler

import (
	"net/http"

	"slotboard/internal/identity/service"
	apperrors "slotboard/pkg/errors"
	httputil "slotboard/pkg/http"
	"slotboard/pkg/logger"
	"slotboard/pkg/middleware"
	"slotboard/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// UserHandler serves the authenticated user endpoints. The caller comes from
// the request context put there by the authentication middleware.
type UserHandler struct {
	service service.IdentityService
	log     *logger.Logger
}

func NewUserHandler(service service.IdentityService, log *logger.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log,
	}
}

func (h *UserHandler) caller(w http.ResponseWriter, r *http.Request, handlerName string) (*model.Caller, bool) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		if writeErr := httputil.WriteError(w, apperrors.Unauthorized("Authentication required")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", handlerName, "operation", "WriteError", "error", writeErr)
		}
		return nil, false
	}
	return caller, true
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, ok := h.caller(w, r, "Me")
	if !ok {
		return
	}

	user, err := h.service.CurrentUser(r.Context(), caller)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Me", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "Me", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) UpdateTimezone(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, ok := h.caller(w, r, "UpdateTimezone")
	if !ok {
		return
	}

	var req model.UpdateTimezoneRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "UpdateTimezone", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	user, err := h.service.UpdateTimezone(r.Context(), caller, req.Timezone)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "UpdateTimezone", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateTimezone", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if _, ok := h.caller(w, r, "List"); !ok {
		return
	}

	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, users); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/users", h.List)
	router.GET("/api/v1/users/me", h.Me)
	router.PUT("/api/v1/users/me/timezone", h.UpdateTimezone)
}
