package handler

import (
	"net/http"

	"slotboard/internal/conflicts/service"
	apperrors "slotboard/pkg/errors"
	httputil "slotboard/pkg/http"
	"slotboard/pkg/logger"
	"slotboard/pkg/middleware"
	"slotboard/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ConflictHandler struct {
	service service.ConflictService
	log     *logger.Logger
}

func NewConflictHandler(service service.ConflictService, log *logger.Logger) *ConflictHandler {
	return &ConflictHandler{
		service: service,
		log:     log,
	}
}

func (h *ConflictHandler) caller(w http.ResponseWriter, r *http.Request, handlerName string) (*model.Caller, bool) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		if writeErr := httputil.WriteError(w, apperrors.Unauthorized("Authentication required")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", handlerName, "operation", "WriteError", "error", writeErr)
		}
		return nil, false
	}
	return caller, true
}

func (h *ConflictHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, ok := h.caller(w, r, "List")
	if !ok {
		return
	}

	conflicts, err := h.service.ListForCaller(r.Context(), caller)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, conflicts); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ConflictHandler) Resolve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, ok := h.caller(w, r, "Resolve")
	if !ok {
		return
	}

	id := ps.ByName("id")

	conflict, err := h.service.Resolve(r.Context(), caller, id)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Resolve", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, conflict); err != nil {
		h.log.Error("failed to write success response", "handler", "Resolve", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ConflictHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/conflicts", h.List)
	router.PUT("/api/v1/conflicts/id/:id/resolve", h.Resolve)
}
