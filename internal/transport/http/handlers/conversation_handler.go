package handlers

import (
	"net/http"

	"github.com/vedran77/dmcore/internal/service"
	"github.com/vedran77/dmcore/internal/transport/http/middleware"
)

type ConversationHandler struct {
	convService *service.ConversationService
}

func NewConversationHandler(convService *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{convService: convService}
}

func (h *ConversationHandler) Start(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	var input struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}
	if input.Email == "" {
		writeError(w, http.StatusBadRequest, "MISSING_EMAIL", "email is required")
		return
	}

	view, created, err := h.convService.StartConversation(r.Context(), identity, input.Email)
	if err != nil {
		writeAppError(w, r, "start conversation", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, view)
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	views, err := h.convService.ListConversations(r.Context(), identity)
	if err != nil {
		writeAppError(w, r, "list conversations", err)
		return
	}

	writeJSON(w, http.StatusOK, views)
}

func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	view, err := h.convService.GetConversation(r.Context(), identity, r.PathValue("id"))
	if err != nil {
		writeAppError(w, r, "get conversation", err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	if err := h.convService.DeleteConversation(r.Context(), identity, r.PathValue("id")); err != nil {
		writeAppError(w, r, "delete conversation", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ConversationHandler) Block(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	view, err := h.convService.Block(r.Context(), identity, r.PathValue("id"))
	if err != nil {
		writeAppError(w, r, "block", err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (h *ConversationHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	view, err := h.convService.Unblock(r.Context(), identity, r.PathValue("id"))
	if err != nil {
		writeAppError(w, r, "unblock", err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}
