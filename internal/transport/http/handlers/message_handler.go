package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/dmcore/internal/domain"
	"github.com/vedran77/dmcore/internal/service"
	"github.com/vedran77/dmcore/internal/transport/http/middleware"
	apperr "github.com/vedran77/dmcore/pkg/errors"
	"github.com/vedran77/dmcore/pkg/validator"
)

type MessageHandler struct {
	msgService *service.MessageService
}

func NewMessageHandler(msgService *service.MessageService) *MessageHandler {
	return &MessageHandler{msgService: msgService}
}

type itemError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type itemResponse struct {
	ID      uuid.UUID       `json:"id"`
	Message *domain.Message `json:"message,omitempty"`
	Error   *itemError      `json:"error,omitempty"`
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	var input struct {
		Content   string                      `json:"content"`
		Media     []validator.AttachmentInput `json:"media"`
		ReplyToID *uuid.UUID                  `json:"reply_to_id"`
		ClientID  string                      `json:"client_id"`
		SentAt    string                      `json:"sent_at"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}
	if errs := validator.ValidateMessage(input.Content, input.Media); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	var sentAt *time.Time
	if t, ok := domain.ParseTimestamp(input.SentAt); ok {
		sentAt = &t
	}

	msg, err := h.msgService.Send(r.Context(), service.SendInput{
		ConversationID: r.PathValue("id"),
		SenderID:       identity,
		Content:        input.Content,
		Media:          input.Media,
		ReplyToID:      input.ReplyToID,
		ClientID:       input.ClientID,
		SentAt:         sentAt,
	})
	if err != nil {
		writeAppError(w, r, "send message", err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	var before *uuid.UUID
	if beforeStr := r.URL.Query().Get("before"); beforeStr != "" {
		id, err := uuid.Parse(beforeStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid before cursor")
			return
		}
		before = &id
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		limit = n
	}

	resp, err := h.msgService.ListMessages(r.Context(), identity, r.PathValue("id"), before, limit)
	if err != nil {
		writeAppError(w, r, "list messages", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	ids, err := h.msgService.MarkRead(r.Context(), r.PathValue("id"), identity)
	if err != nil {
		writeAppError(w, r, "mark read", err)
		return
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"marked": ids})
}

func (h *MessageHandler) Edit(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	msgID, ok := parseMessageID(w, r)
	if !ok {
		return
	}

	var input struct {
		Content string `json:"content"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}
	if errs := validator.ValidateMessage(input.Content, nil); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	msg, err := h.msgService.Edit(r.Context(), identity, r.PathValue("id"), msgID, input.Content)
	if err != nil {
		writeAppError(w, r, "edit message", err)
		return
	}

	writeJSON(w, http.StatusOK, msg)
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	msgID, ok := parseMessageID(w, r)
	if !ok {
		return
	}

	if err := h.msgService.DeleteMessage(r.Context(), identity, r.PathValue("id"), msgID); err != nil {
		writeAppError(w, r, "delete message", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MessageHandler) DeleteMany(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	var input struct {
		IDs []string `json:"ids"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}
	ids, ok := parseBulkIDs(w, input.IDs)
	if !ok {
		return
	}

	results := h.msgService.DeleteMessages(r.Context(), identity, r.PathValue("id"), ids)
	writeJSON(w, http.StatusOK, map[string]any{"results": renderItems(r, results)})
}

func (h *MessageHandler) Forward(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	var input struct {
		IDs                  []string `json:"ids"`
		TargetConversationID string   `json:"target_conversation_id"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}
	if input.TargetConversationID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_TARGET", "target_conversation_id is required")
		return
	}
	ids, ok := parseBulkIDs(w, input.IDs)
	if !ok {
		return
	}

	results, err := h.msgService.Forward(r.Context(), identity, r.PathValue("id"), ids, input.TargetConversationID)
	if err != nil {
		writeAppError(w, r, "forward messages", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": renderItems(r, results)})
}

func parseMessageID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("mid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid message ID")
		return uuid.Nil, false
	}
	return id, true
}

func parseBulkIDs(w http.ResponseWriter, raw []string) ([]uuid.UUID, bool) {
	if errs := validator.ValidateBulk(raw); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return nil, false
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid message ID: "+s)
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

// renderItems reports each item on its own. Internal causes are logged, not
// returned.
func renderItems(r *http.Request, results []service.ItemResult) []itemResponse {
	out := make([]itemResponse, 0, len(results))
	for _, res := range results {
		item := itemResponse{ID: res.ID, Message: res.Message}
		if res.Err != nil {
			var app *apperr.AppError
			code := apperr.CodeOf(res.Err)
			msg := "Something went wrong"
			if errors.As(res.Err, &app) && statusFor(code) < http.StatusConflict {
				msg = app.Message
			}
			if statusFor(code) >= http.StatusConflict {
				logBulkFailure(r, res)
			}
			item.Error = &itemError{Code: string(code), Message: msg}
		}
		out = append(out, item)
	}
	return out
}
