package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/dmcore/internal/auth"
	"github.com/vedran77/dmcore/internal/domain"
	"github.com/vedran77/dmcore/internal/repository/memory"
	"github.com/vedran77/dmcore/internal/service"
	"github.com/vedran77/dmcore/internal/transport/http/handlers"
	"github.com/vedran77/dmcore/internal/transport/http/middleware"
)

const (
	ana = "ana@acme.io"
	bo  = "bo@acme.io"
	cy  = "cy@acme.io"
)

type api struct {
	handler http.Handler
	tokens  *auth.Tokens
}

func newAPI(t *testing.T) *api {
	t.Helper()
	ctx := context.Background()
	store := memory.NewDMStore()
	dir := service.NewRepoDirectory(memory.NewContactStore())
	require.NoError(t, dir.AddContact(ctx, ana, domain.Contact{DisplayName: "Bo Builder", Email: bo}))
	require.NoError(t, dir.AddContact(ctx, bo, domain.Contact{DisplayName: "Ana", Email: ana}))

	tokens := auth.NewTokens("test-secret")
	mux := http.NewServeMux()
	handlers.Register(mux, middleware.Auth(tokens),
		handlers.NewConversationHandler(service.NewConversationService(store, dir)),
		handlers.NewMessageHandler(service.NewMessageService(store)),
	)
	return &api{
		handler: middleware.RequestID(middleware.CORS([]string{"https://app.acme.io"})(mux)),
		tokens:  tokens,
	}
}

func (a *api) do(t *testing.T, identity, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if identity != "" {
		token, err := a.tokens.Issue(identity, 0)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *api) start(t *testing.T, identity, other string) string {
	t.Helper()
	rec := a.do(t, identity, http.MethodPost, "/api/v1/conversations", map[string]string{"email": other})
	require.Contains(t, []int{http.StatusOK, http.StatusCreated}, rec.Code, rec.Body.String())
	var view struct {
		ID string `json:"id"`
	}
	decode(t, rec, &view)
	return view.ID
}

func (a *api) send(t *testing.T, identity, convID, content string) domain.Message {
	t.Helper()
	rec := a.do(t, identity, http.MethodPost, "/api/v1/conversations/"+convID+"/messages", map[string]string{"content": content})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var msg domain.Message
	decode(t, rec, &msg)
	return msg
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decode(t, rec, &body)
	return body.Error.Code
}

func TestAuthRequired(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, "", http.MethodGet, "/api/v1/conversations", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, rec))

	rec = a.do(t, "", http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStartConversation(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, ana, http.MethodPost, "/api/v1/conversations", map[string]string{"email": bo})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var view struct {
		ID          string `json:"id"`
		Counterpart struct {
			DisplayName string `json:"display_name"`
		} `json:"counterpart"`
		Snapshot json.RawMessage `json:"participant_snapshot"`
	}
	decode(t, rec, &view)
	assert.Equal(t, domain.ConversationKey(ana, bo), view.ID)
	assert.Equal(t, "Bo Builder", view.Counterpart.DisplayName)
	assert.Nil(t, view.Snapshot)

	rec = a.do(t, bo, http.MethodPost, "/api/v1/conversations", map[string]string{"email": ana})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, ana, http.MethodPost, "/api/v1/conversations", map[string]string{"email": cy})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PARTICIPANT", errorCode(t, rec))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations", bytes.NewBufferString("{"))
	token, _ := a.tokens.Issue(ana, 0)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "INVALID_JSON", errorCode(t, rr))
}

func TestMessageFlow(t *testing.T) {
	a := newAPI(t)
	id := a.start(t, ana, bo)
	base := "/api/v1/conversations/" + id

	first := a.send(t, ana, id, "hello")
	a.send(t, ana, id, "anyone?")

	rec := a.do(t, bo, http.MethodGet, base+"/messages?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page service.MessageListResponse
	decode(t, rec, &page)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, "anyone?", page.Messages[0].Content)
	assert.True(t, page.HasMore)

	rec = a.do(t, bo, http.MethodGet, base+"/messages?before="+page.Messages[0].ID.String(), nil)
	decode(t, rec, &page)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, first.ID, page.Messages[0].ID)

	rec = a.do(t, bo, http.MethodPost, base+"/read", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var read struct {
		Marked []string `json:"marked"`
	}
	decode(t, rec, &read)
	assert.Len(t, read.Marked, 2)

	rec = a.do(t, ana, http.MethodPatch, base+"/messages/"+first.ID.String(), map[string]string{"content": "hello there"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(t, bo, http.MethodPatch, base+"/messages/"+first.ID.String(), map[string]string{"content": "hijack"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "PERMISSION_DENIED", errorCode(t, rec))

	rec = a.do(t, ana, http.MethodDelete, base+"/messages/"+first.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(t, bo, http.MethodGet, base+"/messages?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendValidation(t *testing.T) {
	a := newAPI(t)
	id := a.start(t, ana, bo)

	rec := a.do(t, ana, http.MethodPost, "/api/v1/conversations/"+id+"/messages", map[string]any{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))

	rec = a.do(t, ana, http.MethodPost, "/api/v1/conversations/"+id+"/messages", map[string]any{
		"media": []map[string]any{{"type": "image", "url": "ftp://files/x.png"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, ana, http.MethodPost, "/api/v1/conversations/"+id+"/messages", map[string]any{
		"content":   "sent offline",
		"client_id": "tmp-1",
		"sent_at":   "1700000000000",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var msg domain.Message
	decode(t, rec, &msg)
	require.NotNil(t, msg.SentAt)
	assert.Equal(t, int64(1700000000000), msg.SentAt.UnixMilli())
}

func TestErrorStatuses(t *testing.T) {
	a := newAPI(t)
	id := a.start(t, ana, bo)

	rec := a.do(t, cy, http.MethodGet, "/api/v1/conversations/"+id, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, ana, http.MethodGet, "/api/v1/conversations/dm_missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, rec))

	rec = a.do(t, ana, http.MethodPatch, "/api/v1/conversations/"+id+"/messages/not-a-uuid", map[string]string{"content": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ID", errorCode(t, rec))
}

func TestBlockEndpoints(t *testing.T) {
	a := newAPI(t)
	id := a.start(t, ana, bo)
	base := "/api/v1/conversations/" + id

	rec := a.do(t, bo, http.MethodPost, base+"/block", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		BlockedByMe bool `json:"blocked_by_me"`
	}
	decode(t, rec, &view)
	assert.True(t, view.BlockedByMe)

	rec = a.do(t, bo, http.MethodPost, base+"/messages", map[string]string{"content": "hi"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "BLOCKED", errorCode(t, rec))

	// The blocked side sees an ordinary success.
	a.send(t, ana, id, "hello?")
	rec = a.do(t, bo, http.MethodGet, base+"/messages", nil)
	var page service.MessageListResponse
	decode(t, rec, &page)
	assert.Empty(t, page.Messages)

	rec = a.do(t, bo, http.MethodDelete, base+"/block", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &view)
	assert.False(t, view.BlockedByMe)
}

func TestBulkEndpoints(t *testing.T) {
	a := newAPI(t)
	id := a.start(t, ana, bo)
	base := "/api/v1/conversations/" + id
	own := a.send(t, ana, id, "mine")
	theirs := a.send(t, bo, id, "theirs")

	rec := a.do(t, ana, http.MethodPost, base+"/messages/delete", map[string]any{
		"ids": []string{own.ID.String(), theirs.ID.String()},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Results []struct {
			ID    string `json:"id"`
			Error *struct {
				Code string `json:"code"`
			} `json:"error"`
		} `json:"results"`
	}
	decode(t, rec, &out)
	require.Len(t, out.Results, 2)
	assert.Nil(t, out.Results[0].Error)
	require.NotNil(t, out.Results[1].Error)
	assert.Equal(t, "PERMISSION_DENIED", out.Results[1].Error.Code)

	rec = a.do(t, ana, http.MethodPost, base+"/messages/delete", map[string]any{"ids": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))

	rec = a.do(t, bo, http.MethodPost, base+"/forward", map[string]any{
		"ids":                    []string{theirs.ID.String()},
		"target_conversation_id": id,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var fwd struct {
		Results []struct {
			Message *domain.Message `json:"message"`
		} `json:"results"`
	}
	decode(t, rec, &fwd)
	require.Len(t, fwd.Results, 1)
	require.NotNil(t, fwd.Results[0].Message)
	assert.Equal(t, bo, fwd.Results[0].Message.Forwarded.OriginalSender)
}

func TestCORSAndRequestID(t *testing.T) {
	a := newAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/conversations", nil)
	req.Header.Set("Origin", "https://app.acme.io")
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.acme.io", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/conversations", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "req-42", rec.Header().Get(middleware.RequestIDHeader))
}
