package handlers

import "net/http"

// Register mounts the conversation API on mux behind auth.
func Register(mux *http.ServeMux, auth func(http.Handler) http.Handler, conv *ConversationHandler, msg *MessageHandler) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})

	// Conversations
	mux.Handle("POST /api/v1/conversations", auth(http.HandlerFunc(conv.Start)))
	mux.Handle("GET /api/v1/conversations", auth(http.HandlerFunc(conv.List)))
	mux.Handle("GET /api/v1/conversations/{id}", auth(http.HandlerFunc(conv.Get)))
	mux.Handle("DELETE /api/v1/conversations/{id}", auth(http.HandlerFunc(conv.Delete)))
	mux.Handle("POST /api/v1/conversations/{id}/block", auth(http.HandlerFunc(conv.Block)))
	mux.Handle("DELETE /api/v1/conversations/{id}/block", auth(http.HandlerFunc(conv.Unblock)))

	// Messages
	mux.Handle("GET /api/v1/conversations/{id}/messages", auth(http.HandlerFunc(msg.List)))
	mux.Handle("POST /api/v1/conversations/{id}/messages", auth(http.HandlerFunc(msg.Send)))
	mux.Handle("POST /api/v1/conversations/{id}/messages/delete", auth(http.HandlerFunc(msg.DeleteMany)))
	mux.Handle("PATCH /api/v1/conversations/{id}/messages/{mid}", auth(http.HandlerFunc(msg.Edit)))
	mux.Handle("DELETE /api/v1/conversations/{id}/messages/{mid}", auth(http.HandlerFunc(msg.Delete)))
	mux.Handle("POST /api/v1/conversations/{id}/read", auth(http.HandlerFunc(msg.MarkRead)))
	mux.Handle("POST /api/v1/conversations/{id}/forward", auth(http.HandlerFunc(msg.Forward)))
}
