package ws

import (
	"net/http"

	"github.com/vedran77/dmcore/internal/observability"
	"nhooyr.io/websocket"
)

// TokenParser resolves a bearer token to an identity.
type TokenParser interface {
	Parse(token string) (string, error)
}

// ServeWS returns an HTTP handler that upgrades to WebSocket.
// Auth is done via ?token=xxx query param (WebSocket can't send headers).
// An empty originPatterns allows any origin.
func ServeWS(hub *Hub, tokens TokenParser, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		identity, err := tokens.Parse(tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns:     originPatterns,
			InsecureSkipVerify: len(originPatterns) == 0,
		})
		if err != nil {
			observability.LoggerFromContext(r.Context()).Warn().Err(err).Msg("ws accept error")
			return
		}

		client := NewClient(hub, conn, identity)
		select {
		case hub.register <- client:
		case <-hub.done:
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}

		go client.WritePump()
		go client.ReadPump()
	}
}
