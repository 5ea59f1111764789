// Package client is a small Go client for the dmcore HTTP and websocket API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vedran77/dmcore/internal/domain"
	"github.com/vedran77/dmcore/internal/service"
)

// APIError is an error envelope returned by the server.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) StartConversation(ctx context.Context, email string) (*service.ConversationView, error) {
	var view service.ConversationView
	err := c.do(ctx, http.MethodPost, "/api/v1/conversations", map[string]string{"email": email}, &view)
	return &view, err
}

func (c *Client) ListConversations(ctx context.Context) ([]service.ConversationView, error) {
	var views []service.ConversationView
	err := c.do(ctx, http.MethodGet, "/api/v1/conversations", nil, &views)
	return views, err
}

func (c *Client) ListMessages(ctx context.Context, conversationID string, before *uuid.UUID, limit int) (*service.MessageListResponse, error) {
	q := url.Values{}
	if before != nil {
		q.Set("before", before.String())
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/v1/conversations/" + url.PathEscape(conversationID) + "/messages"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp service.MessageListResponse
	err := c.do(ctx, http.MethodGet, path, nil, &resp)
	return &resp, err
}

// SendRequest mirrors the send endpoint body.
type SendRequest struct {
	Content   string     `json:"content,omitempty"`
	ReplyToID *uuid.UUID `json:"reply_to_id,omitempty"`
	ClientID  string     `json:"client_id,omitempty"`
	SentAt    string     `json:"sent_at,omitempty"`
}

func (c *Client) Send(ctx context.Context, conversationID string, req SendRequest) (*domain.Message, error) {
	var msg domain.Message
	err := c.do(ctx, http.MethodPost, "/api/v1/conversations/"+url.PathEscape(conversationID)+"/messages", req, &msg)
	return &msg, err
}

func (c *Client) MarkRead(ctx context.Context, conversationID string) ([]uuid.UUID, error) {
	var resp struct {
		Marked []uuid.UUID `json:"marked"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/conversations/"+url.PathEscape(conversationID)+"/read", nil, &resp)
	return resp.Marked, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		r = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var envelope struct {
			Error APIError `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return &APIError{Status: resp.StatusCode, Code: "UNKNOWN", Message: resp.Status}
		}
		envelope.Error.Status = resp.StatusCode
		return &envelope.Error
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return errors.Wrap(json.NewDecoder(resp.Body).Decode(out), "decode response")
}
