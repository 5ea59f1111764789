package domain

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const snippetLength = 80

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
	MediaFile  MediaKind = "file"
)

// ParseMediaKind resolves the loosely typed type/mimeType pair sent by
// clients into a MediaKind. Unknown shapes become MediaFile.
func ParseMediaKind(kind, mimeType string) MediaKind {
	switch MediaKind(strings.ToLower(strings.TrimSpace(kind))) {
	case MediaImage:
		return MediaImage
	case MediaVideo:
		return MediaVideo
	case MediaAudio:
		return MediaAudio
	case MediaFile:
		return MediaFile
	}

	major, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(mimeType)), "/")
	switch major {
	case "image":
		return MediaImage
	case "video":
		return MediaVideo
	case "audio":
		return MediaAudio
	}
	return MediaFile
}

type Attachment struct {
	Kind            MediaKind `json:"type"`
	URL             string    `json:"url"`
	Name            string    `json:"name"`
	Size            int64     `json:"size"`
	DurationSeconds float64   `json:"duration,omitempty"`
}

// ReplyRef is a snapshot of the quoted message, not a live reference.
type ReplyRef struct {
	ID             uuid.UUID `json:"id"`
	SenderName     string    `json:"sender_name"`
	ContentSnippet string    `json:"content_snippet"`
}

type ForwardRef struct {
	OriginalSender string `json:"original_sender"`
}

type Message struct {
	ID             uuid.UUID    `json:"id"`
	ClientID       string       `json:"client_id,omitempty"`
	ConversationID string       `json:"conversation_id"`
	SenderID       string       `json:"sender_id"`
	Content        string       `json:"content"`
	Media          []Attachment `json:"media,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	SentAt         *time.Time   `json:"sent_at,omitempty"`
	ReadBy         []string     `json:"read_by"`
	ReplyTo        *ReplyRef    `json:"reply_to,omitempty"`
	Forwarded      *ForwardRef  `json:"forwarded,omitempty"`
	IsSystem       bool         `json:"is_system"`
	Edited         bool         `json:"edited"`
}

func (m *Message) HasReadBy(identity string) bool {
	return slices.Contains(m.ReadBy, identity)
}

// MarkReadBy adds identity to ReadBy and reports whether it changed.
func (m *Message) MarkReadBy(identity string) bool {
	if m.HasReadBy(identity) {
		return false
	}
	m.ReadBy = append(m.ReadBy, identity)
	slices.Sort(m.ReadBy)
	return true
}

// PreviewText is the one-line summary shown in conversation lists.
func (m *Message) PreviewText() string {
	if text := strings.TrimSpace(m.Content); text != "" {
		return Snippet(text)
	}
	if len(m.Media) == 0 {
		return ""
	}
	switch m.Media[0].Kind {
	case MediaImage:
		return "[photo]"
	case MediaVideo:
		return "[video]"
	case MediaAudio:
		return "[voice message]"
	default:
		return "[file] " + m.Media[0].Name
	}
}

// Snippet shortens text to a single line of at most snippetLength runes.
func Snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= snippetLength {
		return text
	}
	r := []rune(text)
	return string(r[:snippetLength-1]) + "…"
}

func (m *Message) Clone() Message {
	out := *m
	out.Media = slices.Clone(m.Media)
	out.ReadBy = slices.Clone(m.ReadBy)
	if m.SentAt != nil {
		t := *m.SentAt
		out.SentAt = &t
	}
	if m.ReplyTo != nil {
		r := *m.ReplyTo
		out.ReplyTo = &r
	}
	if m.Forwarded != nil {
		f := *m.Forwarded
		out.Forwarded = &f
	}
	return out
}
