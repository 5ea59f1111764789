package validator

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"
)

const (
	MaxContentLength = 4000
	MaxAttachments   = 10
	MaxBulkItems     = 100
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

// ValidateEmail checks that email is a bare address usable as a messaging identity.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

// AttachmentInput is the unresolved media descriptor accepted from clients.
type AttachmentInput struct {
	Type     string  `json:"type"`
	MimeType string  `json:"mimeType"`
	URL      string  `json:"url"`
	Name     string  `json:"name"`
	Size     int64   `json:"size"`
	Duration float64 `json:"duration"`
}

func ValidateMessage(content string, media []AttachmentInput) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(content) == "" && len(media) == 0 {
		errs.Add("content", "Message content or media is required")
	} else if utf8.RuneCountInString(content) > MaxContentLength {
		errs.Add("content", fmt.Sprintf("Message is too long (max %d characters)", MaxContentLength))
	}

	if len(media) > MaxAttachments {
		errs.Add("media", fmt.Sprintf("At most %d attachments are allowed", MaxAttachments))
	}
	for i, m := range media {
		field := fmt.Sprintf("media[%d]", i)
		u, err := url.Parse(m.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs.Add(field, "Attachment URL must be an absolute http(s) URL")
			continue
		}
		if m.Size < 0 {
			errs.Add(field, "Attachment size cannot be negative")
		} else if m.Duration < 0 {
			errs.Add(field, "Attachment duration cannot be negative")
		}
	}

	return errs
}

func ValidateBulk(ids []string) ValidationErrors {
	errs := make(ValidationErrors)
	if len(ids) == 0 {
		errs.Add("ids", "At least one message id is required")
	} else if len(ids) > MaxBulkItems {
		errs.Add("ids", fmt.Sprintf("At most %d messages per request", MaxBulkItems))
	}
	return errs
}
