package domain

import (
	"bytes"
	"slices"
	"strconv"
	"strings"
	"time"
)

// orderTime picks the sort time of a message: the store timestamp, then the
// client timestamp, then the time embedded in a v7 id. Messages with none of
// these sort as the oldest possible value.
func orderTime(m *Message) time.Time {
	if !m.CreatedAt.IsZero() {
		return m.CreatedAt
	}
	if m.SentAt != nil && !m.SentAt.IsZero() {
		return *m.SentAt
	}
	if m.ID.Version() == 7 {
		sec, nsec := m.ID.Time().UnixTime()
		return time.Unix(sec, nsec)
	}
	return time.Time{}
}

// CompareMessages orders messages oldest first. Distinct messages only compare
// equal when they share both id and client id.
func CompareMessages(a, b *Message) int {
	if c := orderTime(a).Compare(orderTime(b)); c != 0 {
		return c
	}
	if c := bytes.Compare(a.ID[:], b.ID[:]); c != 0 {
		return c
	}
	return strings.Compare(a.ClientID, b.ClientID)
}

func SortMessages(msgs []Message) {
	slices.SortStableFunc(msgs, func(a, b Message) int {
		return CompareMessages(&a, &b)
	})
}

// ParseTimestamp reads a wire timestamp: RFC 3339, unix seconds or unix
// milliseconds. Malformed input yields the zero time and false.
func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, true
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return time.Time{}, false
	}
	// Anything past year ~2286 in seconds is treated as milliseconds.
	if n > 1e10 {
		return time.UnixMilli(n), true
	}
	return time.Unix(n, 0), true
}
