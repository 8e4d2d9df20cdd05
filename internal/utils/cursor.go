package utils

import (
	"strings"
	"time"
)

const cursorSep = "~"

// Cursor marks the last item a client has seen in a time-ordered feed.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// EncodeCursor renders the token for the row at (createdAt, id).
func EncodeCursor(createdAt time.Time, id string) string {
	ts := createdAt.UTC().Format(time.RFC3339Nano)
	if id == "" {
		return ts
	}
	return ts + cursorSep + id
}

func (c *Cursor) String() string {
	if c == nil {
		return ""
	}
	return EncodeCursor(c.CreatedAt, c.ID)
}

// ParseCursor decodes a token. Empty or malformed input yields nil, which
// callers treat as "start from the newest item". A bare timestamp without
// an id is accepted.
func ParseCursor(token string) *Cursor {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	ts, id, _ := strings.Cut(token, cursorSep)
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil
	}
	return &Cursor{CreatedAt: t.UTC(), ID: id}
}
