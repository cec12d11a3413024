package app

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"langquiz-service/internal/domain"
)

const (
	DefaultFeedLimit = 10
	MaxFeedLimit     = 50
)

// Cursor is the feed sort key of the last item on a page.
type Cursor struct {
	PublishedAt time.Time
	ID          int64
}

// EncodeCursor builds the opaque token for the position of c.
func EncodeCursor(c Cursor) string {
	raw := strconv.FormatInt(c.PublishedAt.UTC().UnixMicro(), 10) + ":" + strconv.FormatInt(c.ID, 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token produced by EncodeCursor. Anything else,
// including the empty string, yields ok=false.
func DecodeCursor(token string) (Cursor, bool) {
	if token == "" {
		return Cursor{}, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, false
	}
	micros, id, found := strings.Cut(string(raw), ":")
	if !found {
		return Cursor{}, false
	}
	us, err := strconv.ParseInt(micros, 10, 64)
	if err != nil {
		return Cursor{}, false
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return Cursor{}, false
	}
	return Cursor{PublishedAt: time.UnixMicro(us).UTC(), ID: n}, true
}

// CursorFor returns the cursor positioned at content.
func CursorFor(content domain.VideoContent) Cursor {
	c := Cursor{ID: content.ID}
	if content.PublishedAt != nil {
		c.PublishedAt = content.PublishedAt.UTC()
	}
	return c
}

// Precedes reports whether content sorts strictly after the cursor position in
// (published_at DESC, id DESC) order.
func (c Cursor) Precedes(content domain.VideoContent) bool {
	if content.PublishedAt == nil {
		return false
	}
	at := content.PublishedAt.UTC()
	return at.Before(c.PublishedAt) || (at.Equal(c.PublishedAt) && content.ID < c.ID)
}

// ClampFeedLimit bounds a requested page size to [1, MaxFeedLimit].
func ClampFeedLimit(limit int) int {
	switch {
	case limit < 1:
		return 1
	case limit > MaxFeedLimit:
		return MaxFeedLimit
	default:
		return limit
	}
}
