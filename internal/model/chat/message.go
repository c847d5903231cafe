package chat

import "time"

// Role identifies who authored a message.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// TimestampLayout is fixed width so lexical order matches chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// Message is one immutable entry of a session transcript.
type Message struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// NewMessage stamps a message with the provided instant.
func NewMessage(role Role, content string, at time.Time) Message {
	return Message{
		Role:      role,
		Content:   content,
		Timestamp: FormatTimestamp(at),
	}
}

// FormatTimestamp renders t as an ISO-8601 UTC string.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// legacyLayout matches naive local-time stamps found in older documents.
const legacyLayout = "2006-01-02T15:04:05.999999999"

// ParseTimestamp reads stamps written by FormatTimestamp as well as naive
// ISO-8601 strings, which are taken as local time.
func ParseTimestamp(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation(legacyLayout, s, time.Local); err == nil {
		return t, true
	}
	return time.Time{}, false
}
