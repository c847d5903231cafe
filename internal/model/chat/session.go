package chat

// Session is a named conversation owning its ordered messages.
type Session struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt string    `json:"created_at"`
	Messages  []Message `json:"messages"`
}

// Clone returns a copy that shares no message storage with s.
func (s Session) Clone() Session {
	s.Messages = append(make([]Message, 0, len(s.Messages)), s.Messages...)
	return s
}
