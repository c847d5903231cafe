package store

import (
	"bytes"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"github.com/zhouzirui/agent-chat/backend/internal/model/chat"
)

const indent = "    "

func encode(sessions Sessions) ([]byte, error) {
	if sessions == nil {
		sessions = Sessions{}
	}
	data, err := sonic.ConfigStd.MarshalIndent(sessions, "", indent)
	if err != nil {
		return nil, errors.Wrap(err, "encode sessions")
	}
	return data, nil
}

// decode parses a stored document. Blank input is an empty map; anything
// that is not a JSON object of well-formed sessions reports ErrCorrupt.
func decode(data []byte) (Sessions, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Sessions{}, nil
	}

	var raw map[string]*chat.Session
	if err := sonic.ConfigStd.Unmarshal(data, &raw); err != nil {
		return Sessions{}, errors.Wrapf(ErrCorrupt, "%v", err)
	}

	sessions := make(Sessions, len(raw))
	for key, session := range raw {
		if err := validate(session); err != nil {
			return Sessions{}, errors.Wrapf(ErrCorrupt, "session %q: %v", key, err)
		}
		if session.Messages == nil {
			session.Messages = []chat.Message{}
		}
		sessions[key] = *session
	}
	return sessions, nil
}

func validate(session *chat.Session) error {
	switch {
	case session == nil:
		return errors.New("null entry")
	case session.ID == "":
		return errors.New("missing id")
	case session.CreatedAt == "":
		return errors.New("missing created_at")
	}
	for i, msg := range session.Messages {
		if msg.Role != chat.RoleUser && msg.Role != chat.RoleBot {
			return errors.Errorf("message %d has role %q", i, msg.Role)
		}
	}
	return nil
}
