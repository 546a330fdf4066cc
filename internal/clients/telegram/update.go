package telegram

// Update is the subset of a Telegram webhook delivery this bot consumes.
// Unknown fields are ignored on decode.
type Update struct {
	UpdateID int64            `json:"update_id"`
	Message  *IncomingMessage `json:"message,omitempty"`
}

type IncomingMessage struct {
	MessageID int64  `json:"message_id"`
	Date      int64  `json:"date"`
	Text      string `json:"text,omitempty"`
	Chat      Chat   `json:"chat"`
	From      *User  `json:"from,omitempty"`
}

type Chat struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
}

// Handle returns the best-known username for the sender: the chat username
// first, then the from username.
func (u *Update) Handle() string {
	if u.Message == nil {
		return ""
	}
	if u.Message.Chat.Username != "" {
		return u.Message.Chat.Username
	}
	if u.Message.From != nil {
		return u.Message.From.Username
	}
	return ""
}
