package chat

import "time"

// Role tags who produced a conversation entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Entry is one turn of the session log. System entries are shown to the
// human only and never reach the model.
type Entry struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Visible reports whether the entry belongs to the user/assistant dialogue.
func (e Entry) Visible() bool {
	return e.Role == RoleUser || e.Role == RoleAssistant
}
