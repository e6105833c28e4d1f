package model

import "time"

// ChatMessage 创建后不再修改
type ChatMessage struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	IsAI       bool      `json:"isAI"`
	Timestamp  time.Time `json:"timestamp"`
	Confidence *int      `json:"confidence,omitempty"`
	HTML       string    `json:"html,omitempty"`
}

// Role 转换为 chat/completions 的角色
func (m ChatMessage) Role() string {
	if m.IsAI {
		return "assistant"
	}
	return "user"
}

const (
	ConversationActive   = "active"
	ConversationArchived = "archived"
)

// Conversation 只追加消息，按 UserID 松散归属
type Conversation struct {
	ID        string        `json:"id"`
	UserID    string        `json:"userId"`
	Title     string        `json:"title"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Status    string        `json:"status"`
	Tags      []string      `json:"tags"`
}

func IntPtr(v int) *int {
	return &v
}
