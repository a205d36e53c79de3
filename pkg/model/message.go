package model

import "github.com/google/uuid"

type MessageID string

// NewMessageID generates a new unique MessageID
func NewMessageID() MessageID {
	return MessageID(uuid.New().String())
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// GroundingChunk is a citation reference returned alongside a generated
// answer, pointing at the supporting document excerpt.
type GroundingChunk struct {
	Title string
	Text  string
	URI   string
}

// ChatMessage is one turn of the conversation. The transcript is append-only
// while chatting and fully reset when the chat ends.
type ChatMessage struct {
	ID     MessageID
	Role   Role
	Parts  []string
	Chunks []GroundingChunk
}

// NewUserMessage builds a user turn from raw input text.
func NewUserMessage(text string) *ChatMessage {
	return &ChatMessage{
		ID:    NewMessageID(),
		Role:  RoleUser,
		Parts: []string{text},
	}
}

// NewModelMessage builds a model turn with optional citations.
func NewModelMessage(text string, chunks []GroundingChunk) *ChatMessage {
	return &ChatMessage{
		ID:     NewMessageID(),
		Role:   RoleModel,
		Parts:  []string{text},
		Chunks: chunks,
	}
}

// Text joins all parts of the message into a single string.
func (m *ChatMessage) Text() string {
	switch len(m.Parts) {
	case 0:
		return ""
	case 1:
		return m.Parts[0]
	}
	out := m.Parts[0]
	for _, p := range m.Parts[1:] {
		out += "\n" + p
	}
	return out
}
