package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chat message roles
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// FunctionCall is a capability invocation requested by the model
type FunctionCall struct {
	Name string                 `bson:"name" json:"name"`
	Args map[string]interface{} `bson:"args" json:"args"`
}

// FunctionResponse is the host's synthetic result for an executed capability
type FunctionResponse struct {
	Name     string                 `bson:"name" json:"name"`
	Response map[string]interface{} `bson:"response" json:"response"`
}

// MessagePart is one content part of a chat message. Exactly one field is set.
type MessagePart struct {
	Text             string            `bson:"text,omitempty" json:"text,omitempty"`
	FunctionCall     *FunctionCall     `bson:"functionCall,omitempty" json:"function_call,omitempty"`
	FunctionResponse *FunctionResponse `bson:"functionResponse,omitempty" json:"function_response,omitempty"`
}

// ChatMessage is one append-only entry in a user's conversation history.
// Ordering by CreatedAt is the sole consistency requirement: history must be
// read back in that order when reconstructing context for the next turn.
type ChatMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"userId" json:"user_id"`
	Role      string             `bson:"role" json:"role"` // "user" or "model"
	Parts     []MessagePart      `bson:"parts" json:"parts"`
	AudioURLs []string           `bson:"audioUrls,omitempty" json:"audio_urls,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"created_at"`
}

// FirstText returns the first text part, or empty string
func (m ChatMessage) FirstText() string {
	for _, p := range m.Parts {
		if p.Text != "" {
			return p.Text
		}
	}
	return ""
}
