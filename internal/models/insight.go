package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Insight is a short, asynchronously generated note surfaced to the user
// outside the direct conversation. Write-once; only IsRead is mutated.
type Insight struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"userId" json:"user_id"`
	Text      string             `bson:"text" json:"text"`
	IsRead    bool               `bson:"isRead" json:"is_read"`
	CreatedAt time.Time          `bson:"createdAt" json:"created_at"`
}
