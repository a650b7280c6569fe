package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"fintack/internal/database"
	"fintack/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ChatLogService persists the append-only conversation history.
type ChatLogService struct {
	collection *mongo.Collection
}

// NewChatLogService creates a new chat log service
func NewChatLogService(mongodb *database.MongoDB) *ChatLogService {
	return &ChatLogService{
		collection: mongodb.Collection(database.CollectionChatMessages),
	}
}

// Append persists one message and stamps CreatedAt
func (s *ChatLogService) Append(ctx context.Context, msg *models.ChatMessage) error {
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now()

	if _, err := s.collection.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}
	return nil
}

// History returns the user's most recent messages in chronological order,
// capped at limit (0 means no cap). The window must track the tail of the
// conversation, so the query runs newest-first and the result is reversed
// back to the order turns are replayed to the model.
func (s *ChatLogService) History(ctx context.Context, userID string, limit int64) ([]models.ChatMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := s.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []models.ChatMessage
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode chat history: %w", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	log.Printf("💬 [CHAT-LOG] Loaded %d messages for user %s", len(messages), userID)
	return messages, nil
}
