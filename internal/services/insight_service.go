package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"fintack/internal/apperrors"
	"fintack/internal/database"
	"fintack/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InsightService stores proactive notes delivered outside the chat turn
type InsightService struct {
	collection *mongo.Collection
}

// NewInsightService creates a new insight service
func NewInsightService(mongodb *database.MongoDB) *InsightService {
	return &InsightService{
		collection: mongodb.Collection(database.CollectionInsights),
	}
}

// Create persists a new unread insight for the user
func (s *InsightService) Create(ctx context.Context, userID, text string) (*models.Insight, error) {
	if text == "" {
		return nil, apperrors.InvalidArgument("insight text is required")
	}

	insight := &models.Insight{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Text:      text,
		IsRead:    false,
		CreatedAt: time.Now(),
	}

	if _, err := s.collection.InsertOne(ctx, insight); err != nil {
		return nil, fmt.Errorf("failed to create insight: %w", err)
	}

	log.Printf("💡 [INSIGHT] Created insight for user %s", userID)
	return insight, nil
}

// List returns the user's insights, newest first
func (s *InsightService) List(ctx context.Context, userID string, limit int64) ([]models.Insight, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := s.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list insights: %w", err)
	}
	defer cursor.Close(ctx)

	var insights []models.Insight
	if err := cursor.All(ctx, &insights); err != nil {
		return nil, fmt.Errorf("failed to decode insights: %w", err)
	}
	return insights, nil
}

// MarkRead flags a single insight as read
func (s *InsightService) MarkRead(ctx context.Context, userID, insightID string) error {
	oid, err := primitive.ObjectIDFromHex(insightID)
	if err != nil {
		return apperrors.InvalidArgument("invalid insight id")
	}

	result, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": oid, "userId": userID},
		bson.M{"$set": bson.M{"isRead": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark insight read: %w", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NotFound("insight not found")
	}
	return nil
}
