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
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserService owns the users collection: profiles, XP and traits
type UserService struct {
	mongodb    *database.MongoDB
	collection *mongo.Collection
}

// NewUserService creates a new user service
func NewUserService(mongodb *database.MongoDB) *UserService {
	return &UserService{
		mongodb:    mongodb,
		collection: mongodb.Collection(database.CollectionUsers),
	}
}

// EnsureProfile returns the user's profile, creating it on first sight
func (s *UserService) EnsureProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	if userID == "" {
		return nil, apperrors.Unauthenticated("Authentication required")
	}

	update := bson.M{
		"$setOnInsert": bson.M{
			"userId":                 userID,
			"xp":                     int64(0),
			"communicationStyle":     models.StyleUnknown,
			"hasCompletedOnboarding": false,
			"emergencyFund":          float64(0),
			"createdAt":              time.Now(),
		},
	}

	result := s.collection.FindOneAndUpdate(
		ctx,
		bson.M{"userId": userID},
		update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)

	var profile models.UserProfile
	if err := result.Decode(&profile); err != nil {
		return nil, apperrors.Internal("Failed to load user profile", err)
	}
	return &profile, nil
}

// Get returns the user's profile or NotFound
func (s *UserService) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&profile)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, apperrors.Internal("Failed to load user profile", err)
	}
	return &profile, nil
}

// CreditXP adds points to the user's total. The caller may pass a session
// context so the credit joins a transaction with a mission update.
func (s *UserService) CreditXP(ctx context.Context, userID string, points int64) error {
	result, err := s.collection.UpdateOne(
		ctx,
		bson.M{"userId": userID},
		bson.M{"$inc": bson.M{"xp": points}},
	)
	if err != nil {
		return fmt.Errorf("failed to credit xp: %w", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NotFound("User not found")
	}
	return nil
}

// SetOnboardingComplete marks the onboarding flow as finished
func (s *UserService) SetOnboardingComplete(ctx context.Context, userID string) error {
	_, err := s.collection.UpdateOne(
		ctx,
		bson.M{"userId": userID},
		bson.M{"$set": bson.M{"hasCompletedOnboarding": true}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return apperrors.Internal("Failed to update user profile", err)
	}
	log.Printf("✅ [USER] User %s has completed onboarding", userID)
	return nil
}

// SetCommunicationStyle records the user's communication-style trait
func (s *UserService) SetCommunicationStyle(ctx context.Context, userID string, style models.CommunicationStyle) error {
	switch style {
	case models.StyleDirective, models.StyleSupportive, models.StyleUnknown:
	default:
		return apperrors.InvalidArgument("Unknown communication style")
	}

	_, err := s.collection.UpdateOne(
		ctx,
		bson.M{"userId": userID},
		bson.M{"$set": bson.M{"communicationStyle": style}},
	)
	if err != nil {
		return apperrors.Internal("Failed to update communication style", err)
	}
	return nil
}

// UsersCollection exposes the raw collection for transactional updates
func (s *UserService) UsersCollection() *mongo.Collection {
	return s.collection
}

// AllUserIDs returns every known user id (weekly checkup iteration)
func (s *UserService) AllUserIDs(ctx context.Context) ([]string, error) {
	cursor, err := s.collection.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"userId": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			UserID string `bson:"userId"`
		}
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		ids = append(ids, doc.UserID)
	}
	return ids, cursor.Err()
}
