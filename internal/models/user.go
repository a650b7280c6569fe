package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommunicationStyle selects how the mentor addresses the user
type CommunicationStyle string

const (
	StyleDirective  CommunicationStyle = "directive"
	StyleSupportive CommunicationStyle = "supportive"
	StyleUnknown    CommunicationStyle = "unknown"
)

// UserProfile represents a user's coaching profile.
// Created at first sign-in, never deleted by this service.
type UserProfile struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID                 string             `bson:"userId" json:"user_id"`
	XP                     int64              `bson:"xp" json:"xp"`
	CommunicationStyle     CommunicationStyle `bson:"communicationStyle" json:"communication_style"`
	HasCompletedOnboarding bool               `bson:"hasCompletedOnboarding" json:"has_completed_onboarding"`
	EmergencyFund          float64            `bson:"emergencyFund" json:"emergency_fund"`
	HealthScore            *HealthScore       `bson:"healthScore,omitempty" json:"health_score,omitempty"`
	CreatedAt              time.Time          `bson:"createdAt" json:"created_at"`
}

// HealthScore is the last snapshot computed by the weekly scoring job
type HealthScore struct {
	Score      float64   `bson:"score" json:"score"`
	ComputedAt time.Time `bson:"computedAt" json:"computed_at"`
}
