package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MissionStatus is the lifecycle state of a mission
type MissionStatus string

const (
	MissionLocked    MissionStatus = "locked"
	MissionActive    MissionStatus = "active"
	MissionCompleted MissionStatus = "completed"
)

// DefaultMissionReward is credited when no reward is supplied
const DefaultMissionReward = 100

// Mission is a discrete, rewarded task within a named progression path.
// Tangga (coarse stage) and SubStep (fine step) form the path cursor used
// to resume dynamic generation after completion.
type Mission struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID           string             `bson:"userId" json:"user_id"`
	Title            string             `bson:"title" json:"title"`
	Description      string             `bson:"description" json:"description"`
	XPReward         int64              `bson:"xpReward" json:"xp_reward"`
	LevelRequirement int                `bson:"levelRequirement" json:"level_requirement"`
	Status           MissionStatus      `bson:"status" json:"status"`
	PathName         string             `bson:"pathName" json:"path_name"`
	Tangga           int                `bson:"tangga" json:"tangga"`
	SubStep          int                `bson:"subStep" json:"sub_step"`
	CreatedAt        time.Time          `bson:"createdAt" json:"created_at"`
	CompletedAt      *time.Time         `bson:"completedAt,omitempty" json:"completed_at,omitempty"`
}
