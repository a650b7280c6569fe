package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"fintack/internal/apperrors"
	"fintack/internal/database"
	"fintack/internal/llm"
	"fintack/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const advanceFallbackText = "Misi lo udah selesai, mantap! 🔥 Belum ada misi lanjutan otomatis — tanya mentor lo langsung buat misi berikutnya."

// MissionService owns the mission lifecycle: creation (from the tool-calling
// protocol and the advancement side turn), completion with XP credit, and
// the best-effort advancement routine itself.
type MissionService struct {
	mongodb       *database.MongoDB
	collection    *mongo.Collection
	users         *UserService
	snapshots     *SnapshotService
	insights      *InsightService
	metrics       *Metrics
	generator     llm.Generator
	advancePolicy llm.ConversationPolicy
}

// NewMissionService creates a new mission service
func NewMissionService(
	mongodb *database.MongoDB,
	users *UserService,
	snapshots *SnapshotService,
	insights *InsightService,
	metrics *Metrics,
	generator llm.Generator,
	advancePolicy llm.ConversationPolicy,
) *MissionService {
	return &MissionService{
		mongodb:       mongodb,
		collection:    mongodb.Collection(database.CollectionMissions),
		users:         users,
		snapshots:     snapshots,
		insights:      insights,
		metrics:       metrics,
		generator:     generator,
		advancePolicy: advancePolicy,
	}
}

// missionToolArgs mirrors the createMission tool schema. Numbers arrive as
// JSON floats regardless of the declared type.
type missionToolArgs struct {
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	XPReward         float64 `json:"xpReward"`
	LevelRequirement float64 `json:"levelRequirement"`
	PathName         string  `json:"pathName"`
	Tangga           float64 `json:"tangga"`
	SubStep          float64 `json:"subStep"`
}

// MissionFromToolArgs decodes createMission tool arguments into a mission.
// Malformed JSON is an InvalidArgument; field validation happens in Create.
func MissionFromToolArgs(raw json.RawMessage) (*models.Mission, error) {
	var args missionToolArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, apperrors.InvalidArgument("malformed mission arguments")
	}
	return &models.Mission{
		Title:            strings.TrimSpace(args.Title),
		Description:      strings.TrimSpace(args.Description),
		XPReward:         int64(args.XPReward),
		LevelRequirement: int(args.LevelRequirement),
		PathName:         strings.TrimSpace(args.PathName),
		Tangga:           int(args.Tangga),
		SubStep:          int(args.SubStep),
	}, nil
}

// Create validates and persists a mission with status active. At most one
// mission may be active per path; a second create on the same path fails
// before writing.
func (s *MissionService) Create(ctx context.Context, userID string, mission *models.Mission) (*models.Mission, error) {
	if mission.Title == "" || mission.Description == "" || mission.PathName == "" {
		return nil, apperrors.InvalidArgument("mission title, description and pathName are required")
	}
	if mission.XPReward <= 0 {
		mission.XPReward = models.DefaultMissionReward
	}
	if mission.LevelRequirement <= 0 {
		mission.LevelRequirement = 1
	}

	count, err := s.collection.CountDocuments(ctx, bson.M{
		"userId":   userID,
		"pathName": mission.PathName,
		"status":   models.MissionActive,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check active missions: %w", err)
	}
	if count > 0 {
		return nil, apperrors.InvalidArgument(fmt.Sprintf("an active mission already exists on path %q", mission.PathName))
	}

	mission.ID = primitive.NewObjectID()
	mission.UserID = userID
	mission.Status = models.MissionActive
	mission.CreatedAt = time.Now()
	mission.CompletedAt = nil

	if _, err := s.collection.InsertOne(ctx, mission); err != nil {
		return nil, fmt.Errorf("failed to create mission: %w", err)
	}

	log.Printf("🎯 [MISSION] Created %q on path %s (tangga %d.%d) for user %s",
		mission.Title, mission.PathName, mission.Tangga, mission.SubStep, userID)
	return mission, nil
}

// Get returns a single mission owned by the user
func (s *MissionService) Get(ctx context.Context, userID, missionID string) (*models.Mission, error) {
	oid, err := primitive.ObjectIDFromHex(missionID)
	if err != nil {
		return nil, apperrors.InvalidArgument("invalid mission id")
	}

	var mission models.Mission
	err = s.collection.FindOne(ctx, bson.M{"_id": oid, "userId": userID}).Decode(&mission)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFound("mission not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load mission: %w", err)
	}
	return &mission, nil
}

// List returns the user's missions, newest first
func (s *MissionService) List(ctx context.Context, userID string) ([]models.Mission, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list missions: %w", err)
	}
	defer cursor.Close(ctx)

	var missions []models.Mission
	if err := cursor.All(ctx, &missions); err != nil {
		return nil, fmt.Errorf("failed to decode missions: %w", err)
	}
	return missions, nil
}

// Complete transitions a mission to completed and credits the reward as one
// atomic unit. Only an active mission transitions; completing an already
// completed mission is a no-op success, never a double credit.
func (s *MissionService) Complete(ctx context.Context, userID, missionID string, rewardOverride int64) (*models.Mission, error) {
	oid, err := primitive.ObjectIDFromHex(missionID)
	if err != nil {
		return nil, apperrors.InvalidArgument("invalid mission id")
	}

	var completed models.Mission
	txnErr := s.mongodb.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		now := time.Now()
		result := s.collection.FindOneAndUpdate(sessCtx,
			bson.M{"_id": oid, "userId": userID, "status": models.MissionActive},
			bson.M{"$set": bson.M{"status": models.MissionCompleted, "completedAt": now}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		)
		if err := result.Decode(&completed); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				// Not active: distinguish already-completed from missing
				var existing models.Mission
				findErr := s.collection.FindOne(sessCtx, bson.M{"_id": oid, "userId": userID}).Decode(&existing)
				if errors.Is(findErr, mongo.ErrNoDocuments) {
					return apperrors.NotFound("mission not found")
				}
				if findErr != nil {
					return fmt.Errorf("failed to load mission: %w", findErr)
				}
				completed = existing
				return nil
			}
			return fmt.Errorf("failed to complete mission: %w", err)
		}

		reward := completed.XPReward
		if rewardOverride > 0 {
			reward = rewardOverride
		}
		if reward <= 0 {
			reward = models.DefaultMissionReward
		}

		updateResult, err := s.users.UsersCollection().UpdateOne(sessCtx,
			bson.M{"userId": userID},
			bson.M{"$inc": bson.M{"xp": reward}},
		)
		if err != nil {
			return fmt.Errorf("failed to credit XP: %w", err)
		}
		if updateResult.MatchedCount == 0 {
			return apperrors.NotFound("user profile not found")
		}

		log.Printf("✅ [MISSION] Completed %q for user %s (+%d XP)", completed.Title, userID, reward)
		return nil
	})
	if txnErr != nil {
		return nil, txnErr
	}

	s.snapshots.Invalidate(userID)
	return &completed, nil
}

// Advance runs the post-completion side turn: a fresh financial summary and
// the just-completed cursor go to the model, which may create exactly one
// follow-up mission. Best-effort; all failures are logged, none surface to
// the completion caller.
func (s *MissionService) Advance(ctx context.Context, userID, pathName string, completedTangga, completedSubStep int) {
	ctx, cancel := context.WithTimeout(ctx, 90*time.Second)
	defer cancel()

	summary, err := s.snapshots.Cashflow(ctx, userID, 90)
	if err != nil {
		log.Printf("⚠️ [ADVANCE] Failed to build financial summary for user %s: %v", userID, err)
		return
	}

	var prompt strings.Builder
	prompt.WriteString("The user just completed a mission.\n")
	prompt.WriteString(fmt.Sprintf("- Path: %s\n", pathName))
	prompt.WriteString(fmt.Sprintf("- Completed stage (tangga): %d, sub-step: %d\n", completedTangga, completedSubStep))
	prompt.WriteString("FINANCIAL SUMMARY (last 90 days):\n")
	prompt.WriteString(fmt.Sprintf("- Average daily income: IDR %.0f\n", summary.AvgDailyIncome))
	prompt.WriteString(fmt.Sprintf("- Average daily expense: IDR %.0f\n", summary.AvgDailyExpense))
	prompt.WriteString(fmt.Sprintf("- Net worth: IDR %.0f\n", summary.NetWorth))
	prompt.WriteString("\nCreate the single best follow-up mission on this path, or decline if none is appropriate.")

	resp, err := s.generator.Generate(ctx, s.advancePolicy, []llm.Message{
		{Role: "user", Content: prompt.String()},
	})
	if err != nil {
		log.Printf("⚠️ [ADVANCE] Generation failed for user %s: %v", userID, err)
		return
	}

	outcome, err := s.advancePolicy.DecodeOutcome(resp)
	if err != nil {
		log.Printf("⚠️ [ADVANCE] Malformed response for user %s: %v", userID, err)
		return
	}

	switch o := outcome.(type) {
	case llm.ToolRequest:
		mission, err := MissionFromToolArgs(o.Args)
		if err != nil {
			log.Printf("⚠️ [ADVANCE] Bad mission arguments for user %s: %v", userID, err)
			return
		}
		if mission.PathName == "" {
			mission.PathName = pathName
		}
		if _, err := s.Create(ctx, userID, mission); err != nil {
			log.Printf("⚠️ [ADVANCE] Failed to create follow-up mission for user %s: %v", userID, err)
			return
		}
		log.Printf("🚀 [ADVANCE] Follow-up mission created for user %s on path %s", userID, pathName)

	case llm.FinalText:
		// Model declined: leave a signal instead of silence
		if _, err := s.insights.Create(ctx, userID, advanceFallbackText); err != nil {
			log.Printf("⚠️ [ADVANCE] Failed to store fallback insight for user %s: %v", userID, err)
			return
		}
		if s.metrics != nil {
			s.metrics.Insights.WithLabelValues("advance_fallback").Inc()
		}
		log.Printf("💡 [ADVANCE] Model declined a follow-up for user %s, fallback insight stored", userID)
	}
}
