package services

import (
	"context"
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

// XP credited for logging a transaction
const transactionXP = 5

const anomalyFallbackText = "Ada pengeluaran besar terdeteksi. Cek lagi keuangan lo."

// TransactionService owns the transactions collection and the real-time
// anomaly detector that reacts to large expenses.
type TransactionService struct {
	collection      *mongo.Collection
	users           *UserService
	snapshots       *SnapshotService
	insights        *InsightService
	metrics         *Metrics
	generator       llm.Generator
	anomalyPolicy   llm.ConversationPolicy
	anomalyLimit    float64
	anomalyDisabled bool
}

// NewTransactionService creates a new transaction service. anomalyLimit is
// the expense amount above which an insight is generated; 0 disables the
// detector.
func NewTransactionService(
	mongodb *database.MongoDB,
	users *UserService,
	snapshots *SnapshotService,
	insights *InsightService,
	metrics *Metrics,
	generator llm.Generator,
	anomalyPolicy llm.ConversationPolicy,
	anomalyLimit float64,
) *TransactionService {
	return &TransactionService{
		collection:      mongodb.Collection(database.CollectionTransactions),
		users:           users,
		snapshots:       snapshots,
		insights:        insights,
		metrics:         metrics,
		generator:       generator,
		anomalyPolicy:   anomalyPolicy,
		anomalyLimit:    anomalyLimit,
		anomalyDisabled: anomalyLimit <= 0,
	}
}

// Add persists a transaction and credits the logging XP. The anomaly check
// runs in the background: its failure never affects the caller.
func (s *TransactionService) Add(ctx context.Context, userID string, tx *models.Transaction) (*models.Transaction, error) {
	if tx.Description == "" || tx.Category == "" {
		return nil, apperrors.InvalidArgument("description and category are required")
	}
	if tx.Amount <= 0 {
		return nil, apperrors.InvalidArgument("amount must be positive")
	}
	if tx.Type != models.TransactionIncome && tx.Type != models.TransactionExpense {
		return nil, apperrors.InvalidArgument("type must be 'income' or 'expense'")
	}

	tx.ID = primitive.NewObjectID()
	tx.UserID = userID
	tx.CreatedAt = time.Now()

	if _, err := s.collection.InsertOne(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to add transaction: %w", err)
	}

	if err := s.users.CreditXP(ctx, userID, transactionXP); err != nil {
		log.Printf("⚠️ [TRANSACTION] Failed to credit XP for user %s: %v", userID, err)
	}
	s.snapshots.Invalidate(userID)

	if !s.anomalyDisabled && tx.Type == models.TransactionExpense && tx.Amount > s.anomalyLimit {
		go s.detectAnomaly(context.Background(), userID, tx)
	}

	log.Printf("💸 [TRANSACTION] Added %s of %.0f for user %s (+%d XP)", tx.Type, tx.Amount, userID, transactionXP)
	return tx, nil
}

// ListRecent returns the user's transactions, newest first
func (s *TransactionService) ListRecent(ctx context.Context, userID string, limit int64) ([]models.Transaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := s.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var txs []models.Transaction
	if err := cursor.All(ctx, &txs); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}
	return txs, nil
}

// Since returns the user's transactions created at or after the given time
func (s *TransactionService) Since(ctx context.Context, userID string, since time.Time) ([]models.Transaction, error) {
	cursor, err := s.collection.Find(ctx, bson.M{
		"userId":    userID,
		"createdAt": bson.M{"$gte": since},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var txs []models.Transaction
	if err := cursor.All(ctx, &txs); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}
	return txs, nil
}

// detectAnomaly generates a tough-love insight for a large expense.
// Runs detached from the request; errors are logged, never surfaced.
func (s *TransactionService) detectAnomaly(ctx context.Context, userID string, tx *models.Transaction) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	log.Printf("🚨 [ANOMALY] Detected for user %s: expense of %.0f", userID, tx.Amount)

	fundStatus := "Masih Kosong"
	if profile, err := s.users.Get(ctx, userID); err == nil && profile.EmergencyFund > 0 {
		fundStatus = "Ada"
	}

	var prompt strings.Builder
	prompt.WriteString("A user just made an anomalous transaction. Give them a short, provocative \"tough love\" insight in \"Mentor Mode\".\n")
	prompt.WriteString("USER CONTEXT:\n")
	prompt.WriteString(fmt.Sprintf("- Transaction Description: %s\n", tx.Description))
	prompt.WriteString(fmt.Sprintf("- Transaction Amount: IDR %.0f\n", tx.Amount))
	prompt.WriteString(fmt.Sprintf("- Transaction Category: %s\n", tx.Category))
	prompt.WriteString(fmt.Sprintf("- Emergency Fund Status: %s\n", fundStatus))
	prompt.WriteString("\nBased on this, give a sharp insight. Start with \"Woi, barusan nge-swipe gede nih...\"")

	text := anomalyFallbackText
	resp, err := s.generator.Generate(ctx, s.anomalyPolicy, []llm.Message{
		{Role: "user", Content: prompt.String()},
	})
	if err != nil {
		log.Printf("⚠️ [ANOMALY] Generation failed for user %s, using fallback: %v", userID, err)
	} else if strings.TrimSpace(resp.Content) != "" {
		text = resp.Content
	}

	if _, err := s.insights.Create(ctx, userID, text); err != nil {
		log.Printf("❌ [ANOMALY] Failed to store insight for user %s: %v", userID, err)
		return
	}
	if s.metrics != nil {
		s.metrics.Insights.WithLabelValues("anomaly").Inc()
	}
}
