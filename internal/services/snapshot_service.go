package services

import (
	"context"
	"fmt"
	"time"

	"fintack/internal/database"
	"fintack/internal/models"

	gocache "github.com/patrickmn/go-cache"
	"go.mongodb.org/mongo-driver/bson"
)

// Snapshot is the compact numeric context for one user: holdings minus
// obligations, accumulated points and the communication-style trait.
type Snapshot struct {
	NetWorth float64
	XP       int64
	Style    models.CommunicationStyle
}

// CashflowSummary aggregates recent transaction flow over a window
type CashflowSummary struct {
	Days            int
	AvgDailyIncome  float64
	AvgDailyExpense float64
	NetWorth        float64
}

// SnapshotService aggregates a user's financial state for prompt assembly.
// Pure read; results are cached briefly since a turn may hit it twice.
type SnapshotService struct {
	mongodb *database.MongoDB
	users   *UserService
	cache   *gocache.Cache
}

// NewSnapshotService creates a new snapshot service
func NewSnapshotService(mongodb *database.MongoDB, users *UserService) *SnapshotService {
	return &SnapshotService{
		mongodb: mongodb,
		users:   users,
		cache:   gocache.New(5*time.Minute, 10*time.Minute),
	}
}

// GetSnapshot returns the user's current financial snapshot
func (s *SnapshotService) GetSnapshot(ctx context.Context, userID string) (*Snapshot, error) {
	if cached, found := s.cache.Get(userID); found {
		snap := cached.(Snapshot)
		return &snap, nil
	}

	profile, err := s.users.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	netWorth, err := s.netWorth(ctx, userID)
	if err != nil {
		return nil, err
	}

	snap := Snapshot{
		NetWorth: netWorth,
		XP:       profile.XP,
		Style:    profile.CommunicationStyle,
	}
	s.cache.Set(userID, snap, gocache.DefaultExpiration)
	return &snap, nil
}

// Invalidate drops the cached snapshot after a write (transaction, mission reward)
func (s *SnapshotService) Invalidate(userID string) {
	s.cache.Delete(userID)
}

// netWorth sums asset values minus liability values across holdings
func (s *SnapshotService) netWorth(ctx context.Context, userID string) (float64, error) {
	coll := s.mongodb.Collection(database.CollectionHoldings)

	cursor, err := coll.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to load holdings: %w", err)
	}
	defer cursor.Close(ctx)

	var total float64
	for cursor.Next(ctx) {
		var h models.Holding
		if err := cursor.Decode(&h); err != nil {
			continue
		}
		if h.Kind == models.HoldingLiability {
			total -= h.Value
		} else {
			total += h.Value
		}
	}
	return total, cursor.Err()
}

// Cashflow returns daily income/expense averages over the last `days` days
// plus current net worth. Used for the advancement side-turn (90 days).
func (s *SnapshotService) Cashflow(ctx context.Context, userID string, days int) (*CashflowSummary, error) {
	if days <= 0 {
		days = 90
	}

	coll := s.mongodb.Collection(database.CollectionTransactions)
	since := time.Now().AddDate(0, 0, -days)

	cursor, err := coll.Find(ctx, bson.M{
		"userId":    userID,
		"createdAt": bson.M{"$gte": since},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var income, expense float64
	for cursor.Next(ctx) {
		var t models.Transaction
		if err := cursor.Decode(&t); err != nil {
			continue
		}
		switch t.Type {
		case models.TransactionIncome:
			income += t.Amount
		case models.TransactionExpense:
			expense += t.Amount
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	netWorth, err := s.netWorth(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &CashflowSummary{
		Days:            days,
		AvgDailyIncome:  income / float64(days),
		AvgDailyExpense: expense / float64(days),
		NetWorth:        netWorth,
	}, nil
}
