package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Transaction direction
const (
	TransactionIncome  = "income"
	TransactionExpense = "expense"
)

// Transaction is the source of truth for cash-flow aggregates. Immutable
// once created.
type Transaction struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      string             `bson:"userId" json:"user_id"`
	Amount      float64            `bson:"amount" json:"amount"`
	Type        string             `bson:"type" json:"type"` // "income" or "expense"
	Category    string             `bson:"category" json:"category"`
	Description string             `bson:"description" json:"description"`
	CreatedAt   time.Time          `bson:"createdAt" json:"created_at"`
}

// ReceiptScan is the structured extraction from a receipt image, used to
// prefill a new transaction. Fields the model could not determine are nil.
type ReceiptScan struct {
	Amount      *float64 `json:"amount"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
}

// Holding is a user asset or liability record summed into net worth
type Holding struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"userId" json:"user_id"`
	Kind      string             `bson:"kind" json:"kind"` // "asset" or "liability"
	Name      string             `bson:"name" json:"name"`
	Value     float64            `bson:"value" json:"value"`
	CreatedAt time.Time          `bson:"createdAt" json:"created_at"`
}

// Holding kinds
const (
	HoldingAsset     = "asset"
	HoldingLiability = "liability"
)
