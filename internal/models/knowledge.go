package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// KnowledgeChunk is a retrievable unit of ingested reference text with a
// precomputed embedding. Created only by the ingestion pipeline, consumed
// read-only by retrieval.
type KnowledgeChunk struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SourceFile string             `bson:"sourceFile" json:"source_file"`
	Text       string             `bson:"text" json:"text"`
	Embedding  []float64          `bson:"embedding" json:"-"`
	CreatedAt  time.Time          `bson:"createdAt" json:"created_at"`
}
