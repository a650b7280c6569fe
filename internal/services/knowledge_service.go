package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"fintack/internal/database"
	"fintack/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Retriever finds the knowledge chunks nearest to a query vector.
// Implemented by KnowledgeService; tests supply fakes.
type Retriever interface {
	SearchSimilar(ctx context.Context, vector []float64, k int) ([]models.KnowledgeChunk, error)
}

// KnowledgeService owns the knowledge_chunks collection
type KnowledgeService struct {
	mongodb    *database.MongoDB
	collection *mongo.Collection
}

// NewKnowledgeService creates a new knowledge service
func NewKnowledgeService(mongodb *database.MongoDB) *KnowledgeService {
	return &KnowledgeService{
		mongodb:    mongodb,
		collection: mongodb.Collection(database.CollectionKnowledgeChunks),
	}
}

// AddChunk stores one ingested chunk with its precomputed embedding
func (s *KnowledgeService) AddChunk(ctx context.Context, sourceFile, text string, embedding []float64) error {
	if text == "" || len(embedding) == 0 {
		return fmt.Errorf("chunk text and embedding are required")
	}

	chunk := models.KnowledgeChunk{
		SourceFile: sourceFile,
		Text:       text,
		Embedding:  embedding,
		CreatedAt:  time.Now(),
	}
	if _, err := s.collection.InsertOne(ctx, chunk); err != nil {
		return fmt.Errorf("failed to insert knowledge chunk: %w", err)
	}
	return nil
}

// DeleteBySource removes all chunks from a source file (re-ingestion)
func (s *KnowledgeService) DeleteBySource(ctx context.Context, sourceFile string) error {
	result, err := s.collection.DeleteMany(ctx, bson.M{"sourceFile": sourceFile})
	if err != nil {
		return fmt.Errorf("failed to delete chunks for %s: %w", sourceFile, err)
	}
	if result.DeletedCount > 0 {
		log.Printf("🗑️ [KNOWLEDGE] Removed %d stale chunks for %s", result.DeletedCount, sourceFile)
	}
	return nil
}

// SearchSimilar returns the top-k chunks ranked by cosine similarity to the
// query vector. The store is small enough to score in process.
func (s *KnowledgeService) SearchSimilar(ctx context.Context, vector []float64, k int) ([]models.KnowledgeChunk, error) {
	if k <= 0 {
		k = 3
	}

	cursor, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to load knowledge chunks: %w", err)
	}
	defer cursor.Close(ctx)

	var chunks []models.KnowledgeChunk
	if err := cursor.All(ctx, &chunks); err != nil {
		return nil, fmt.Errorf("failed to decode knowledge chunks: %w", err)
	}

	return RankChunks(chunks, vector, k), nil
}

// RankChunks sorts chunks by cosine similarity to the query and keeps top k
func RankChunks(chunks []models.KnowledgeChunk, query []float64, k int) []models.KnowledgeChunk {
	type scored struct {
		chunk models.KnowledgeChunk
		score float64
	}

	ranked := make([]scored, 0, len(chunks))
	for _, c := range chunks {
		score := CosineSimilarity(c.Embedding, query)
		if math.IsNaN(score) {
			continue
		}
		ranked = append(ranked, scored{chunk: c, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	result := make([]models.KnowledgeChunk, len(ranked))
	for i, r := range ranked {
		result[i] = r.chunk
	}
	return result
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// Returns NaN for mismatched or zero-magnitude vectors.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return math.NaN()
	}

	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return math.NaN()
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
