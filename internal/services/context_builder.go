package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"fintack/internal/llm"
	"fintack/internal/models"

	"github.com/redis/go-redis/v9"
)

// NoKnowledgeMarker is emitted when retrieval finds nothing or is degraded
const NoKnowledgeMarker = "No specific knowledge found."

const knowledgeTopK = 3

// SnapshotSource provides the user's compact financial context.
// Implemented by SnapshotService; tests supply fakes.
type SnapshotSource interface {
	GetSnapshot(ctx context.Context, userID string) (*Snapshot, error)
}

// ContextBuilder assembles the prompt preamble for one coach turn:
// communication style, retrieved knowledge, net worth and points.
// Retrieval is an enhancement — its failure degrades the preamble, it never
// fails the turn.
type ContextBuilder struct {
	snapshots SnapshotSource
	retriever Retriever
	embedder  llm.Embedder
	redis     *redis.Client // optional embedding cache
}

// NewContextBuilder creates a new context builder
func NewContextBuilder(snapshots SnapshotSource, retriever Retriever, embedder llm.Embedder, redisClient *redis.Client) *ContextBuilder {
	return &ContextBuilder{
		snapshots: snapshots,
		retriever: retriever,
		embedder:  embedder,
		redis:     redisClient,
	}
}

// BuildPreamble assembles the financial-context preamble for a query.
// historyLen tells the model whether this is the first message.
func (b *ContextBuilder) BuildPreamble(ctx context.Context, userID, query string, historyLen int) (string, error) {
	snap, err := b.snapshots.GetSnapshot(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to build financial context: %w", err)
	}

	knowledge := b.retrieveKnowledge(ctx, query)

	historyStatus := "Ongoing"
	if historyLen == 0 {
		historyStatus = "Empty (this is the first message)"
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.WriteString("USER'S CURRENT FINANCIAL CONTEXT:\n")
	sb.WriteString(fmt.Sprintf("- Net Worth: IDR %.0f\n", snap.NetWorth))
	sb.WriteString(fmt.Sprintf("- Current XP: %d\n", snap.XP))
	sb.WriteString(fmt.Sprintf("- Communication Style: %s\n", snap.Style))
	sb.WriteString(fmt.Sprintf("- Chat History Status: %s\n", historyStatus))
	sb.WriteString("---\n")
	sb.WriteString("RELEVANT KNOWLEDGE:\n")
	if len(knowledge) == 0 {
		sb.WriteString(NoKnowledgeMarker + "\n")
	} else {
		for _, chunk := range knowledge {
			sb.WriteString(fmt.Sprintf("- [%s] %s\n", chunk.SourceFile, chunk.Text))
		}
	}
	sb.WriteString("---\n")
	sb.WriteString("Based on this context, diagnose their stage in the Financial Hierarchy and answer their question.")

	return sb.String(), nil
}

// retrieveKnowledge embeds the query and ranks stored chunks. Any failure
// returns nil — the caller degrades to the no-knowledge marker.
func (b *ContextBuilder) retrieveKnowledge(ctx context.Context, query string) []models.KnowledgeChunk {
	if b.embedder == nil || b.retriever == nil {
		return nil
	}

	vector, err := b.embedQuery(ctx, query)
	if err != nil {
		log.Printf("⚠️ [CONTEXT] Embedding failed, answering without knowledge: %v", err)
		return nil
	}

	chunks, err := b.retriever.SearchSimilar(ctx, vector, knowledgeTopK)
	if err != nil {
		log.Printf("⚠️ [CONTEXT] Knowledge search failed, answering without knowledge: %v", err)
		return nil
	}
	return chunks
}

// embedQuery returns the query embedding, consulting the Redis cache first.
// Cache failures are ignored; the cache is itself best-effort.
func (b *ContextBuilder) embedQuery(ctx context.Context, query string) ([]float64, error) {
	key := embedCacheKey(query)

	if b.redis != nil {
		if raw, err := b.redis.Get(ctx, key).Result(); err == nil {
			var vector []float64
			if err := json.Unmarshal([]byte(raw), &vector); err == nil && len(vector) > 0 {
				return vector, nil
			}
		}
	}

	vector, err := b.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	if b.redis != nil {
		if raw, err := json.Marshal(vector); err == nil {
			if err := b.redis.Set(ctx, key, raw, 24*time.Hour).Err(); err != nil {
				log.Printf("⚠️ [CONTEXT] Failed to cache query embedding: %v", err)
			}
		}
	}
	return vector, nil
}

func embedCacheKey(query string) string {
	sum := sha256.Sum256([]byte(query))
	return "fintack:embed:" + hex.EncodeToString(sum[:])
}
