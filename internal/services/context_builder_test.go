package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"fintack/internal/models"
)

type fakeSnapshots struct {
	snapshot *Snapshot
	err      error
}

func (f *fakeSnapshots) GetSnapshot(_ context.Context, _ string) (*Snapshot, error) {
	return f.snapshot, f.err
}

type fakeRetriever struct {
	chunks []models.KnowledgeChunk
	err    error
}

func (f *fakeRetriever) SearchSimilar(_ context.Context, _ []float64, _ int) ([]models.KnowledgeChunk, error) {
	return f.chunks, f.err
}

type fakeEmbedder struct {
	vector []float64
	err    error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float64, error) {
	return f.vector, f.err
}

func TestBuildPreamble_IncludesFinancialContext(t *testing.T) {
	builder := NewContextBuilder(
		&fakeSnapshots{snapshot: &Snapshot{NetWorth: 1500000, XP: 240, Style: models.StyleDirective}},
		&fakeRetriever{chunks: []models.KnowledgeChunk{{SourceFile: "dana-darurat.txt", Text: "Siapkan 3x pengeluaran bulanan."}}},
		&fakeEmbedder{vector: []float64{0.1, 0.2}},
		nil,
	)

	preamble, err := builder.BuildPreamble(context.Background(), "user-1", "gimana dana darurat?", 4)
	if err != nil {
		t.Fatalf("BuildPreamble failed: %v", err)
	}

	for _, want := range []string{
		"Net Worth: IDR 1500000",
		"Current XP: 240",
		"Communication Style: directive",
		"Chat History Status: Ongoing",
		"dana-darurat.txt",
		"Siapkan 3x pengeluaran bulanan.",
	} {
		if !strings.Contains(preamble, want) {
			t.Errorf("Preamble missing %q:\n%s", want, preamble)
		}
	}
}

func TestBuildPreamble_EmptyHistoryMarker(t *testing.T) {
	builder := NewContextBuilder(
		&fakeSnapshots{snapshot: &Snapshot{Style: models.StyleUnknown}},
		&fakeRetriever{},
		&fakeEmbedder{vector: []float64{1}},
		nil,
	)

	preamble, err := builder.BuildPreamble(context.Background(), "user-1", "halo", 0)
	if err != nil {
		t.Fatalf("BuildPreamble failed: %v", err)
	}
	if !strings.Contains(preamble, "Empty (this is the first message)") {
		t.Errorf("Expected first-message marker:\n%s", preamble)
	}
}

func TestBuildPreamble_EmbeddingFailureDegrades(t *testing.T) {
	builder := NewContextBuilder(
		&fakeSnapshots{snapshot: &Snapshot{Style: models.StyleSupportive}},
		&fakeRetriever{chunks: []models.KnowledgeChunk{{Text: "should not appear"}}},
		&fakeEmbedder{err: errors.New("quota exhausted")},
		nil,
	)

	preamble, err := builder.BuildPreamble(context.Background(), "user-1", "halo", 2)
	if err != nil {
		t.Fatalf("Embedding failure must not fail the turn: %v", err)
	}
	if !strings.Contains(preamble, NoKnowledgeMarker) {
		t.Errorf("Expected degradation marker:\n%s", preamble)
	}
	if strings.Contains(preamble, "should not appear") {
		t.Error("Retrieval must be skipped when embedding fails")
	}
}

func TestBuildPreamble_SearchFailureDegrades(t *testing.T) {
	builder := NewContextBuilder(
		&fakeSnapshots{snapshot: &Snapshot{}},
		&fakeRetriever{err: errors.New("collection scan failed")},
		&fakeEmbedder{vector: []float64{1}},
		nil,
	)

	preamble, err := builder.BuildPreamble(context.Background(), "user-1", "halo", 2)
	if err != nil {
		t.Fatalf("Search failure must not fail the turn: %v", err)
	}
	if !strings.Contains(preamble, NoKnowledgeMarker) {
		t.Errorf("Expected degradation marker:\n%s", preamble)
	}
}

func TestBuildPreamble_SnapshotFailureFails(t *testing.T) {
	builder := NewContextBuilder(
		&fakeSnapshots{err: errors.New("mongo down")},
		&fakeRetriever{},
		&fakeEmbedder{vector: []float64{1}},
		nil,
	)

	if _, err := builder.BuildPreamble(context.Background(), "user-1", "halo", 0); err == nil {
		t.Fatal("Expected error when the financial snapshot is unavailable")
	}
}
