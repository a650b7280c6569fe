package ingest

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"fintack/internal/llm"
	"fintack/internal/services"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

// ChunkSize bounds the text of one knowledge chunk
const ChunkSize = 1000

const debounceDuration = 500 * time.Millisecond

// Pipeline watches the uploads directory and turns dropped documents into
// embedded knowledge chunks. Embedding calls are serialized through a rate
// limiter to respect the provider quota.
type Pipeline struct {
	knowledge *services.KnowledgeService
	embedder  llm.Embedder
	limiter   *rate.Limiter
	dir       string

	mu       sync.Mutex
	debounce map[string]*time.Timer
}

// NewPipeline creates an ingestion pipeline over the given directory.
// embedInterval is the minimum spacing between embedding calls.
func NewPipeline(knowledge *services.KnowledgeService, embedder llm.Embedder, dir string, embedInterval time.Duration) *Pipeline {
	return &Pipeline{
		knowledge: knowledge,
		embedder:  embedder,
		limiter:   rate.NewLimiter(rate.Every(embedInterval), 1),
		dir:       dir,
		debounce:  make(map[string]*time.Timer),
	}
}

// Watch ingests existing files once, then follows directory events until the
// context is cancelled. Intended to run as a goroutine.
func (p *Pipeline) Watch(ctx context.Context) {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		log.Printf("❌ [INGEST] Failed to create uploads dir %s: %v", p.dir, err)
		return
	}

	p.ingestExisting(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("⚠️ [INGEST] Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(p.dir); err != nil {
		log.Printf("⚠️ [INGEST] Failed to watch %s: %v", p.dir, err)
		return
	}
	log.Printf("👁️ [INGEST] Watching %s for knowledge documents", p.dir)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			p.handleEvent(ctx, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("⚠️ [INGEST] Watcher error: %v", err)
		}
	}
}

func (p *Pipeline) handleEvent(ctx context.Context, event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if !supportedDocument(name) {
		return
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		if err := p.knowledge.DeleteBySource(ctx, name); err != nil {
			log.Printf("⚠️ [INGEST] Failed to drop chunks for removed %s: %v", name, err)
		}
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	// Editors fire bursts of writes; re-ingest once per burst
	p.mu.Lock()
	if timer, ok := p.debounce[name]; ok {
		timer.Stop()
	}
	path := event.Name
	p.debounce[name] = time.AfterFunc(debounceDuration, func() {
		p.mu.Lock()
		delete(p.debounce, name)
		p.mu.Unlock()
		if err := p.IngestFile(ctx, path); err != nil {
			log.Printf("❌ [INGEST] Failed to ingest %s: %v", name, err)
		}
	})
	p.mu.Unlock()
}

func (p *Pipeline) ingestExisting(ctx context.Context) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		log.Printf("⚠️ [INGEST] Failed to list uploads dir: %v", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !supportedDocument(entry.Name()) {
			continue
		}
		if err := p.IngestFile(ctx, filepath.Join(p.dir, entry.Name())); err != nil {
			log.Printf("❌ [INGEST] Failed to ingest %s: %v", entry.Name(), err)
		}
	}
}

// IngestFile extracts, chunks and embeds one document, replacing any chunks
// previously produced from the same file name.
func (p *Pipeline) IngestFile(ctx context.Context, path string) error {
	name := filepath.Base(path)

	text, err := extractText(path)
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", name, err)
	}
	chunks := ChunkText(text, ChunkSize)
	if len(chunks) == 0 {
		log.Printf("⚠️ [INGEST] %s produced no text, skipping", name)
		return nil
	}

	if err := p.knowledge.DeleteBySource(ctx, name); err != nil {
		return fmt.Errorf("failed to replace chunks for %s: %w", name, err)
	}

	stored := 0
	for _, chunk := range chunks {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
		vector, err := p.embedder.Embed(ctx, chunk)
		if err != nil {
			log.Printf("⚠️ [INGEST] Embedding failed for a chunk of %s, skipping: %v", name, err)
			continue
		}
		if err := p.knowledge.AddChunk(ctx, name, chunk, vector); err != nil {
			log.Printf("⚠️ [INGEST] Failed to store a chunk of %s: %v", name, err)
			continue
		}
		stored++
	}

	log.Printf("📚 [INGEST] Ingested %s: %d/%d chunks stored", name, stored, len(chunks))
	return nil
}

func supportedDocument(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".pdf":
		return true
	}
	return false
}

func extractText(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return extractPDFText(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ChunkText splits text into pieces of at most maxLen characters, breaking
// at word boundaries where possible. Whitespace runs are collapsed first.
func ChunkText(text string, maxLen int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder
	for _, word := range words {
		if current.Len() > 0 && current.Len()+1+len(word) > maxLen {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		// An oversized single word still becomes its own chunk
		current.WriteString(word)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
