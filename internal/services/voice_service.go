package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"fintack/internal/storage"
	"fintack/internal/tts"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// VoiceService turns a finalized markdown answer into an ordered list of
// audio object URLs. Synthesis is strictly best-effort: failed segments are
// skipped and the text answer stands on its own.
type VoiceService struct {
	synth   tts.Synthesizer
	store   storage.ObjectStore
	metrics *Metrics
}

// NewVoiceService creates a new voice service
func NewVoiceService(synth tts.Synthesizer, store storage.ObjectStore, metrics *Metrics) *VoiceService {
	return &VoiceService{
		synth:   synth,
		store:   store,
		metrics: metrics,
	}
}

// Speak synthesizes the answer sentence by sentence, sequentially so the
// returned URLs preserve source order. Returns nil when nothing could be
// synthesized; the caller still delivers the text.
func (s *VoiceService) Speak(ctx context.Context, answer string) []string {
	segments := SplitSentences(SpeakableText(answer))
	if len(segments) == 0 {
		return nil
	}

	var urls []string
	for i, segment := range segments {
		audio, err := s.synth.Synthesize(ctx, segment)
		if err != nil {
			log.Printf("⚠️ [VOICE] Synthesis failed for segment %d/%d, skipping: %v", i+1, len(segments), err)
			if s.metrics != nil {
				s.metrics.VoiceSegments.WithLabelValues("synth_error").Inc()
			}
			continue
		}

		name := fmt.Sprintf("%s.mp3", uuid.New().String())
		url, err := s.store.Put(ctx, name, audio)
		if err != nil {
			log.Printf("⚠️ [VOICE] Failed to store segment %d/%d, skipping: %v", i+1, len(segments), err)
			if s.metrics != nil {
				s.metrics.VoiceSegments.WithLabelValues("store_error").Inc()
			}
			continue
		}

		if s.metrics != nil {
			s.metrics.VoiceSegments.WithLabelValues("ok").Inc()
		}
		urls = append(urls, url)
	}

	log.Printf("🔊 [VOICE] Synthesized %d/%d segments", len(urls), len(segments))
	return urls
}

// SpeakableText strips markdown structure (headings, emphasis, bullets,
// links, code fences) down to readable plain text by walking the parsed AST
// and collecting text nodes.
func SpeakableText(markdown string) string {
	source := []byte(markdown)
	root := goldmark.New().Parser().Parse(text.NewReader(source))

	var sb strings.Builder
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			// Block boundaries become pauses
			switch n.(type) {
			case *ast.Paragraph, *ast.Heading, *ast.ListItem:
				sb.WriteString(" ")
			}
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			sb.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				sb.WriteString(" ")
			}
		case *ast.AutoLink:
			sb.Write(node.URL(source))
		case *ast.CodeSpan:
			// inline code reads as-is via its Text children
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return strings.Join(strings.Fields(sb.String()), " ")
}

// SplitSentences breaks plain text into sentence-like segments on terminal
// punctuation. A trailing fragment without terminal punctuation is kept.
func SplitSentences(plain string) []string {
	var segments []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			segments = append(segments, s)
		}
		current.Reset()
	}

	for _, r := range plain {
		current.WriteRune(r)
		switch r {
		case '.', '!', '?':
			flush()
		}
	}
	flush()

	return segments
}
