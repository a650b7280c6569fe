package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"fintack/internal/apperrors"
	"fintack/internal/llm"
	"fintack/internal/models"
)

// Input types accepted by Ask
const (
	InputText  = "text"
	InputVoice = "voice"
)

const toolConfirmFallback = "Misi berhasil dibuat. Cek halaman Misi sekarang!"

const historyWindow = 50

// CoachReply is the outcome of one coaching turn
type CoachReply struct {
	Text      string          `json:"text"`
	AudioURLs []string        `json:"audio_urls,omitempty"`
	Mission   *models.Mission `json:"mission,omitempty"`
}

// Collaborator contracts, satisfied by the concrete services.
// Narrow on purpose: tests drive the protocol with fakes.
type PreambleBuilder interface {
	BuildPreamble(ctx context.Context, userID, query string, historyLen int) (string, error)
}

type MissionCreator interface {
	Create(ctx context.Context, userID string, mission *models.Mission) (*models.Mission, error)
}

type HistoryStore interface {
	History(ctx context.Context, userID string, limit int64) ([]models.ChatMessage, error)
	Append(ctx context.Context, msg *models.ChatMessage) error
}

type Speaker interface {
	Speak(ctx context.Context, answer string) []string
}

// CoachService runs the tool-calling conversation protocol: context
// assembly, turn one, optional capability execution, turn two, persistence
// and optional voice synthesis.
type CoachService struct {
	generator llm.Generator
	policy    llm.ConversationPolicy
	context   PreambleBuilder
	missions  MissionCreator
	chatLog   HistoryStore
	voice     Speaker
	metrics   *Metrics
}

// NewCoachService creates a new coach service
func NewCoachService(
	generator llm.Generator,
	policy llm.ConversationPolicy,
	contextBuilder PreambleBuilder,
	missions MissionCreator,
	chatLog HistoryStore,
	voice Speaker,
	metrics *Metrics,
) *CoachService {
	return &CoachService{
		generator: generator,
		policy:    policy,
		context:   contextBuilder,
		missions:  missions,
		chatLog:   chatLog,
		voice:     voice,
		metrics:   metrics,
	}
}

// Ask runs one coaching turn for the user. The answer text is always
// non-empty on success; audio is attached only for voice input and only for
// segments that synthesized.
func (s *CoachService) Ask(ctx context.Context, userID, prompt, inputType string) (*CoachReply, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, apperrors.InvalidArgument("prompt is required")
	}

	started := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.CoachTurnLatency.Observe(time.Since(started).Seconds())
		}
	}()

	history, err := s.chatLog.History(ctx, userID, historyWindow)
	if err != nil {
		s.countTurn("error")
		return nil, apperrors.Internal("failed to load conversation history", err)
	}

	preamble, err := s.context.BuildPreamble(ctx, userID, prompt, len(history))
	if err != nil {
		s.countTurn("error")
		return nil, apperrors.Internal("failed to assemble context", err)
	}

	messages := replayHistory(history)
	messages = append(messages, llm.Message{
		Role:    "user",
		Content: fmt.Sprintf("%s\n\nUser's Question: %q", preamble, prompt),
	})

	turn1, err := s.generator.Generate(ctx, s.policy, messages)
	if err != nil {
		s.countTurn("error")
		return nil, apperrors.Internal("model generation failed", err)
	}

	outcome, err := s.policy.DecodeOutcome(turn1)
	if err != nil {
		s.countTurn("error")
		return nil, apperrors.Internal("malformed model response", err)
	}

	reply := &CoachReply{}
	var modelParts []models.MessagePart

	switch o := outcome.(type) {
	case llm.FinalText:
		reply.Text = o.Text
		modelParts = append(modelParts, models.MessagePart{Text: o.Text})
		s.countTurn("text")

	case llm.ToolRequest:
		mission, finalText, err := s.executeMissionCall(ctx, userID, o, messages, turn1)
		if err != nil {
			s.countTurn("error")
			return nil, err
		}
		reply.Text = finalText
		reply.Mission = mission
		var callArgs map[string]interface{}
		if err := json.Unmarshal(o.Args, &callArgs); err != nil {
			callArgs = map[string]interface{}{}
		}
		modelParts = append(modelParts,
			models.MessagePart{FunctionCall: &models.FunctionCall{
				Name: o.Name,
				Args: callArgs,
			}},
			models.MessagePart{FunctionResponse: &models.FunctionResponse{
				Name:     o.Name,
				Response: map[string]interface{}{"success": true},
			}},
			models.MessagePart{Text: finalText},
		)
		s.countTurn("tool")
	}

	if inputType == InputVoice {
		reply.AudioURLs = s.voice.Speak(ctx, reply.Text)
	}

	s.persistTurn(ctx, userID, prompt, modelParts, reply.AudioURLs)
	return reply, nil
}

// executeMissionCall runs steps 3-4 of the protocol: create the mission,
// then ask the model for its confirmation text with a synthetic function
// result. The confirmation is only ever produced after the write succeeded.
func (s *CoachService) executeMissionCall(
	ctx context.Context,
	userID string,
	call llm.ToolRequest,
	priorMessages []llm.Message,
	turn1 *llm.Response,
) (*models.Mission, string, error) {
	mission, err := MissionFromToolArgs(call.Args)
	if err != nil {
		s.countTool(call.Name, "error")
		return nil, "", err
	}

	created, err := s.missions.Create(ctx, userID, mission)
	if err != nil {
		s.countTool(call.Name, "error")
		if apperrors.CodeOf(err) == apperrors.CodeInvalidArgument {
			return nil, "", err
		}
		return nil, "", apperrors.Internal("mission creation failed", err)
	}
	s.countTool(call.Name, "ok")

	// Turn two: replay the tool call and its synthetic result
	messages := append(priorMessages, llm.Message{
		Role:      "assistant",
		Content:   turn1.Content,
		ToolCalls: turn1.ToolCalls,
	}, llm.Message{
		Role:       "tool",
		ToolCallID: call.CallID,
		Content:    fmt.Sprintf(`{"success": true, "message": "Mission '%s' created."}`, created.Title),
	})

	finalText := toolConfirmFallback
	turn2, err := s.generator.Generate(ctx, s.policy, messages)
	if err != nil {
		// The mission exists; confirmation falls back rather than failing
		log.Printf("⚠️ [COACH] Second turn failed for user %s, using fallback confirmation: %v", userID, err)
	} else if strings.TrimSpace(turn2.Content) != "" {
		finalText = turn2.Content
	}

	return created, finalText, nil
}

// persistTurn appends the user and model messages. History ordering drives
// the next turn's context, so the user message goes first.
func (s *CoachService) persistTurn(ctx context.Context, userID, prompt string, modelParts []models.MessagePart, audioURLs []string) {
	userMsg := &models.ChatMessage{
		UserID: userID,
		Role:   models.RoleUser,
		Parts:  []models.MessagePart{{Text: prompt}},
	}
	if err := s.chatLog.Append(ctx, userMsg); err != nil {
		log.Printf("⚠️ [COACH] Failed to persist user message for %s: %v", userID, err)
		return
	}

	modelMsg := &models.ChatMessage{
		UserID:    userID,
		Role:      models.RoleModel,
		Parts:     modelParts,
		AudioURLs: audioURLs,
	}
	if err := s.chatLog.Append(ctx, modelMsg); err != nil {
		log.Printf("⚠️ [COACH] Failed to persist model message for %s: %v", userID, err)
	}
}

// replayHistory converts stored messages into provider messages. Function
// call and result parts are not replayed; the text parts carry the
// conversational thread.
func replayHistory(history []models.ChatMessage) []llm.Message {
	messages := make([]llm.Message, 0, len(history))
	for _, msg := range history {
		text := msg.FirstText()
		if text == "" {
			continue
		}
		role := "user"
		if msg.Role == models.RoleModel {
			role = "assistant"
		}
		messages = append(messages, llm.Message{Role: role, Content: text})
	}
	return messages
}

func (s *CoachService) countTurn(outcome string) {
	if s.metrics != nil {
		s.metrics.CoachTurns.WithLabelValues(outcome).Inc()
	}
}

func (s *CoachService) countTool(tool, status string) {
	if s.metrics != nil {
		s.metrics.ToolExecutions.WithLabelValues(tool, status).Inc()
	}
}
