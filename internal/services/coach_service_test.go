package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"fintack/internal/apperrors"
	"fintack/internal/llm"
	"fintack/internal/models"
)

type fakeGenerator struct {
	responses []*llm.Response
	errs      []error
	calls     [][]llm.Message
}

func (g *fakeGenerator) Generate(_ context.Context, _ llm.ConversationPolicy, messages []llm.Message) (*llm.Response, error) {
	g.calls = append(g.calls, messages)
	idx := len(g.calls) - 1
	if idx < len(g.errs) && g.errs[idx] != nil {
		return nil, g.errs[idx]
	}
	if idx < len(g.responses) {
		return g.responses[idx], nil
	}
	return nil, errors.New("unexpected generate call")
}

type fakePreamble struct {
	preamble string
	err      error
}

func (f *fakePreamble) BuildPreamble(_ context.Context, _, _ string, _ int) (string, error) {
	return f.preamble, f.err
}

type fakeMissions struct {
	created []*models.Mission
	err     error
}

func (f *fakeMissions) Create(_ context.Context, userID string, mission *models.Mission) (*models.Mission, error) {
	if f.err != nil {
		return nil, f.err
	}
	mission.UserID = userID
	mission.Status = models.MissionActive
	f.created = append(f.created, mission)
	return mission, nil
}

type fakeHistory struct {
	messages []models.ChatMessage
	appended []*models.ChatMessage
}

func (f *fakeHistory) History(_ context.Context, _ string, _ int64) ([]models.ChatMessage, error) {
	return f.messages, nil
}

func (f *fakeHistory) Append(_ context.Context, msg *models.ChatMessage) error {
	f.appended = append(f.appended, msg)
	return nil
}

type fakeSpeaker struct {
	urls []string
}

func (f *fakeSpeaker) Speak(_ context.Context, _ string) []string {
	return f.urls
}

func newTestCoach(gen *fakeGenerator, missions *fakeMissions, history *fakeHistory, speaker *fakeSpeaker) *CoachService {
	return NewCoachService(
		gen,
		llm.MentorPolicy("test-model"),
		&fakePreamble{preamble: "FINANCIAL CONTEXT"},
		missions,
		history,
		speaker,
		nil,
	)
}

func missionCallResponse(args string) *llm.Response {
	var call llm.ToolCall
	call.ID = "call_1"
	call.Type = "function"
	call.Function.Name = llm.MissionToolName
	call.Function.Arguments = args
	return &llm.Response{ToolCalls: []llm.ToolCall{call}}
}

func TestCoachAsk_EmptyPromptRejected(t *testing.T) {
	coach := newTestCoach(&fakeGenerator{}, &fakeMissions{}, &fakeHistory{}, &fakeSpeaker{})

	_, err := coach.Ask(context.Background(), "user-1", "   ", InputText)
	if err == nil {
		t.Fatal("Expected error for empty prompt")
	}
	if apperrors.CodeOf(err) != apperrors.CodeInvalidArgument {
		t.Errorf("Expected invalid_argument, got %v", apperrors.CodeOf(err))
	}
}

func TestCoachAsk_FinalTextSingleTurn(t *testing.T) {
	gen := &fakeGenerator{responses: []*llm.Response{
		{Content: "Selamat datang di Fintack. Apa masalah keuangan terbesar lo sekarang?"},
	}}
	missions := &fakeMissions{}
	history := &fakeHistory{}
	coach := newTestCoach(gen, missions, history, &fakeSpeaker{})

	reply, err := coach.Ask(context.Background(), "user-1", "gaji saya kecil", InputText)
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if !strings.Contains(reply.Text, "Selamat datang") {
		t.Errorf("Unexpected answer: %q", reply.Text)
	}
	if reply.Mission != nil {
		t.Error("No mission should be created on a plain text turn")
	}
	if len(missions.created) != 0 {
		t.Errorf("Expected 0 missions created, got %d", len(missions.created))
	}
	if len(gen.calls) != 1 {
		t.Errorf("Expected exactly one model turn, got %d", len(gen.calls))
	}

	// Both sides of the exchange are persisted, user first
	if len(history.appended) != 2 {
		t.Fatalf("Expected 2 persisted messages, got %d", len(history.appended))
	}
	if history.appended[0].Role != models.RoleUser || history.appended[1].Role != models.RoleModel {
		t.Error("Messages persisted in wrong order")
	}
}

func TestCoachAsk_ToolFlowCreatesMissionAndConfirms(t *testing.T) {
	args := `{"title":"Dana Darurat 500rb","description":"Sisihkan 500rb bulan ini","xpReward":150,"levelRequirement":1,"pathName":"Foundation","tangga":1,"subStep":1}`
	gen := &fakeGenerator{responses: []*llm.Response{
		missionCallResponse(args),
		{Content: "Oke, misi sudah dibuat berdasarkan data. Cek halaman Misi sekarang dan eksekusi rencananya."},
	}}
	missions := &fakeMissions{}
	coach := newTestCoach(gen, missions, &fakeHistory{}, &fakeSpeaker{})

	reply, err := coach.Ask(context.Background(), "user-1", "buatkan misi untuk saya menabung 500rb/bulan", InputText)
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if len(missions.created) != 1 {
		t.Fatalf("Expected exactly 1 mission created, got %d", len(missions.created))
	}
	created := missions.created[0]
	if created.Status != models.MissionActive {
		t.Errorf("Expected active mission, got %s", created.Status)
	}
	if created.Title != "Dana Darurat 500rb" || created.XPReward != 150 {
		t.Errorf("Mission fields not preserved: %+v", created)
	}
	if created.PathName != "Foundation" || created.Tangga != 1 || created.SubStep != 1 {
		t.Errorf("Path cursor not preserved: %+v", created)
	}

	if reply.Mission == nil {
		t.Fatal("Reply should carry the created mission")
	}
	if !strings.Contains(reply.Text, "misi sudah dibuat") {
		t.Errorf("Expected confirmation text, got %q", reply.Text)
	}
	if len(gen.calls) != 2 {
		t.Fatalf("Expected two model turns, got %d", len(gen.calls))
	}

	// Turn two replays the assistant tool call plus a synthetic result
	turn2 := gen.calls[1]
	last := turn2[len(turn2)-1]
	if last.Role != "tool" || last.ToolCallID != "call_1" {
		t.Errorf("Expected synthetic tool result last, got role=%s id=%s", last.Role, last.ToolCallID)
	}
	if !strings.Contains(last.Content, "success") {
		t.Errorf("Tool result should report success, got %q", last.Content)
	}
}

func TestCoachAsk_PersistsFullToolArguments(t *testing.T) {
	args := `{"title":"Dana Darurat 500rb","description":"Sisihkan 500rb bulan ini","xpReward":150,"levelRequirement":1,"pathName":"Foundation","tangga":1,"subStep":1}`
	gen := &fakeGenerator{responses: []*llm.Response{
		missionCallResponse(args),
		{Content: "Misi siap."},
	}}
	history := &fakeHistory{}
	coach := newTestCoach(gen, &fakeMissions{}, history, &fakeSpeaker{})

	if _, err := coach.Ask(context.Background(), "user-1", "buatkan misi", InputText); err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if len(history.appended) != 2 {
		t.Fatalf("Expected 2 persisted messages, got %d", len(history.appended))
	}
	modelMsg := history.appended[1]
	var call *models.FunctionCall
	for _, part := range modelMsg.Parts {
		if part.FunctionCall != nil {
			call = part.FunctionCall
		}
	}
	if call == nil {
		t.Fatal("Expected a persisted function call part")
	}
	if call.Name != llm.MissionToolName {
		t.Errorf("Expected tool name %q, got %q", llm.MissionToolName, call.Name)
	}
	// The stored call must carry the complete arguments the model sent
	for _, field := range []string{"title", "description", "xpReward", "levelRequirement", "pathName", "tangga", "subStep"} {
		if _, ok := call.Args[field]; !ok {
			t.Errorf("Persisted call missing argument %q: %v", field, call.Args)
		}
	}
	if call.Args["xpReward"] != float64(150) {
		t.Errorf("Expected xpReward 150 in persisted args, got %v", call.Args["xpReward"])
	}
}

func TestCoachAsk_ToolFlowEmptySecondTurnUsesFallback(t *testing.T) {
	args := `{"title":"T","description":"D","pathName":"Foundation"}`
	gen := &fakeGenerator{responses: []*llm.Response{
		missionCallResponse(args),
		{Content: "   "},
	}}
	coach := newTestCoach(gen, &fakeMissions{}, &fakeHistory{}, &fakeSpeaker{})

	reply, err := coach.Ask(context.Background(), "user-1", "buatkan misi", InputText)
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if reply.Text != toolConfirmFallback {
		t.Errorf("Expected fallback confirmation, got %q", reply.Text)
	}
}

func TestCoachAsk_ToolFlowSecondTurnErrorStillSucceeds(t *testing.T) {
	args := `{"title":"T","description":"D","pathName":"Foundation"}`
	gen := &fakeGenerator{
		responses: []*llm.Response{missionCallResponse(args), nil},
		errs:      []error{nil, errors.New("provider timeout")},
	}
	missions := &fakeMissions{}
	coach := newTestCoach(gen, missions, &fakeHistory{}, &fakeSpeaker{})

	reply, err := coach.Ask(context.Background(), "user-1", "buatkan misi", InputText)
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	// The mission write succeeded, so the user still gets a confirmation
	if len(missions.created) != 1 {
		t.Fatalf("Expected 1 mission, got %d", len(missions.created))
	}
	if reply.Text != toolConfirmFallback {
		t.Errorf("Expected fallback confirmation, got %q", reply.Text)
	}
}

func TestCoachAsk_MissionCreateFailureSurfaces(t *testing.T) {
	args := `{"title":"T","description":"D","pathName":"Foundation"}`
	gen := &fakeGenerator{responses: []*llm.Response{missionCallResponse(args)}}
	missions := &fakeMissions{err: errors.New("write failed")}
	coach := newTestCoach(gen, missions, &fakeHistory{}, &fakeSpeaker{})

	_, err := coach.Ask(context.Background(), "user-1", "buatkan misi", InputText)
	if err == nil {
		t.Fatal("Expected error when mission persistence fails")
	}
	if apperrors.CodeOf(err) != apperrors.CodeInternal {
		t.Errorf("Expected internal error, got %v", apperrors.CodeOf(err))
	}
	// No confirmation without the write
	if len(gen.calls) != 1 {
		t.Errorf("Second turn must not run after a failed tool execution, got %d turns", len(gen.calls))
	}
}

func TestCoachAsk_MalformedModelOutputFailsTurn(t *testing.T) {
	gen := &fakeGenerator{responses: []*llm.Response{{Content: ""}}}
	coach := newTestCoach(gen, &fakeMissions{}, &fakeHistory{}, &fakeSpeaker{})

	_, err := coach.Ask(context.Background(), "user-1", "halo", InputText)
	if err == nil {
		t.Fatal("Expected error for malformed model output")
	}
	if apperrors.CodeOf(err) != apperrors.CodeInternal {
		t.Errorf("Expected internal error, got %v", apperrors.CodeOf(err))
	}
}

func TestCoachAsk_VoiceInputAttachesAudio(t *testing.T) {
	gen := &fakeGenerator{responses: []*llm.Response{{Content: "Jawaban gue."}}}
	speaker := &fakeSpeaker{urls: []string{"http://x/1.mp3", "http://x/2.mp3"}}
	history := &fakeHistory{}
	coach := newTestCoach(gen, &fakeMissions{}, history, speaker)

	reply, err := coach.Ask(context.Background(), "user-1", "halo", InputVoice)
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if len(reply.AudioURLs) != 2 {
		t.Fatalf("Expected 2 audio urls, got %d", len(reply.AudioURLs))
	}
	if reply.Text != "Jawaban gue." {
		t.Errorf("Text answer must always be returned, got %q", reply.Text)
	}
	// Audio references ride along on the persisted model message
	if len(history.appended) != 2 || len(history.appended[1].AudioURLs) != 2 {
		t.Error("Audio urls not persisted with the model message")
	}
}

func TestCoachAsk_TextInputSkipsSynthesis(t *testing.T) {
	gen := &fakeGenerator{responses: []*llm.Response{{Content: "Jawaban."}}}
	speaker := &fakeSpeaker{urls: []string{"http://x/1.mp3"}}
	coach := newTestCoach(gen, &fakeMissions{}, &fakeHistory{}, speaker)

	reply, err := coach.Ask(context.Background(), "user-1", "halo", InputText)
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if len(reply.AudioURLs) != 0 {
		t.Errorf("Text input must not produce audio, got %d urls", len(reply.AudioURLs))
	}
}

func TestReplayHistory_OrderAndRoles(t *testing.T) {
	history := []models.ChatMessage{
		{Role: models.RoleUser, Parts: []models.MessagePart{{Text: "halo"}}},
		{Role: models.RoleModel, Parts: []models.MessagePart{{Text: "halo juga"}}},
		{Role: models.RoleModel, Parts: []models.MessagePart{{FunctionCall: &models.FunctionCall{Name: "createMission"}}}},
	}

	messages := replayHistory(history)
	if len(messages) != 2 {
		t.Fatalf("Expected 2 replayable messages, got %d", len(messages))
	}
	if messages[0].Role != "user" || messages[1].Role != "assistant" {
		t.Errorf("Roles not mapped: %+v", messages)
	}
}
