package llm

import (
	"encoding/json"
	"testing"
)

func toolCall(id, name, args string) ToolCall {
	var call ToolCall
	call.ID = id
	call.Type = "function"
	call.Function.Name = name
	call.Function.Arguments = args
	return call
}

func TestDecodeOutcome_FinalText(t *testing.T) {
	policy := MentorPolicy("test-model")

	outcome, err := policy.DecodeOutcome(&Response{Content: "Selamat datang di Fintack."})
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	text, ok := outcome.(FinalText)
	if !ok {
		t.Fatalf("Expected FinalText, got %T", outcome)
	}
	if text.Text != "Selamat datang di Fintack." {
		t.Errorf("Unexpected text: %q", text.Text)
	}
}

func TestDecodeOutcome_ToolRequest(t *testing.T) {
	policy := MentorPolicy("test-model")

	args := `{"title":"Dana Darurat","description":"Sisihkan 500rb","xpReward":100,"levelRequirement":1,"pathName":"Foundation","tangga":1,"subStep":2}`
	outcome, err := policy.DecodeOutcome(&Response{
		ToolCalls: []ToolCall{toolCall("call_1", MissionToolName, args)},
	})
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	req, ok := outcome.(ToolRequest)
	if !ok {
		t.Fatalf("Expected ToolRequest, got %T", outcome)
	}
	if req.Name != MissionToolName {
		t.Errorf("Expected tool %q, got %q", MissionToolName, req.Name)
	}
	if req.CallID != "call_1" {
		t.Errorf("Expected call id 'call_1', got %q", req.CallID)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(req.Args, &decoded); err != nil {
		t.Fatalf("Args are not valid JSON: %v", err)
	}
	if decoded["pathName"] != "Foundation" {
		t.Errorf("Expected pathName 'Foundation', got %v", decoded["pathName"])
	}
}

func TestDecodeOutcome_ToolRequestWinsOverText(t *testing.T) {
	policy := MentorPolicy("test-model")

	outcome, err := policy.DecodeOutcome(&Response{
		Content:   "Oke, gue buatkan misinya.",
		ToolCalls: []ToolCall{toolCall("call_1", MissionToolName, "{}")},
	})
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if _, ok := outcome.(ToolRequest); !ok {
		t.Fatalf("Expected ToolRequest, got %T", outcome)
	}
}

func TestDecodeOutcome_UndeclaredToolFallsThroughToText(t *testing.T) {
	policy := MentorPolicy("test-model")

	outcome, err := policy.DecodeOutcome(&Response{
		Content:   "Ini jawaban gue.",
		ToolCalls: []ToolCall{toolCall("call_1", "deleteAllData", "{}")},
	})
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	text, ok := outcome.(FinalText)
	if !ok {
		t.Fatalf("Expected FinalText, got %T", outcome)
	}
	if text.Text != "Ini jawaban gue." {
		t.Errorf("Unexpected text: %q", text.Text)
	}
}

func TestDecodeOutcome_EmptyResponseIsError(t *testing.T) {
	policy := MentorPolicy("test-model")

	if _, err := policy.DecodeOutcome(&Response{Content: "   \n"}); err == nil {
		t.Fatal("Expected error for empty response")
	}

	// An undeclared tool with no text is also malformed
	if _, err := policy.DecodeOutcome(&Response{
		ToolCalls: []ToolCall{toolCall("call_1", "unknownTool", "{}")},
	}); err == nil {
		t.Fatal("Expected error for undeclared tool with no text")
	}
}
