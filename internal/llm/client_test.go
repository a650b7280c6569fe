package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientGenerate_SendsPersonaAndTools(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Unexpected auth header: %s", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Halo!"}}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	policy := MentorPolicy("test-model")

	resp, err := client.Generate(context.Background(), policy, []Message{
		{Role: "user", Content: "halo"},
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if resp.Content != "Halo!" {
		t.Errorf("Unexpected content: %q", resp.Content)
	}

	messages, ok := captured["messages"].([]interface{})
	if !ok || len(messages) != 2 {
		t.Fatalf("Expected system + user message, got %v", captured["messages"])
	}
	first := messages[0].(map[string]interface{})
	if first["role"] != "system" {
		t.Errorf("First message must be the persona, got role %v", first["role"])
	}

	tools, ok := captured["tools"].([]interface{})
	if !ok || len(tools) != 1 {
		t.Fatalf("Expected exactly one declared tool, got %v", captured["tools"])
	}
}

func TestClientGenerate_DecodesToolCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"","tool_calls":[{"id":"call_9","type":"function","function":{"name":"createMission","arguments":"{\"title\":\"T\"}"}}]}}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	resp, err := client.Generate(context.Background(), MentorPolicy("m"), []Message{{Role: "user", Content: "misi"}})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(resp.ToolCalls) != 1 {
		t.Fatalf("Expected 1 tool call, got %d", len(resp.ToolCalls))
	}
	if resp.ToolCalls[0].Function.Name != "createMission" {
		t.Errorf("Unexpected tool name: %s", resp.ToolCalls[0].Function.Name)
	}
}

func TestClientGenerate_NonOKStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	if _, err := client.Generate(context.Background(), MentorPolicy("m"), nil); err == nil {
		t.Fatal("Expected error on non-OK status")
	}
}

func TestClientGenerate_NoChoicesIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	if _, err := client.Generate(context.Background(), MentorPolicy("m"), nil); err == nil {
		t.Fatal("Expected error when response has no choices")
	}
}

func TestEmbeddingClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer server.Close()

	embedder := NewEmbeddingClient(server.URL, "test-key", "test-embed")
	vector, err := embedder.Embed(context.Background(), "dana darurat")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vector) != 3 || vector[1] != 0.2 {
		t.Errorf("Unexpected vector: %v", vector)
	}
}

func TestEmbeddingClient_EmptyDataIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	embedder := NewEmbeddingClient(server.URL, "test-key", "test-embed")
	if _, err := embedder.Embed(context.Background(), "x"); err == nil {
		t.Fatal("Expected error for empty embedding data")
	}
}
