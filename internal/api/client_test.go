package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
)

func TestNewClient_WithAPIKey(t *testing.T) {
	cfg := ClientConfig{
		APIKey: "test-key-123",
		Model:  anthropic.ModelClaudeSonnet4_20250514,
	}

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if client == nil {
		t.Fatal("NewClient returned nil")
	}

	if client.Model() != anthropic.ModelClaudeSonnet4_20250514 {
		t.Errorf("Model = %q, want %q", client.Model(), anthropic.ModelClaudeSonnet4_20250514)
	}

	if client.Tracker() == nil {
		t.Error("Tracker should not be nil")
	}
}

func TestNewClient_WithEnvVar(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-test-key")

	client, err := NewClient(ClientConfig{})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client == nil {
		t.Fatal("NewClient returned nil")
	}
}

func TestNewClient_NoAPIKey(t *testing.T) {
	original, had := os.LookupEnv("ANTHROPIC_API_KEY")
	os.Unsetenv("ANTHROPIC_API_KEY")
	defer func() {
		if had {
			os.Setenv("ANTHROPIC_API_KEY", original)
		}
	}()

	_, err := NewClient(ClientConfig{})
	if err == nil {
		t.Fatal("NewClient should fail without API key")
	}

	expected := "ANTHROPIC_API_KEY environment variable is not set"
	if err.Error() != expected {
		t.Errorf("Error = %q, want %q", err.Error(), expected)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	client, err := NewClient(ClientConfig{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if client.Model() != DefaultModel {
		t.Errorf("Default model = %q, want %q", client.Model(), DefaultModel)
	}
	if client.MaxTokens() != DefaultMaxTokens {
		t.Errorf("Default max tokens = %d, want %d", client.MaxTokens(), DefaultMaxTokens)
	}
}

func TestTranslateModelForBedrock(t *testing.T) {
	tests := []struct {
		in   anthropic.Model
		want anthropic.Model
	}{
		{anthropic.ModelClaudeHaiku4_5_20251001, "us.anthropic.claude-haiku-4-5-20251001-v1:0"},
		{anthropic.ModelClaudeSonnet4_20250514, "us.anthropic.claude-sonnet-4-20250514-v1:0"},
		{"custom-model", "custom-model"},
	}

	for _, tt := range tests {
		if got := translateModelForBedrock(tt.in); got != tt.want {
			t.Errorf("translateModelForBedrock(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTokenTracker_AddMultiple(t *testing.T) {
	tracker := NewTokenTracker()

	tracker.Add(100, 50)
	tracker.Add(200, 100)
	tracker.Add(50, 25)

	input, output := tracker.Total()

	if input != 350 {
		t.Errorf("Input tokens = %d, want 350", input)
	}
	if output != 175 {
		t.Errorf("Output tokens = %d, want 175", output)
	}
	if tracker.Calls() != 3 {
		t.Errorf("Calls = %d, want 3", tracker.Calls())
	}
}

// messagesServer fakes the Messages endpoint and records each request body.
func messagesServer(t *testing.T, status int, text string, bodies *[]map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			http.NotFound(w, r)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		if bodies != nil {
			*bodies = append(*bodies, body)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = io.WriteString(w, `{"type":"error","error":{"type":"api_error","message":"boom"}}`)
			return
		}
		resp := map[string]any{
			"id":            "msg_1",
			"type":          "message",
			"role":          "assistant",
			"model":         string(DefaultModel),
			"content":       []map[string]any{{"type": "text", "text": text}},
			"stop_reason":   "end_turn",
			"stop_sequence": nil,
			"usage":         map[string]any{"input_tokens": 10, "output_tokens": 5},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestRunner_RunWithSystem(t *testing.T) {
	var bodies []map[string]any
	srv := messagesServer(t, http.StatusOK, `  {"items":["a"]}  `, &bodies)
	defer srv.Close()

	client, err := NewClient(ClientConfig{APIKey: "test-key", BaseURL: srv.URL, MaxTokens: 256})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	runner := NewRunner(client)

	got, err := runner.RunWithSystem(context.Background(), "be brief", "split this goal")
	if err != nil {
		t.Fatalf("RunWithSystem failed: %v", err)
	}
	if got != `{"items":["a"]}` {
		t.Errorf("RunWithSystem = %q, want trimmed JSON", got)
	}

	if len(bodies) != 1 {
		t.Fatalf("server saw %d requests, want 1", len(bodies))
	}
	if mt, _ := bodies[0]["max_tokens"].(float64); mt != 256 {
		t.Errorf("max_tokens = %v, want 256", bodies[0]["max_tokens"])
	}
	if _, ok := bodies[0]["system"]; !ok {
		t.Error("request should carry the system prompt")
	}

	input, output := client.Tracker().Total()
	if input != 10 || output != 5 {
		t.Errorf("tracked tokens = %d/%d, want 10/5", input, output)
	}
}

func TestRunner_EmptySystemOmitted(t *testing.T) {
	var bodies []map[string]any
	srv := messagesServer(t, http.StatusOK, "ok", &bodies)
	defer srv.Close()

	client, err := NewClient(ClientConfig{APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	runner := NewRunner(client)
	if _, err := runner.RunWithSystem(context.Background(), "", "hello"); err != nil {
		t.Fatalf("RunWithSystem failed: %v", err)
	}
	if runner.Client() != client {
		t.Error("Client should return the client the runner was built with")
	}
	if _, ok := bodies[0]["system"]; ok {
		t.Error("request without system prompt should omit system")
	}
}

func TestRunner_ServerErrorNotRetried(t *testing.T) {
	var bodies []map[string]any
	srv := messagesServer(t, http.StatusInternalServerError, "", &bodies)
	defer srv.Close()

	client, err := NewClient(ClientConfig{APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if _, err := NewRunner(client).RunWithSystem(context.Background(), "", "hello"); err == nil {
		t.Fatal("expected error from 500 response")
	}
	if len(bodies) != 1 {
		t.Errorf("server saw %d requests, want exactly 1", len(bodies))
	}
	if client.Tracker().Calls() != 0 {
		t.Error("failed call should not be tracked")
	}
}

func TestNewClient_Bedrock(t *testing.T) {
	// Skip if AWS credentials not available
	if os.Getenv("AWS_REGION") == "" && os.Getenv("AWS_DEFAULT_REGION") == "" {
		t.Skip("AWS_REGION not set, skipping Bedrock test")
	}

	cfg := ClientConfig{
		UseAWSBedrock: true,
		AWSRegion:     "us-west-2",
		Model:         anthropic.ModelClaudeHaiku4_5_20251001,
	}

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient with Bedrock failed: %v", err)
	}
	if client.Model() != "us.anthropic.claude-haiku-4-5-20251001-v1:0" {
		t.Errorf("Model = %q, want bedrock profile id", client.Model())
	}
}
