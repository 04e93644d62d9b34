package stats

import (
	"testing"

	"github.com/shandley/stenograph/internal/model"
)

func TestCompute_Counts(t *testing.T) {
	messages := []model.Message{
		{Role: model.RoleUser, Content: "hi"},
		{Role: model.RoleAssistant, Content: "hello"},
		{Role: model.RoleAssistant, Content: "more"},
		{Role: model.RoleThinking, Content: "hmm"},
		{Role: model.RoleToolUse, ToolName: "Bash"},
		{Role: model.RoleToolUse, ToolName: "Bash"},
		{Role: model.RoleToolUse, ToolName: "Read"},
		{Role: model.RoleToolUse},
		{Role: model.RoleToolResult},
	}

	s := Compute(messages)

	if s.TotalMessages != 9 {
		t.Fatalf("unexpected total: %d", s.TotalMessages)
	}
	if s.UserMessages != 1 || s.AssistantMessages != 2 || s.ThinkingBlocks != 1 {
		t.Fatalf("unexpected role counts: %+v", s)
	}
	if s.ToolCalls != 4 || s.ToolResults != 1 {
		t.Fatalf("unexpected tool counts: %+v", s)
	}
	if s.ToolsUsed["Bash"] != 2 || s.ToolsUsed["Read"] != 1 || s.ToolsUsed["Unknown"] != 1 {
		t.Fatalf("unexpected tools map: %v", s.ToolsUsed)
	}
}

func TestCompute_TokenEstimate(t *testing.T) {
	cases := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"abc", 0},
		{"abcd", 1},
		{"12345678", 2},
	}
	for _, tc := range cases {
		s := Compute([]model.Message{{Role: model.RoleUser, Content: tc.content}})
		if s.EstimatedTokens != tc.want {
			t.Fatalf("content %q: expected %d tokens, got %d", tc.content, tc.want, s.EstimatedTokens)
		}
	}

	// Tool payloads contribute nothing.
	s := Compute([]model.Message{{Role: model.RoleToolResult, Result: []byte(`"long tool output body"`)}})
	if s.EstimatedTokens != 0 {
		t.Fatalf("tool_result contributed tokens: %d", s.EstimatedTokens)
	}
}

func TestCompute_Duration(t *testing.T) {
	s := Compute([]model.Message{
		{Role: model.RoleUser, Content: "a", Timestamp: "2024-01-01T00:00:00Z"},
		{Role: model.RoleAssistant, Content: "b"},
		{Role: model.RoleAssistant, Content: "c", Timestamp: "2024-01-01T00:01:30Z"},
	})
	if s.DurationSeconds != 90 {
		t.Fatalf("expected 90s duration, got %d", s.DurationSeconds)
	}
}

func TestCompute_DurationDegradesToZero(t *testing.T) {
	s := Compute([]model.Message{
		{Role: model.RoleUser, Content: "a", Timestamp: "not a timestamp"},
		{Role: model.RoleAssistant, Content: "b", Timestamp: "2024-01-01T00:01:30Z"},
	})
	if s.DurationSeconds != 0 {
		t.Fatalf("expected 0 duration on parse failure, got %d", s.DurationSeconds)
	}

	s = Compute([]model.Message{{Role: model.RoleUser, Content: "a"}})
	if s.DurationSeconds != 0 {
		t.Fatalf("expected 0 duration without timestamps, got %d", s.DurationSeconds)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{0, "0s"},
		{45, "45s"},
		{90, "1m 30s"},
		{3661, "1h 1m"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.seconds); got != tc.want {
			t.Fatalf("FormatDuration(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}
