package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shandley/stenograph/internal/model"
)

func sampleSession() *model.SessionData {
	return &model.SessionData{
		ID:             "0c1de4a8-2f7b-4a55-9d22-111111111111",
		FirstTimestamp: "2024-03-01T10:00:00Z",
		Messages: []model.Message{
			{Role: model.RoleUser, Content: "mk: checkpoint the parser", Timestamp: "2024-03-01T10:00:00Z", UUID: "uuid-user-1"},
			{Role: model.RoleThinking, Content: "considering options", Timestamp: "2024-03-01T10:00:05Z", UUID: "uuid-think"},
			{Role: model.RoleAssistant, Content: "Done. <script>alert(1)</script>", Timestamp: "2024-03-01T10:00:10Z", UUID: "uuid-asst"},
			{Role: model.RoleToolUse, ToolName: "Bash", ToolInput: json.RawMessage(`{"command":"ls"}`), ToolID: "t1", UUID: "uuid-tool"},
			{Role: model.RoleToolResult, ToolID: "t1", Result: json.RawMessage(`"file.txt"`), IsError: true, UUID: "uuid-result"},
		},
	}
}

func sampleGraph() model.StenoGraph {
	return model.StenoGraph{
		Nodes: map[string]model.StenoNode{
			"n_1": {ID: "n_1", Raw: "mk: checkpoint the parser", Status: "complete", Branch: "main", Summary: "parser checkpoint"},
		},
		Branches: []model.StenoBranch{{Name: "main", Nodes: []string{"n_1"}}},
	}
}

func TestTranscript(t *testing.T) {
	html, matched, err := Transcript(sampleSession(), sampleGraph(), DefaultCSS())
	if err != nil {
		t.Fatalf("Transcript returned error: %v", err)
	}

	if len(matched) != 1 || matched[0] != "n_1" {
		t.Fatalf("unexpected matched nodes: %v", matched)
	}

	for _, want := range []string{
		"Session: 0c1de4a8",
		"March 01, 2024",
		`<a id="n_1"></a>`,
		`class="steno-node-badge"`,
		"mk: checkpoint the parser",
		"Thinking",
		"Tool: Bash",
		"file.txt",
		`class="stats-panel"`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("transcript missing %q", want)
		}
	}

	// Assistant content must be escaped, never emitted as markup.
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Fatal("unescaped message content in output")
	}
	if !strings.Contains(html, "&lt;script&gt;alert(1)&lt;/script&gt;") {
		t.Fatal("escaped message content not found")
	}

	// An erroring tool result opens its details block.
	if !strings.Contains(html, `<details class="tool-block" open>`) {
		t.Fatal("error tool result not opened")
	}
}

func TestTranscript_NoGraph(t *testing.T) {
	html, matched, err := Transcript(sampleSession(), model.StenoGraph{}, DefaultCSS())
	if err != nil {
		t.Fatalf("Transcript returned error: %v", err)
	}
	if len(matched) != 0 {
		t.Fatalf("expected no matches, got %v", matched)
	}
	if strings.Contains(html, `class="steno-node-badge"`) {
		t.Fatal("badge rendered without a matched node")
	}
}

func TestIndex(t *testing.T) {
	sessions := []model.SessionInfo{
		{
			SessionID:      "0c1de4a8-2f7b-4a55-9d22-111111111111",
			File:           "0c1de4a8.html",
			MessageCount:   5,
			NodeCount:      1,
			Preview:        "mk: checkpoint the parser",
			FirstTimestamp: "2024-03-01T10:00:00Z",
		},
		{SessionID: "older", File: "older.html", MessageCount: 2},
	}

	html, err := Index(sessions, sampleGraph(), DefaultCSS(), "steno-graph")
	if err != nil {
		t.Fatalf("Index returned error: %v", err)
	}

	for _, want := range []string{
		"steno-graph Transcripts",
		"2 sessions",
		`href="0c1de4a8.html"`,
		"5 messages",
		"1 nodes",
		"Steno Graph",
		"n_1 mk: checkpoint the parser",
		"Session transcript",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("index missing %q", want)
		}
	}
}

func TestIndex_NoGraphSection(t *testing.T) {
	html, err := Index(nil, model.StenoGraph{}, DefaultCSS(), "proj")
	if err != nil {
		t.Fatalf("Index returned error: %v", err)
	}
	if strings.Contains(html, `class="steno-graph-section"`) {
		t.Fatal("graph section rendered for empty graph")
	}
}

func TestLoadCSS(t *testing.T) {
	if got := LoadCSS(""); got != DefaultCSS() {
		t.Fatal("empty path should fall back to default CSS")
	}
	if got := LoadCSS("/nonexistent/style.css"); got != DefaultCSS() {
		t.Fatal("unreadable path should fall back to default CSS")
	}
}

func TestResultText(t *testing.T) {
	if got := resultText(json.RawMessage(`"plain"`), 100); got != "plain" {
		t.Fatalf("string result: %q", got)
	}
	blocks := json.RawMessage(`[{"type":"text","text":"one"},{"type":"image"},{"type":"text","text":"two"}]`)
	if got := resultText(blocks, 100); got != "one\ntwo" {
		t.Fatalf("block result: %q", got)
	}
	if got := resultText(json.RawMessage(`{"weird":true}`), 100); got != `{"weird":true}` {
		t.Fatalf("fallback result: %q", got)
	}
	if got := resultText(json.RawMessage(`"abcdef"`), 3); got != "abc..." {
		t.Fatalf("clip: %q", got)
	}
}
