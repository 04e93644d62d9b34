package format

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shandley/stenograph/internal/model"
)

func sampleInfos() []model.SessionInfo {
	return []model.SessionInfo{
		{
			SessionID:      "aaaa1111-0000-0000-0000-000000000000",
			File:           "aaaa1111.html",
			MessageCount:   12,
			NodeCount:      2,
			Preview:        "fix the parser\nplease",
			FirstTimestamp: "2024-01-01T10:00:00Z",
		},
		{
			SessionID:    "bbbb2222-0000-0000-0000-000000000000",
			File:         "bbbb2222.html",
			MessageCount: 3,
		},
	}
}

func TestWriteSummaries_TSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSummaries(&buf, sampleInfos(), true, "tsv"); err != nil {
		t.Fatalf("WriteSummaries returned error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "timestamp\tsession_id\tmessages\tnodes\tpreview" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "fix the parser\\nplease") {
		t.Fatalf("newline not escaped: %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "-\t") {
		t.Fatalf("missing timestamp should render as dash: %q", lines[2])
	}
}

func TestWriteSummaries_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSummaries(&buf, sampleInfos(), false, "json"); err != nil {
		t.Fatalf("WriteSummaries returned error: %v", err)
	}

	var decoded []model.SessionInfo
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 || decoded[0].MessageCount != 12 {
		t.Fatalf("unexpected decoded output: %+v", decoded)
	}
}

func TestWriteSummaries_UnsupportedFormat(t *testing.T) {
	if err := WriteSummaries(&bytes.Buffer{}, nil, false, "yaml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("unexpected: %q", got)
	}
	if got := Truncate("line one\nline  two", 0); got != "line one line two" {
		t.Fatalf("whitespace not collapsed: %q", got)
	}
	if got := Truncate("abcdefghij", 4); got != "abcd…" {
		t.Fatalf("unexpected truncation: %q", got)
	}
}
