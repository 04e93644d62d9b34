// Package render turns extracted messages, steno matches and session stats
// into self-contained HTML documents. Templates, the default stylesheet and
// the client scripts are embedded so the binary needs no external assets.
package render

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/shandley/stenograph/internal/model"
	"github.com/shandley/stenograph/internal/stats"
	"github.com/shandley/stenograph/internal/steno"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed assets/steno-transcript.css
var defaultCSS string

//go:embed assets/transcript.js
var transcriptJS string

//go:embed assets/index.js
var indexJS string

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

const (
	toolInputPreviewLimit  = 500
	toolResultPreviewLimit = 1000
	previewLimit           = 100
	toolChartLimit         = 10
)

// DefaultCSS returns the embedded stylesheet.
func DefaultCSS() string {
	return defaultCSS
}

// LoadCSS reads a custom stylesheet, falling back to the embedded default
// when path is empty or unreadable.
func LoadCSS(path string) string {
	if path == "" {
		return defaultCSS
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return defaultCSS
	}
	return string(data)
}

type nodeBadge struct {
	ID      string
	Branch  string // empty for main
	Status  string // glyph
	Tooltip string
}

type messageView struct {
	Kind       string
	UUID       string
	Time       string
	Content    string
	ToolName   string
	InputJSON  string
	ResultText string
	IsError    bool
	Node       *nodeBadge
}

type toolBar struct {
	Name    string
	Count   int
	Percent int
}

type statsView struct {
	UserMessages      int
	AssistantMessages int
	ThinkingBlocks    int
	ToolCalls         int
	ToolResults       int
	UniqueTools       int
	TokensK           string
	Duration          string
	ToolBars          []toolBar
}

type transcriptData struct {
	ShortID      string
	Date         string
	CSS          template.CSS
	JS           template.JS
	Stats        statsView
	Messages     []messageView
	MessageCount int
	GeneratedAt  string
}

// Transcript renders the full session page and reports the ids of the steno
// nodes matched against user commands, in message order.
func Transcript(data *model.SessionData, graph model.StenoGraph, css string) (string, []string, error) {
	var matched []string
	views := make([]messageView, 0, len(data.Messages))
	for _, msg := range data.Messages {
		view := newMessageView(msg)
		if msg.Role == model.RoleUser && steno.IsCommand(msg.Content) {
			if node := steno.MatchNode(msg.Content, graph.Nodes); node != nil {
				matched = append(matched, node.ID)
				view.Node = newNodeBadge(node)
			}
		}
		views = append(views, view)
	}

	page := transcriptData{
		ShortID:      shortID(data.ID),
		Date:         formatDate(data.FirstTimestamp),
		CSS:          template.CSS(css),
		JS:           template.JS(transcriptJS),
		Stats:        newStatsView(stats.Compute(data.Messages)),
		Messages:     views,
		MessageCount: len(data.Messages),
		GeneratedAt:  time.Now().Format("2006-01-02 15:04"),
	}

	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, "transcript", page); err != nil {
		return "", nil, fmt.Errorf("execute transcript template: %w", err)
	}
	return buf.String(), matched, nil
}

type sessionCard struct {
	File         string
	Date         string
	MessageCount int
	NodeCount    int
	Preview      string
}

type graphSection struct {
	Tree        string
	NodeCount   int
	BranchCount int
}

type indexData struct {
	ProjectName  string
	SessionCount int
	Cards        []sessionCard
	Graph        *graphSection
	CSS          template.CSS
	JS           template.JS
	GeneratedAt  string
}

// Index renders the session overview page.
func Index(sessions []model.SessionInfo, graph model.StenoGraph, css, projectName string) (string, error) {
	cards := make([]sessionCard, 0, len(sessions))
	for _, info := range sessions {
		preview := info.Preview
		if preview == "" {
			preview = "Session transcript"
		}
		cards = append(cards, sessionCard{
			File:         info.File,
			Date:         formatDate(info.FirstTimestamp),
			MessageCount: info.MessageCount,
			NodeCount:    info.NodeCount,
			Preview:      clip(preview, previewLimit),
		})
	}

	var section *graphSection
	if len(graph.Nodes) > 0 {
		section = &graphSection{
			Tree:        steno.Tree(graph),
			NodeCount:   len(graph.Nodes),
			BranchCount: len(graph.Branches),
		}
	}

	page := indexData{
		ProjectName:  projectName,
		SessionCount: len(sessions),
		Cards:        cards,
		Graph:        section,
		CSS:          template.CSS(css),
		JS:           template.JS(transcriptJS + "\n" + indexJS),
		GeneratedAt:  time.Now().Format("2006-01-02 15:04"),
	}

	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, "index", page); err != nil {
		return "", fmt.Errorf("execute index template: %w", err)
	}
	return buf.String(), nil
}

func newMessageView(msg model.Message) messageView {
	view := messageView{
		Kind:    string(msg.Role),
		UUID:    shortID(msg.UUID),
		Time:    formatTime(msg.Timestamp),
		Content: msg.Content,
		IsError: msg.IsError,
	}
	switch msg.Role {
	case model.RoleToolUse:
		view.ToolName = msg.ToolName
		if view.ToolName == "" {
			view.ToolName = "Unknown"
		}
		view.InputJSON = jsonPreview(msg.ToolInput, toolInputPreviewLimit)
	case model.RoleToolResult:
		view.ResultText = resultText(msg.Result, toolResultPreviewLimit)
	}
	return view
}

func newNodeBadge(node *model.StenoNode) *nodeBadge {
	status := "✓"
	if node.Status != "" && node.Status != "complete" {
		status = "✗"
	}
	branch := node.Branch
	if branch == "main" {
		branch = ""
	}
	return &nodeBadge{
		ID:      node.ID,
		Branch:  branch,
		Status:  status,
		Tooltip: clip(node.Summary, 100),
	}
}

func newStatsView(s model.SessionStats) statsView {
	view := statsView{
		UserMessages:      s.UserMessages,
		AssistantMessages: s.AssistantMessages,
		ThinkingBlocks:    s.ThinkingBlocks,
		ToolCalls:         s.ToolCalls,
		ToolResults:       s.ToolResults,
		UniqueTools:       len(s.ToolsUsed),
		TokensK:           fmt.Sprintf("~%.1fk", float64(s.EstimatedTokens)/1000),
		Duration:          "N/A",
	}
	if s.DurationSeconds > 0 {
		view.Duration = stats.FormatDuration(s.DurationSeconds)
	}

	names := make([]string, 0, len(s.ToolsUsed))
	maxCount := 1
	for name, count := range s.ToolsUsed {
		names = append(names, name)
		if count > maxCount {
			maxCount = count
		}
	}
	sort.Slice(names, func(i, j int) bool {
		if s.ToolsUsed[names[i]] != s.ToolsUsed[names[j]] {
			return s.ToolsUsed[names[i]] > s.ToolsUsed[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > toolChartLimit {
		names = names[:toolChartLimit]
	}
	for _, name := range names {
		count := s.ToolsUsed[name]
		view.ToolBars = append(view.ToolBars, toolBar{
			Name:    name,
			Count:   count,
			Percent: count * 100 / maxCount,
		})
	}
	return view
}

// jsonPreview pretty-prints a raw payload, clipped for display.
func jsonPreview(raw json.RawMessage, limit int) string {
	if len(raw) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return clip(string(raw), limit)
	}
	return clip(buf.String(), limit)
}

// resultText extracts display text from a tool result payload: a plain
// string, the joined text blocks of a block list, or the raw JSON.
func resultText(raw json.RawMessage, limit int) string {
	if len(raw) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return clip(text, limit)
	}

	var blocks []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &blocks); err == nil {
		var parts []string
		for _, block := range blocks {
			if block.Type == "text" && block.Text != "" {
				parts = append(parts, block.Text)
			}
		}
		if len(parts) > 0 {
			return clip(strings.Join(parts, "\n"), limit)
		}
	}

	return clip(string(raw), limit)
}

func formatTime(ts string) string {
	if ts == "" {
		return ""
	}
	parsed, err := stats.ParseTimestamp(ts)
	if err != nil {
		return ts
	}
	return parsed.Format("15:04:05")
}

func formatDate(ts string) string {
	if ts == "" {
		return ""
	}
	parsed, err := stats.ParseTimestamp(ts)
	if err != nil {
		return ts
	}
	return parsed.Format("January 02, 2006")
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func clip(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
