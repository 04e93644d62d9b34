package model

import "encoding/json"

// Role identifies the kind of transcript message.
type Role string

const (
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleThinking   Role = "thinking"
	RoleToolUse    Role = "tool_use"
	RoleToolResult Role = "tool_result"
)

// Message is one normalized unit extracted from a session record.
// Content carries the text for user/assistant/thinking messages; the tool
// fields are populated for tool_use and tool_result messages only.
type Message struct {
	Role      Role
	Content   string
	ToolName  string
	ToolInput json.RawMessage
	ToolID    string
	Result    json.RawMessage
	IsError   bool
	Timestamp string
	UUID      string
}

// SessionData holds the extracted contents of one session log.
type SessionData struct {
	ID             string
	Path           string
	Messages       []Message
	FirstTimestamp string
}

// SessionStats is derived from a message sequence and immutable once computed.
type SessionStats struct {
	TotalMessages     int
	UserMessages      int
	AssistantMessages int
	ThinkingBlocks    int
	ToolCalls         int
	ToolResults       int
	ToolsUsed         map[string]int
	EstimatedTokens   int
	DurationSeconds   int
	FirstTimestamp    string
	LastTimestamp     string
}

// StenoNode is one named checkpoint in the external graph store. This tool
// only reads nodes, never writes them.
type StenoNode struct {
	ID      string `json:"id"`
	Raw     string `json:"raw"`
	Status  string `json:"status"`
	Branch  string `json:"branch"`
	Summary string `json:"summary"`
}

// StenoBranch groups nodes that diverged from a parent node.
type StenoBranch struct {
	Name       string   `json:"name"`
	ParentNode string   `json:"parentNode"`
	Status     string   `json:"status"`
	Nodes      []string `json:"nodes"`
}

// StenoGraph is a read-only snapshot of the checkpoint graph, loaded fresh
// per invocation.
type StenoGraph struct {
	Nodes     map[string]StenoNode
	Branches  []StenoBranch
	Bookmarks map[string]json.RawMessage
}

// SessionInfo summarizes one generated transcript for the index page, the
// list command, and the link registry.
type SessionInfo struct {
	SessionID      string   `json:"session_id"`
	File           string   `json:"file"`
	MessageCount   int      `json:"message_count"`
	NodeCount      int      `json:"node_count"`
	Preview        string   `json:"preview"`
	FirstTimestamp string   `json:"first_timestamp,omitempty"`
	MatchedNodes   []string `json:"nodes,omitempty"`
}
