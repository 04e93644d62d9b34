package parser

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shandley/stenograph/internal/model"
)

type rawRecord struct {
	Type      string          `json:"type"`
	Message   json.RawMessage `json:"message"`
	Timestamp string          `json:"timestamp"`
	UUID      string          `json:"uuid"`
}

type messagePayload struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type contentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	Thinking  string          `json:"thinking"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input"`
	ID        string          `json:"id"`
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
	IsError   bool            `json:"is_error"`
}

// ParseSession reads a session JSONL file and extracts transcript messages.
// Individual lines that fail to decode are skipped: session logs are
// append-only and may end in a torn write. Only open/scan failures surface
// as errors.
func ParseSession(path string) (*model.SessionData, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open session file: %w", err)
	}
	defer file.Close()

	data := &model.SessionData{
		ID:   sessionID(path),
		Path: path,
	}

	scanner := newScanner(file)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var rec rawRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		if rec.Type != "user" && rec.Type != "assistant" {
			// summary, file-history-snapshot and anything else carry no
			// transcript content.
			continue
		}

		if data.FirstTimestamp == "" && rec.Timestamp != "" {
			data.FirstTimestamp = rec.Timestamp
		}

		data.Messages = append(data.Messages, extract(rec)...)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	return data, nil
}

// FirstUserText returns the content of the first non-empty user message.
func FirstUserText(messages []model.Message) string {
	for _, msg := range messages {
		if msg.Role == model.RoleUser && msg.Content != "" {
			return msg.Content
		}
	}
	return ""
}

func extract(rec rawRecord) []model.Message {
	var payload messagePayload
	if len(rec.Message) > 0 {
		if err := json.Unmarshal(rec.Message, &payload); err != nil {
			return nil
		}
	}

	switch rec.Type {
	case "user":
		return extractUser(payload.Content, rec)
	case "assistant":
		return extractAssistant(payload.Content, rec)
	}
	return nil
}

func extractUser(content json.RawMessage, rec rawRecord) []model.Message {
	// Missing content reads as an empty prompt, which still yields a message.
	if len(content) == 0 {
		return []model.Message{{
			Role:      model.RoleUser,
			Timestamp: rec.Timestamp,
			UUID:      rec.UUID,
		}}
	}

	var text string
	if err := json.Unmarshal(content, &text); err == nil {
		return []model.Message{{
			Role:      model.RoleUser,
			Content:   text,
			Timestamp: rec.Timestamp,
			UUID:      rec.UUID,
		}}
	}

	var blocks []contentBlock
	if err := json.Unmarshal(content, &blocks); err != nil {
		return nil
	}

	var out []model.Message
	for _, block := range blocks {
		if block.Type != "tool_result" {
			continue
		}
		out = append(out, model.Message{
			Role:      model.RoleToolResult,
			ToolID:    block.ToolUseID,
			Result:    block.Content,
			IsError:   block.IsError,
			Timestamp: rec.Timestamp,
			UUID:      rec.UUID,
		})
	}
	return out
}

func extractAssistant(content json.RawMessage, rec rawRecord) []model.Message {
	var blocks []contentBlock
	if err := json.Unmarshal(content, &blocks); err != nil {
		return nil
	}

	var out []model.Message
	for _, block := range blocks {
		switch block.Type {
		case "thinking":
			out = append(out, model.Message{
				Role:      model.RoleThinking,
				Content:   block.Thinking,
				Timestamp: rec.Timestamp,
				UUID:      rec.UUID,
			})
		case "text":
			out = append(out, model.Message{
				Role:      model.RoleAssistant,
				Content:   block.Text,
				Timestamp: rec.Timestamp,
				UUID:      rec.UUID,
			})
		case "tool_use":
			out = append(out, model.Message{
				Role:      model.RoleToolUse,
				ToolName:  block.Name,
				ToolInput: block.Input,
				ToolID:    block.ID,
				Timestamp: rec.Timestamp,
				UUID:      rec.UUID,
			})
		}
	}
	return out
}

func sessionID(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".jsonl")
}

func newScanner(file *os.File) *bufio.Scanner {
	scanner := bufio.NewScanner(file)
	// Allow large payloads such as tool outputs.
	const maxCapacity = 8 * 1024 * 1024
	buf := make([]byte, 1024)
	scanner.Buffer(buf, maxCapacity)
	return scanner
}
