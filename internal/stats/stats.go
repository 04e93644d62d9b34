// Package stats derives summary statistics from an extracted message
// sequence.
package stats

import (
	"fmt"
	"time"

	"github.com/shandley/stenograph/internal/model"
)

// Compute aggregates per-role counts, tool usage, a rough token estimate and
// the session duration. The token estimate is length/4 over textual content;
// tool payloads contribute nothing.
func Compute(messages []model.Message) model.SessionStats {
	s := model.SessionStats{
		TotalMessages: len(messages),
		ToolsUsed:     make(map[string]int),
	}

	for _, msg := range messages {
		if msg.Timestamp != "" {
			if s.FirstTimestamp == "" {
				s.FirstTimestamp = msg.Timestamp
			}
			s.LastTimestamp = msg.Timestamp
		}

		switch msg.Role {
		case model.RoleUser:
			s.UserMessages++
			s.EstimatedTokens += len(msg.Content) / 4
		case model.RoleAssistant:
			s.AssistantMessages++
			s.EstimatedTokens += len(msg.Content) / 4
		case model.RoleThinking:
			s.ThinkingBlocks++
			s.EstimatedTokens += len(msg.Content) / 4
		case model.RoleToolUse:
			s.ToolCalls++
			name := msg.ToolName
			if name == "" {
				name = "Unknown"
			}
			s.ToolsUsed[name]++
		case model.RoleToolResult:
			s.ToolResults++
		}
	}

	s.DurationSeconds = durationSeconds(s.FirstTimestamp, s.LastTimestamp)
	return s
}

// ParseTimestamp reads an ISO-8601 timestamp; a trailing Z reads as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, value)
}

// FormatDuration renders seconds as a short human-readable span.
func FormatDuration(seconds int) string {
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	default:
		return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
	}
}

func durationSeconds(first, last string) int {
	if first == "" || last == "" {
		return 0
	}
	start, err := ParseTimestamp(first)
	if err != nil {
		return 0
	}
	end, err := ParseTimestamp(last)
	if err != nil {
		return 0
	}
	// Well-formed logs never go backwards; a negative value is reported
	// as computed rather than clamped.
	return int(end.Sub(start).Seconds())
}
