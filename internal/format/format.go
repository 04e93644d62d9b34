package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shandley/stenograph/internal/model"
)

// WriteSummaries writes session summaries to w in the requested format.
func WriteSummaries(w io.Writer, items []model.SessionInfo, includeHeader bool, format string) error {
	switch format {
	case "tsv":
		return writeSummariesTSV(w, items, includeHeader)
	case "json":
		return writeSummariesJSON(w, items)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// Truncate collapses whitespace and cuts s to max runes.
func Truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}

func writeSummariesTSV(w io.Writer, items []model.SessionInfo, includeHeader bool) error {
	if includeHeader {
		if _, err := fmt.Fprintln(w, "timestamp\tsession_id\tmessages\tnodes\tpreview"); err != nil {
			return err
		}
	}

	for _, item := range items {
		ts := item.FirstTimestamp
		if ts == "" {
			ts = "-"
		}
		line := fmt.Sprintf(
			"%s\t%s\t%d\t%d\t%s",
			ts,
			item.SessionID,
			item.MessageCount,
			item.NodeCount,
			escapeNewlines(item.Preview),
		)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeSummariesJSON(w io.Writer, items []model.SessionInfo) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

func escapeNewlines(text string) string {
	return strings.ReplaceAll(text, "\n", "\\n")
}
