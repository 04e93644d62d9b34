// Package steno reads the external checkpoint graph and associates transcript
// messages with recorded nodes. The graph is an optional overlay: missing or
// malformed state never blocks transcript generation.
package steno

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shandley/stenograph/internal/model"
)

// commandPattern anchors a steno verb at the start of a command's first line.
// Matching is case-sensitive.
var commandPattern = regexp.MustCompile(`^(dx|ch|mk|rm|rn|cp|mv|viz|stat|fork|switch|compare|merge|abandon|steno):`)

type graphSession struct {
	Nodes []model.StenoNode `json:"nodes"`
}

type graphDocument struct {
	Sessions  []graphSession             `json:"sessions"`
	Branches  []model.StenoBranch        `json:"branches"`
	Bookmarks map[string]json.RawMessage `json:"bookmarks"`
}

type sessionDocument struct {
	Nodes []model.StenoNode `json:"nodes"`
}

// LoadGraph reads the checkpoint graph for projectDir from
// .steno/graph.json and .steno/current-session.json. Both documents are
// independently optional; a missing or malformed source contributes nothing.
// Current-session nodes overwrite aggregate nodes sharing an id.
func LoadGraph(projectDir string) model.StenoGraph {
	graph := model.StenoGraph{
		Nodes:     make(map[string]model.StenoNode),
		Bookmarks: make(map[string]json.RawMessage),
	}
	stenoDir := filepath.Join(projectDir, ".steno")

	var doc graphDocument
	if readJSON(filepath.Join(stenoDir, "graph.json"), &doc) {
		graph.Branches = doc.Branches
		if doc.Bookmarks != nil {
			graph.Bookmarks = doc.Bookmarks
		}
		for _, session := range doc.Sessions {
			for _, node := range session.Nodes {
				if node.ID == "" {
					continue
				}
				graph.Nodes[node.ID] = node
			}
		}
	}

	var current sessionDocument
	if readJSON(filepath.Join(stenoDir, "current-session.json"), &current) {
		for _, node := range current.Nodes {
			if node.ID == "" {
				continue
			}
			graph.Nodes[node.ID] = node
		}
	}

	return graph
}

// IsCommand reports whether text starts with a steno command. Only the first
// line of the trimmed text is considered.
func IsCommand(text string) bool {
	if text == "" {
		return false
	}
	return commandPattern.MatchString(firstLine(text))
}

// MatchNode associates command text with a recorded node: the first node
// whose raw text equals the message's first line, is a prefix of it, or has
// it as a prefix. Nodes are scanned in ascending id order so a given graph
// always resolves the same way. Nil means no recorded node, which is
// legitimate for commands whose node creation failed upstream.
func MatchNode(text string, nodes map[string]model.StenoNode) *model.StenoNode {
	if text == "" || len(nodes) == 0 {
		return nil
	}

	first := firstLine(text)
	for _, id := range sortedIDs(nodes) {
		node := nodes[id]
		if node.Raw == first || strings.HasPrefix(first, node.Raw) || strings.HasPrefix(node.Raw, first) {
			return &node
		}
	}
	return nil
}

func firstLine(text string) string {
	trimmed := strings.TrimSpace(text)
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

func sortedIDs(nodes map[string]model.StenoNode) []string {
	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ni, nj := nodeSortKey(ids[i]), nodeSortKey(ids[j])
		if ni != nj {
			return ni < nj
		}
		return ids[i] < ids[j]
	})
	return ids
}

// nodeSortKey orders ids of the form n_<k> numerically; anything else sorts
// first and falls back to lexical order.
func nodeSortKey(id string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(id, "n_"))
	if err != nil {
		return 0
	}
	return n
}

func readJSON(path string, v any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, v) == nil
}
