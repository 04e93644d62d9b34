package steno

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shandley/stenograph/internal/model"
)

// Tree renders an ASCII view of the graph: main-branch nodes in order, with
// child branches and their nodes nested under the node they forked from.
func Tree(graph model.StenoGraph) string {
	if len(graph.Nodes) == 0 {
		return ""
	}

	var mainBranch *model.StenoBranch
	var others []model.StenoBranch
	for i := range graph.Branches {
		if graph.Branches[i].Name == "main" {
			mainBranch = &graph.Branches[i]
		} else {
			others = append(others, graph.Branches[i])
		}
	}

	var lines []string
	if mainBranch != nil {
		mainNodes := sortedNodeList(mainBranch.Nodes)
		for i, id := range mainNodes {
			lines = renderNode(lines, graph, others, id, "", i == len(mainNodes)-1)
		}
	}

	if len(lines) == 0 {
		return "No steno nodes found."
	}
	return strings.Join(lines, "\n")
}

func renderNode(lines []string, graph model.StenoGraph, others []model.StenoBranch, nodeID, prefix string, isLast bool) []string {
	node := graph.Nodes[nodeID]
	raw := node.Raw
	if raw == "" {
		raw = "unknown"
	}
	symbol := "○"
	if node.Status == "failed" {
		symbol = "✗"
	}
	connector := "├─"
	if isLast {
		connector = "└─"
	}
	lines = append(lines, fmt.Sprintf("%s%s%s %s %s", prefix, connector, symbol, nodeID, raw))

	childPrefix := prefix + "│ "
	if isLast {
		childPrefix = prefix + "  "
	}

	var children []model.StenoBranch
	for _, branch := range others {
		if branch.ParentNode == nodeID {
			children = append(children, branch)
		}
	}

	for i, child := range children {
		lastChild := i == len(children)-1

		statusIcon := ""
		switch child.Status {
		case "merged":
			statusIcon = " ✓"
		case "abandoned":
			statusIcon = " ✗"
		}
		branchConnector := "├"
		if lastChild {
			branchConnector = "└"
		}
		lines = append(lines, fmt.Sprintf("%s%s─⎯ [%s]%s", childPrefix, branchConnector, child.Name, statusIcon))

		branchPrefix := childPrefix + "│ "
		if lastChild {
			branchPrefix = childPrefix + "  "
		}
		branchNodes := sortedNodeList(child.Nodes)
		for j, bnID := range branchNodes {
			bn := graph.Nodes[bnID]
			bnRaw := bn.Raw
			if bnRaw == "" {
				bnRaw = "unknown"
			}
			bnSymbol := "○"
			if bn.Status == "failed" {
				bnSymbol = "✗"
			}
			bnConnector := "├─"
			if j == len(branchNodes)-1 {
				bnConnector = "└─"
			}
			lines = append(lines, fmt.Sprintf("%s%s%s %s %s", branchPrefix, bnConnector, bnSymbol, bnID, bnRaw))
		}
	}

	return lines
}

func sortedNodeList(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.SliceStable(out, func(i, j int) bool {
		return nodeSortKey(out[i]) < nodeSortKey(out[j])
	})
	return out
}
