package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/shandley/stenograph/internal/format"
	"github.com/shandley/stenograph/internal/links"
	"github.com/shandley/stenograph/internal/model"
	"github.com/shandley/stenograph/internal/parser"
	"github.com/shandley/stenograph/internal/render"
	"github.com/shandley/stenograph/internal/stats"
	"github.com/shandley/stenograph/internal/steno"
	"github.com/shandley/stenograph/internal/store"
)

const (
	colorGreen = "\x1b[32m"
	colorReset = "\x1b[0m"
)

var rootCmd = &cobra.Command{
	Use:   "stenograph",
	Short: "Generate themed HTML transcripts from Claude Code session logs",
}

func init() {
	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newInfoCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "stenograph: %v\n", err)
		os.Exit(1)
	}
}

func newGenerateCmd() *cobra.Command {
	var (
		all        bool
		sessionArg string
		outputDir  string
		cwd        string
		cssPath    string
		openAfter  bool
		claudeDir  string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate HTML transcripts for the most recent, a named, or all sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all && sessionArg != "" {
				return errors.New("--session cannot be used with --all")
			}

			if cwd == "" {
				wd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("determine current directory: %w", err)
				}
				cwd = wd
			}
			if !filepath.IsAbs(outputDir) {
				outputDir = filepath.Join(cwd, outputDir)
			}

			out := cmd.OutOrStdout()
			errs := cmd.ErrOrStderr()
			green := colorize(colorGreen)

			projectPath := store.ProjectPath(claudeDir, cwd)
			if _, err := os.Stat(projectPath); err != nil {
				return fmt.Errorf("no Claude project directory for %s (looked in %s)", cwd, projectPath)
			}

			css := render.LoadCSS(cssPath)
			graph := steno.LoadGraph(cwd)
			if len(graph.Nodes) > 0 {
				fmt.Fprintf(out, "Loaded %d steno nodes\n", len(graph.Nodes))
			}

			sessions, warnings := store.FindSessions(projectPath)
			for _, warn := range warnings {
				fmt.Fprintf(errs, "warning: %v\n", warn)
			}
			if len(sessions) == 0 {
				return fmt.Errorf("no sessions found in %s", projectPath)
			}
			fmt.Fprintf(out, "Found %d sessions\n", len(sessions))

			var targets []store.SessionFile
			switch {
			case sessionArg != "":
				match, err := store.ResolveSession(sessions, sessionArg)
				if err != nil {
					return fmt.Errorf("session %q: %w", sessionArg, err)
				}
				targets = []store.SessionFile{match}
			case all:
				targets = sessions
			default:
				targets = sessions[:1]
			}

			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}

			registryPath := filepath.Join(cwd, ".steno", "transcript-links.json")
			registry := links.Load(registryPath)

			generated := make(map[string]links.SessionEntry)
			var infos []model.SessionInfo
			var firstPage string
			for _, target := range targets {
				fmt.Fprintf(out, "Processing: %s\n", filepath.Base(target.Path))

				data, err := parser.ParseSession(target.Path)
				if err != nil {
					fmt.Fprintf(errs, "warning: %v\n", err)
					continue
				}
				if len(data.Messages) == 0 {
					continue
				}

				html, matched, err := render.Transcript(data, graph, css)
				if err != nil {
					return err
				}

				name := shortID(data.ID) + ".html"
				pagePath := filepath.Join(outputDir, name)
				if err := os.WriteFile(pagePath, []byte(html), 0o644); err != nil {
					return fmt.Errorf("write transcript: %w", err)
				}
				if firstPage == "" {
					firstPage = pagePath
				}

				fmt.Fprintf(out, "  %s✓%s %s (%d messages, %d nodes)\n",
					green, colorize(colorReset), name, len(data.Messages), len(matched))

				if matched == nil {
					matched = []string{}
				}
				generated[data.ID] = links.SessionEntry{
					File:         name,
					MessageCount: len(data.Messages),
					Nodes:        matched,
				}
				infos = append(infos, model.SessionInfo{
					SessionID:      data.ID,
					File:           name,
					MessageCount:   len(data.Messages),
					NodeCount:      len(matched),
					Preview:        format.Truncate(parser.FirstUserText(data.Messages), 100),
					FirstTimestamp: data.FirstTimestamp,
					MatchedNodes:   matched,
				})
			}

			if len(infos) == 0 {
				return errors.New("no transcripts generated")
			}

			registry.Update(relOutputDir(cwd, outputDir), generated, time.Now())
			if err := registry.Save(registryPath); err != nil {
				return err
			}

			if all || len(infos) > 1 {
				cards := indexCards(infos, registry)
				html, err := render.Index(cards, graph, css, filepath.Base(cwd))
				if err != nil {
					return err
				}
				indexPath := filepath.Join(outputDir, "index.html")
				if err := os.WriteFile(indexPath, []byte(html), 0o644); err != nil {
					return fmt.Errorf("write index: %w", err)
				}
				fmt.Fprintf(out, "  %s✓%s index.html (%d sessions)\n",
					green, colorize(colorReset), len(cards))
				firstPage = indexPath
			}

			fmt.Fprintf(out, "\nGenerated %d transcript(s)\n", len(infos))
			fmt.Fprintf(out, "Output: %s\n", outputDir)

			if openAfter && firstPage != "" {
				if err := openBrowser(firstPage); err != nil {
					fmt.Fprintf(errs, "warning: open browser: %v\n", err)
				}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&all, "all", false, "generate transcripts for every session in the project")
	flags.StringVar(&sessionArg, "session", "", "generate a single session by id or id prefix")
	flags.StringVar(&outputDir, "output", filepath.Join(".steno", "transcripts"), "output directory for generated HTML")
	flags.StringVar(&cwd, "cwd", "", "project directory (defaults to the current directory)")
	flags.StringVar(&cssPath, "css", "", "custom stylesheet replacing the embedded theme")
	flags.BoolVar(&openAfter, "open", false, "open the generated page in a browser")
	flags.StringVar(&claudeDir, "claude-dir", defaultClaudeDir(), "override the Claude data directory")

	return cmd
}

func newListCmd() *cobra.Command {
	var (
		cwd          string
		formatFlag   string
		limit        int
		noHeader     bool
		summaryWidth int
		claudeDir    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List project sessions in reverse chronological order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cwd == "" {
				wd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("determine current directory: %w", err)
				}
				cwd = wd
			}

			projectPath := store.ProjectPath(claudeDir, cwd)
			sessions, warnings := store.FindSessions(projectPath)
			errs := cmd.ErrOrStderr()
			for _, warn := range warnings {
				fmt.Fprintf(errs, "warning: %v\n", warn)
			}
			if limit > 0 && len(sessions) > limit {
				sessions = sessions[:limit]
			}

			graph := steno.LoadGraph(cwd)
			maxSummary := summaryWidth
			if maxSummary <= 0 {
				maxSummary = terminalSummaryWidth(cmd)
			}

			items := make([]model.SessionInfo, 0, len(sessions))
			for _, session := range sessions {
				info := model.SessionInfo{SessionID: session.ID}
				data, err := parser.ParseSession(session.Path)
				if err != nil {
					fmt.Fprintf(errs, "warning: %v\n", err)
				} else {
					info.MessageCount = len(data.Messages)
					info.FirstTimestamp = data.FirstTimestamp
					info.Preview = format.Truncate(parser.FirstUserText(data.Messages), maxSummary)
					info.NodeCount = matchedNodeCount(data.Messages, graph)
				}
				items = append(items, info)
			}

			return format.WriteSummaries(cmd.OutOrStdout(), items, !noHeader, strings.ToLower(formatFlag))
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cwd, "cwd", "", "project directory (defaults to the current directory)")
	flags.StringVar(&formatFlag, "format", "tsv", "output format: tsv or json")
	flags.IntVar(&limit, "limit", 0, "limit number of sessions returned (0 means no limit)")
	flags.BoolVar(&noHeader, "no-header", false, "omit header row for tsv output")
	flags.IntVar(&summaryWidth, "summary-width", 0, "maximum characters in the preview column (0 means terminal width)")
	flags.StringVar(&claudeDir, "claude-dir", defaultClaudeDir(), "override the Claude data directory")

	return cmd
}

func newInfoCmd() *cobra.Command {
	var (
		cwd        string
		formatFlag string
		claudeDir  string
	)

	cmd := &cobra.Command{
		Use:   "info <session-id-or-prefix>",
		Short: "Show metadata and statistics for one session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cwd == "" {
				wd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("determine current directory: %w", err)
				}
				cwd = wd
			}

			projectPath := store.ProjectPath(claudeDir, cwd)
			sessions, warnings := store.FindSessions(projectPath)
			errs := cmd.ErrOrStderr()
			for _, warn := range warnings {
				fmt.Fprintf(errs, "warning: %v\n", warn)
			}

			match, err := store.ResolveSession(sessions, args[0])
			if err != nil {
				return fmt.Errorf("session %q: %w", args[0], err)
			}

			data, err := parser.ParseSession(match.Path)
			if err != nil {
				return err
			}
			s := stats.Compute(data.Messages)

			payload := struct {
				SessionID       string         `json:"session_id"`
				JSONLPath       string         `json:"jsonl_path"`
				FirstTimestamp  string         `json:"first_timestamp"`
				LastTimestamp   string         `json:"last_timestamp"`
				MessageCount    int            `json:"message_count"`
				UserMessages    int            `json:"user_messages"`
				AssistantMsgs   int            `json:"assistant_messages"`
				ThinkingBlocks  int            `json:"thinking_blocks"`
				ToolCalls       int            `json:"tool_calls"`
				ToolsUsed       map[string]int `json:"tools_used"`
				EstimatedTokens int            `json:"estimated_tokens"`
				DurationSeconds int            `json:"duration_seconds"`
				Summary         string         `json:"summary"`
			}{
				SessionID:       data.ID,
				JSONLPath:       match.Path,
				FirstTimestamp:  s.FirstTimestamp,
				LastTimestamp:   s.LastTimestamp,
				MessageCount:    s.TotalMessages,
				UserMessages:    s.UserMessages,
				AssistantMsgs:   s.AssistantMessages,
				ThinkingBlocks:  s.ThinkingBlocks,
				ToolCalls:       s.ToolCalls,
				ToolsUsed:       s.ToolsUsed,
				EstimatedTokens: s.EstimatedTokens,
				DurationSeconds: s.DurationSeconds,
				Summary:         format.Truncate(parser.FirstUserText(data.Messages), 160),
			}

			switch strings.ToLower(formatFlag) {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(payload)
			case "text":
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Session ID: %s\n", payload.SessionID)
				fmt.Fprintf(out, "JSONL Path: %s\n", payload.JSONLPath)
				fmt.Fprintf(out, "First Timestamp: %s\n", payload.FirstTimestamp)
				fmt.Fprintf(out, "Message Count: %d\n", payload.MessageCount)
				fmt.Fprintf(out, "User Messages: %d\n", payload.UserMessages)
				fmt.Fprintf(out, "Assistant Messages: %d\n", payload.AssistantMsgs)
				fmt.Fprintf(out, "Thinking Blocks: %d\n", payload.ThinkingBlocks)
				fmt.Fprintf(out, "Tool Calls: %d\n", payload.ToolCalls)
				fmt.Fprintf(out, "Estimated Tokens: %d\n", payload.EstimatedTokens)
				fmt.Fprintf(out, "Duration: %s\n", stats.FormatDuration(payload.DurationSeconds))
				fmt.Fprintf(out, "Summary: %s\n", payload.Summary)
				return nil
			default:
				return fmt.Errorf("unsupported format: %s", formatFlag)
			}
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cwd, "cwd", "", "project directory (defaults to the current directory)")
	flags.StringVar(&formatFlag, "format", "json", "output format: json or text")
	flags.StringVar(&claudeDir, "claude-dir", defaultClaudeDir(), "override the Claude data directory")

	return cmd
}

// indexCards combines this run's sessions with registry entries from earlier
// runs so the index always lists every known transcript, newest first.
func indexCards(infos []model.SessionInfo, registry links.Registry) []model.SessionInfo {
	seen := make(map[string]bool, len(infos))
	cards := append([]model.SessionInfo(nil), infos...)
	for _, info := range infos {
		seen[info.SessionID] = true
	}

	var previous []model.SessionInfo
	for id, entry := range registry.Sessions {
		if seen[id] {
			continue
		}
		previous = append(previous, model.SessionInfo{
			SessionID:    id,
			File:         entry.File,
			MessageCount: entry.MessageCount,
			NodeCount:    len(entry.Nodes),
			Preview:      "Previous session",
		})
	}
	sort.Slice(previous, func(i, j int) bool {
		return previous[i].SessionID < previous[j].SessionID
	})
	return append(cards, previous...)
}

func matchedNodeCount(messages []model.Message, graph model.StenoGraph) int {
	count := 0
	for _, msg := range messages {
		if msg.Role != model.RoleUser || !steno.IsCommand(msg.Content) {
			continue
		}
		if steno.MatchNode(msg.Content, graph.Nodes) != nil {
			count++
		}
	}
	return count
}

// relOutputDir records the output dir the way the registry consumers expect:
// relative to the project when it lives inside it, absolute otherwise.
func relOutputDir(cwd, outputDir string) string {
	rel, err := filepath.Rel(cwd, outputDir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return outputDir
	}
	return rel
}

func terminalSummaryWidth(cmd *cobra.Command) int {
	const fallback = 100
	f, ok := cmd.OutOrStdout().(*os.File)
	if !ok {
		return fallback
	}
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
		return w
	}
	return fallback
}

// colorize returns the ANSI sequence when stdout is a color-capable
// terminal, empty otherwise.
func colorize(code string) string {
	if os.Getenv("NO_COLOR") != "" {
		return ""
	}
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return ""
	}
	return code
}

func defaultClaudeDir() string {
	if dir := os.Getenv("STENOGRAPH_CLAUDE_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".claude")
}

func openBrowser(path string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", path).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", path).Start()
	default:
		return exec.Command("xdg-open", path).Start()
	}
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
