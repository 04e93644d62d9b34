// Package store discovers session log files under the Claude data directory.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when no session matches a requested id.
var ErrSessionNotFound = errors.New("session not found")

// SessionFile is one discovered session log.
type SessionFile struct {
	ID      string
	Path    string
	ModTime time.Time
}

// ProjectPath maps a working directory to its Claude project directory.
// The encoding replaces every slash with a dash, keeping the leading one.
func ProjectPath(claudeDir, cwd string) string {
	escaped := strings.ReplaceAll(cwd, "/", "-")
	return filepath.Join(claudeDir, "projects", escaped)
}

// FindSessions lists session logs in projectPath, newest first. Subagent
// logs (agent-*.jsonl) are skipped. Per-file failures become warnings rather
// than aborting the listing.
func FindSessions(projectPath string) ([]SessionFile, []error) {
	entries, err := os.ReadDir(projectPath)
	if err != nil {
		return nil, []error{fmt.Errorf("read project dir: %w", err)}
	}

	var sessions []SessionFile
	var warnings []error
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".jsonl") || strings.HasPrefix(name, "agent-") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			warnings = append(warnings, fmt.Errorf("stat %s: %w", name, err))
			continue
		}
		sessions = append(sessions, SessionFile{
			ID:      strings.TrimSuffix(name, ".jsonl"),
			Path:    filepath.Join(projectPath, name),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].ModTime.After(sessions[j].ModTime)
	})

	return sessions, warnings
}

// ResolveSession finds the session matching arg. A full canonical UUID must
// match a session id exactly; anything shorter matches by id prefix.
func ResolveSession(sessions []SessionFile, arg string) (SessionFile, error) {
	if arg == "" {
		return SessionFile{}, errors.New("session id is required")
	}

	if _, err := uuid.Parse(arg); err == nil && len(arg) == 36 {
		for _, session := range sessions {
			if session.ID == arg {
				return session, nil
			}
		}
		return SessionFile{}, fmt.Errorf("%w: %s", ErrSessionNotFound, arg)
	}

	for _, session := range sessions {
		if strings.HasPrefix(session.ID, arg) {
			return session, nil
		}
	}
	return SessionFile{}, fmt.Errorf("%w: %s", ErrSessionNotFound, arg)
}
