package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/forgeline/assetgen/internal/errors"
)

// FindSessionByID locates the project output directory holding the session
// with the given ID. outputBase is the directory under which per-project
// output directories live.
//
// Session IDs have the form {projectName}_{date}_{time}; the project name may
// itself contain underscores, so the ID is split from the right. The derived
// project directory is probed first, then every directory under outputBase is
// scanned as a fallback (covers projects renamed after the session was
// created).
func FindSessionByID(outputBase, sessionID string) (string, error) {
	if _, err := os.Stat(outputBase); err != nil {
		if os.IsNotExist(err) {
			return "", apperrors.NewSessionError("output directory does not exist", apperrors.ErrSessionNotFound).
				WithSessionID(sessionID).
				WithPath(outputBase)
		}
		return "", apperrors.NewSessionError("failed to access output directory", err).
			WithPath(outputBase)
	}

	// Fast path: derive the project name from the ID and probe directly.
	if project := projectNameFromID(sessionID); project != "" {
		dir := filepath.Join(outputBase, project)
		if sessionFileMatches(filepath.Join(dir, SessionFileName), sessionID) {
			return dir, nil
		}
	}

	// Fallback: scan all project directories.
	entries, err := os.ReadDir(outputBase)
	if err != nil {
		return "", apperrors.NewSessionError("failed to scan output directory", err).
			WithPath(outputBase)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(outputBase, entry.Name())
		if sessionFileMatches(filepath.Join(dir, SessionFileName), sessionID) {
			return dir, nil
		}
	}

	return "", apperrors.NewSessionError("no session with that id", apperrors.ErrSessionNotFound).
		WithSessionID(sessionID).
		WithPath(outputBase)
}

// projectNameFromID strips the trailing {date}_{time} segments from a session
// ID. Returns the first underscore-delimited segment when the ID does not
// carry both timestamp parts.
func projectNameFromID(sessionID string) string {
	parts := strings.Split(sessionID, "_")
	if len(parts) >= 3 {
		return strings.Join(parts[:len(parts)-2], "_")
	}
	return parts[0]
}

// sessionFileMatches reports whether path holds a parseable session file with
// the given ID. Unreadable or corrupt files never match; discovery must not
// abort on one bad directory.
func sessionFileMatches(path, sessionID string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var probe struct {
		ID string `json:"session_id"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	return probe.ID == sessionID
}

// ListSessions returns the session recorded in every project directory under
// outputBase, skipping directories without a parseable session file. The
// result order follows directory listing order.
func ListSessions(outputBase string) ([]*Session, error) {
	entries, err := os.ReadDir(outputBase)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.NewSessionError("failed to scan output directory", err).
			WithPath(outputBase)
	}

	var sessions []*Session
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		st := NewStore(filepath.Join(outputBase, entry.Name()))
		if !st.Exists() {
			continue
		}
		sess, err := st.Load("")
		if err != nil {
			continue
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}
