package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	apperrors "github.com/forgeline/assetgen/internal/errors"
)

// sessionIDTimeFormat is the timestamp layout embedded in session IDs.
// Microsecond precision avoids collisions across rapid successive runs
// against the same project.
const sessionIDTimeFormat = "20060102_150405.000000"

// Store manages the durable session file for one project output directory.
// Every mutation persists the full session atomically before returning, so
// the on-disk state always reflects a prefix of completed work.
//
// A Store is single-writer: only the sweep driving this process may write the
// session. Concurrent runs against the same session are the caller's problem
// to prevent.
type Store struct {
	dir  string
	path string
	mu   sync.Mutex

	// now is injectable for deterministic session IDs and timestamps in tests.
	now func() time.Time
}

// NewStore creates a Store rooted at the given project output directory.
// The directory does not need to exist yet; it is created on first write.
func NewStore(dir string) *Store {
	return &Store{
		dir:  dir,
		path: filepath.Join(dir, SessionFileName),
		now:  time.Now,
	}
}

// Path returns the session file path.
func (st *Store) Path() string {
	return st.path
}

// Dir returns the project output directory this store is rooted at.
func (st *Store) Dir() string {
	return st.dir
}

// Exists reports whether a session file is present in the store directory.
func (st *Store) Exists() bool {
	_, err := os.Stat(st.path)
	return err == nil
}

// Create initializes a new session, persists it, and returns it. Settings are
// clamped into their valid ranges before being recorded. The session ID is
// {projectName}_{timestamp}.
func (st *Store) Create(projectName, projectPath string, assetTypes []string, profile StyleProfile, settings Settings) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	sess := &Session{
		ID:          fmt.Sprintf("%s_%s", projectName, now.Format(sessionIDTimeFormat)),
		ProjectName: projectName,
		ProjectPath: projectPath,
		CreatedAt:   now,
		UpdatedAt:   now,
		Status:      StatusInProgress,
		AssetTypes:  append([]string(nil), assetTypes...),
		Profile:     profile,
		Settings:    settings.Clamp(),
		Iterations:  make(map[string]map[int]IterationRecord),
		Best:        make(map[string]BestSelection),
	}

	if err := st.persist(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Load reads the session from disk. If expectedID is non-empty, the stored
// session ID must match it exactly.
//
// Missing file, unparseable content, and ID mismatch are all state-fatal:
// the caller must abort rather than risk diverging from recorded history.
func (st *Store) Load(expectedID string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	data, err := os.ReadFile(st.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewSessionError("no session file", apperrors.ErrSessionNotFound).
				WithSessionID(expectedID).
				WithPath(st.path)
		}
		return nil, apperrors.NewSessionError("failed to read session file", err).
			WithPath(st.path)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, apperrors.NewSessionError(
			fmt.Sprintf("invalid session JSON: %v", err),
			apperrors.ErrSessionCorrupted,
		).WithPath(st.path)
	}

	if sess.ID == "" {
		return nil, apperrors.NewSessionError("session file missing id", apperrors.ErrSessionCorrupted).
			WithPath(st.path)
	}
	if expectedID != "" && sess.ID != expectedID {
		return nil, apperrors.NewSessionError(
			fmt.Sprintf("expected %s, found %s", expectedID, sess.ID),
			apperrors.ErrSessionIDMismatch,
		).WithSessionID(expectedID).WithPath(st.path)
	}

	if sess.Iterations == nil {
		sess.Iterations = make(map[string]map[int]IterationRecord)
	}
	if sess.Best == nil {
		sess.Best = make(map[string]BestSelection)
	}

	return &sess, nil
}

// RecordIteration stores the results of one completed (asset type, iteration)
// pass, advances the resume cursor, and persists the full session atomically.
// An empty variant slice is still recorded so the cursor moves past
// iterations whose every variant failed.
func (st *Store) RecordIteration(sess *Session, assetType string, iteration int, variants []VariantResult) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if sess.Iterations == nil {
		sess.Iterations = make(map[string]map[int]IterationRecord)
	}
	if sess.Iterations[assetType] == nil {
		sess.Iterations[assetType] = make(map[int]IterationRecord)
	}

	now := st.now()
	for i := range variants {
		variants[i].Iteration = iteration
	}
	sess.Iterations[assetType][iteration] = IterationRecord{
		Variants:    variants,
		CompletedAt: now,
	}

	sess.CurrentAssetType = assetType
	sess.CurrentIteration = iteration
	sess.UpdatedAt = now

	return st.persist(sess)
}

// RecordBest stores the winning variant for an asset type and persists.
// Any previous selection for the type is overwritten.
func (st *Store) RecordBest(sess *Session, assetType string, best BestSelection) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if sess.Best == nil {
		sess.Best = make(map[string]BestSelection)
	}

	now := st.now()
	best.SelectedAt = now
	sess.Best[assetType] = best
	sess.UpdatedAt = now

	return st.persist(sess)
}

// MarkComplete transitions the session to its terminal state and persists.
func (st *Store) MarkComplete(sess *Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	sess.Status = StatusComplete
	sess.CompletedAt = &now
	sess.UpdatedAt = now

	return st.persist(sess)
}

// Save persists the session as-is without touching timestamps or cursor.
func (st *Store) Save(sess *Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.persist(sess)
}

// persist writes the full session to the session file atomically. Callers
// must hold st.mu.
func (st *Store) persist(sess *Session) error {
	if err := os.MkdirAll(st.dir, 0755); err != nil {
		return apperrors.NewSessionError("failed to create session directory", err).
			WithSessionID(sess.ID).
			WithPath(st.dir)
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return apperrors.NewSessionError("failed to marshal session", err).
			WithSessionID(sess.ID)
	}

	if err := atomicWriteFile(st.path, data, 0644); err != nil {
		return apperrors.NewSessionError("failed to write session file", err).
			WithSessionID(sess.ID).
			WithPath(st.path)
	}
	return nil
}

// atomicWriteFile writes data to a file atomically by writing to a temporary
// file first, then renaming. A reader never observes a half-written session.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	// Create temp file in same directory to ensure atomic rename
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on any error
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	// Write data
	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	// Sync to disk
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Set permissions
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
