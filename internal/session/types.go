// Package session provides durable, resumable state for asset generation
// sweeps. A session records every completed iteration and the best selection
// per asset type as a single JSON document, persisted atomically after each
// iteration so an interrupted run can resume from its last fully-written
// state.
package session

import (
	"sort"
	"time"
)

// SessionFileName is the name of the session state file inside a project's
// output directory.
const SessionFileName = "session.json"

// Status represents the lifecycle state of a session.
type Status string

const (
	// StatusInProgress indicates the sweep has not finished all asset types.
	StatusInProgress Status = "in_progress"
	// StatusComplete indicates every requested asset type has a best selection.
	StatusComplete Status = "complete"
)

// Sweep dimension bounds. Out-of-range requests are clamped, not rejected.
const (
	MinDimension  = 1
	MaxIterations = 20
	MaxVariants   = 10
)

// Settings holds the sweep dimensions for a session. The values are fixed at
// session creation and reused verbatim on resume.
type Settings struct {
	// Iterations is the number of refinement passes per asset type.
	Iterations int `json:"iterations"`
	// Variants is the number of artifacts produced per iteration.
	Variants int `json:"variants"`
}

// Clamp returns a copy of s with both dimensions forced into their valid
// ranges. Requesting iterations=50 with a max of 20 yields 20, not an error.
func (s Settings) Clamp() Settings {
	return Settings{
		Iterations: clamp(s.Iterations, MinDimension, MaxIterations),
		Variants:   clamp(s.Variants, MinDimension, MaxVariants),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// StyleProfile captures what project analysis learned about the target app.
// It is computed once at session creation and read verbatim on resume, so a
// resumed run sees exactly the context the original run saw even if the
// project has since changed on disk.
type StyleProfile struct {
	Platform    string   `json:"platform"`
	AppName     string   `json:"app_name"`
	PackageID   string   `json:"package_id,omitempty"`
	Category    string   `json:"category"`
	Description string   `json:"description,omitempty"`
	Colors      []string `json:"colors,omitempty"`
	// Aesthetic and Iconography are the inferred visual direction used in
	// generation prompts, e.g. "modern, clean, professional".
	Aesthetic   string `json:"aesthetic,omitempty"`
	Iconography string `json:"iconography,omitempty"`
	// Certainty reflects how confident the analysis is: "high", "medium",
	// or "low". Prompts explore more as certainty drops.
	Certainty string `json:"certainty"`
}

// VariantResult is the outcome of generating and scoring one variant.
type VariantResult struct {
	// Variant is the 1-based variant number within its iteration.
	Variant int `json:"variant"`
	// Iteration is the 1-based iteration the variant belongs to. Stored
	// redundantly with the iteration map key so flattened views keep it.
	Iteration int `json:"iteration"`
	// Filename is the artifact's file name within the output directory.
	Filename string `json:"filename"`
	// Path is the absolute path of the saved artifact.
	Path string `json:"path"`
	// Prompt is the full generation prompt used for this variant.
	Prompt string `json:"prompt"`
	// Score is the final evaluation score in [0, 1].
	Score float64 `json:"score"`
	// Scores holds the per-criterion scores when the evaluator returned
	// a parseable rubric. Empty when the neutral fallback was used.
	Scores map[string]float64 `json:"scores,omitempty"`
	// Reasoning is the evaluator's free-text justification, if any.
	Reasoning string `json:"reasoning,omitempty"`
}

// IterationRecord is the immutable result of one (asset type, iteration)
// pass. Once written it is never modified, only overwritten wholesale if the
// same iteration is recorded again.
type IterationRecord struct {
	Variants    []VariantResult `json:"variants"`
	CompletedAt time.Time       `json:"completed_at"`
}

// BestSelection identifies the winning variant for an asset type. It is
// recomputed from all recorded variants at the end of the type's sweep and
// overwritten, never merged.
type BestSelection struct {
	Path       string    `json:"path"`
	Filename   string    `json:"filename"`
	Score      float64   `json:"score"`
	Iteration  int       `json:"iteration"`
	Variant    int       `json:"variant"`
	SelectedAt time.Time `json:"selected_at"`
}

// Session is the complete durable state of one asset generation run.
//
// Iteration records are keyed by asset type, then by iteration number.
// Go marshals integer map keys as JSON strings, so the on-disk form is
// {"icon": {"1": {...}, "2": {...}}}.
type Session struct {
	ID          string       `json:"session_id"`
	ProjectName string       `json:"project_name"`
	ProjectPath string       `json:"project_path,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	Status      Status       `json:"status"`
	AssetTypes  []string     `json:"asset_types"`
	Profile     StyleProfile `json:"style_profile"`
	Settings    Settings     `json:"settings"`

	Iterations map[string]map[int]IterationRecord `json:"iterations"`
	Best       map[string]BestSelection           `json:"best_selections"`

	// Resume cursor: the last (asset type, iteration) whose record was
	// fully persisted. Iteration 0 means no iteration has completed yet
	// for CurrentAssetType.
	CurrentAssetType string `json:"current_asset_type,omitempty"`
	CurrentIteration int    `json:"current_iteration"`
}

// IterationsFor returns the recorded iteration map for an asset type,
// which may be nil when nothing has been recorded yet.
func (s *Session) IterationsFor(assetType string) map[int]IterationRecord {
	if s.Iterations == nil {
		return nil
	}
	return s.Iterations[assetType]
}

// CompletedIterations returns how many iterations have been fully recorded
// for the given asset type.
func (s *Session) CompletedIterations(assetType string) int {
	return len(s.IterationsFor(assetType))
}

// PendingAssetTypes returns the requested asset types that do not yet have a
// best selection, preserving the original request order. The request order is
// load-bearing: it is also the selection tie-break order.
func (s *Session) PendingAssetTypes() []string {
	pending := make([]string, 0, len(s.AssetTypes))
	for _, t := range s.AssetTypes {
		if _, done := s.Best[t]; !done {
			pending = append(pending, t)
		}
	}
	return pending
}

// AllVariantsFor returns copies of every recorded variant for an asset type
// across all iterations, in increasing (iteration, variant) order. Each copy
// carries its iteration number so callers can rank a flat list.
func (s *Session) AllVariantsFor(assetType string) []VariantResult {
	records := s.IterationsFor(assetType)
	if len(records) == 0 {
		return nil
	}

	iterations := make([]int, 0, len(records))
	for n := range records {
		iterations = append(iterations, n)
	}
	sort.Ints(iterations)

	var out []VariantResult
	for _, n := range iterations {
		for _, v := range records[n].Variants {
			v.Iteration = n
			out = append(out, v)
		}
	}
	return out
}
