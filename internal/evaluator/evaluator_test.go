package evaluator

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/forgeline/assetgen/internal/session"
)

// fakeScorer returns a canned response or error.
type fakeScorer struct {
	text string
	err  error
}

func (f *fakeScorer) Score(ctx context.Context, prompt, imagePath string) (string, error) {
	return f.text, f.err
}

func scoreOf(t *testing.T, response string) float64 {
	t.Helper()
	e := New(&fakeScorer{text: response}, nil)
	eval := e.Evaluate(context.Background(), "/tmp/icon.jpg", "icon", session.StyleProfile{})
	return eval.Score
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// -----------------------------------------------------------------------------
// Score Computation Tests
// -----------------------------------------------------------------------------

func TestEvaluate_FullRubric(t *testing.T) {
	resp := `{"brand_alignment": 8, "clarity": 8, "professionalism": 8, "uniqueness": 8, "technical": 8, "overall": 8, "notes": "solid"}`

	if got := scoreOf(t, resp); !almostEqual(got, 0.8) {
		t.Errorf("score = %v, want 0.8 for uniform 8s", got)
	}
}

func TestEvaluate_WeightedMix(t *testing.T) {
	// brand 10*0.25 + clarity 0*0.25 + professionalism 10*0.20
	// + uniqueness 10*0.15 + technical 10*0.15 = 7.5/10
	resp := `{"brand_alignment": 10, "clarity": 0, "professionalism": 10, "uniqueness": 10, "technical": 10}`

	if got := scoreOf(t, resp); !almostEqual(got, 0.75) {
		t.Errorf("score = %v, want 0.75", got)
	}
}

func TestEvaluate_MissingCriteriaRenormalize(t *testing.T) {
	// Only two criteria present: (8/10*0.25 + 6/10*0.25) / 0.5 = 0.7
	resp := `{"brand_alignment": 8, "clarity": 6}`

	if got := scoreOf(t, resp); !almostEqual(got, 0.7) {
		t.Errorf("score = %v, want 0.7 with renormalized weights", got)
	}
}

func TestEvaluate_OverallFallback(t *testing.T) {
	// No weighted criteria at all: fall back to overall scaled from 0-10.
	resp := `{"overall": 7, "notes": "decent"}`

	if got := scoreOf(t, resp); !almostEqual(got, 0.7) {
		t.Errorf("score = %v, want 0.7 from overall fallback", got)
	}
}

func TestEvaluate_UnparseableYieldsNeutral(t *testing.T) {
	tests := []struct {
		name string
		resp string
	}{
		{"plain prose", "This image looks quite nice overall."},
		{"broken json", `{"brand_alignment": 8,`},
		{"empty", ""},
		{"json with no numbers", `{"notes": "nice"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scoreOf(t, tt.resp); got != NeutralScore {
				t.Errorf("score = %v, want neutral %v", got, NeutralScore)
			}
		})
	}
}

func TestEvaluate_ScorerErrorYieldsNeutral(t *testing.T) {
	e := New(&fakeScorer{err: fmt.Errorf("connection refused")}, nil)
	eval := e.Evaluate(context.Background(), "/tmp/icon.jpg", "icon", session.StyleProfile{})

	if eval.Score != NeutralScore {
		t.Errorf("score = %v, want neutral %v on scorer failure", eval.Score, NeutralScore)
	}
	if eval.Criteria != nil {
		t.Errorf("criteria = %v, want none for fallback", eval.Criteria)
	}
}

func TestEvaluate_JSONEmbeddedInProse(t *testing.T) {
	resp := "Sure! Here is my evaluation:\n```json\n" +
		`{"brand_alignment": 9, "clarity": 9, "professionalism": 9, "uniqueness": 9, "technical": 9, "notes": "great"}` +
		"\n```\nLet me know if you need more detail."

	if got := scoreOf(t, resp); !almostEqual(got, 0.9) {
		t.Errorf("score = %v, want 0.9 extracted from fenced JSON", got)
	}
}

func TestEvaluate_ScoreClampedToUnit(t *testing.T) {
	resp := `{"overall": 15}`

	if got := scoreOf(t, resp); got != 1.0 {
		t.Errorf("score = %v, want clamped to 1.0", got)
	}
}

func TestEvaluate_CarriesCriteriaAndNotes(t *testing.T) {
	resp := `{"brand_alignment": 8, "clarity": 7, "professionalism": 9, "uniqueness": 6, "technical": 8, "overall": 8, "notes": "strong palette"}`
	e := New(&fakeScorer{text: resp}, nil)

	eval := e.Evaluate(context.Background(), "/tmp/icon.jpg", "icon", session.StyleProfile{})

	if len(eval.Criteria) != 5 {
		t.Errorf("criteria = %v, want the 5 rubric entries", eval.Criteria)
	}
	if _, hasOverall := eval.Criteria["overall"]; hasOverall {
		t.Error("overall must not appear among rubric criteria")
	}
	if eval.Notes != "strong palette" {
		t.Errorf("notes = %q, want model feedback", eval.Notes)
	}
}

// -----------------------------------------------------------------------------
// Prompt Context Tests
// -----------------------------------------------------------------------------

func TestFormatStyleRequirements(t *testing.T) {
	profile := session.StyleProfile{
		AppName:  "MyApp",
		Category: "productivity",
		Colors:   []string{"#FF5722", "#212121", "#FAFAFA", "#111111", "#222222", "#333333"},
	}

	got := FormatStyleRequirements(profile)

	if !strings.Contains(got, "App category: productivity") {
		t.Errorf("missing category in %q", got)
	}
	if !strings.Contains(got, "#FF5722") {
		t.Errorf("missing colors in %q", got)
	}
	if strings.Contains(got, "#333333") {
		t.Errorf("colors should be capped at 5, got %q", got)
	}
}

func TestFormatStyleRequirements_EmptyProfile(t *testing.T) {
	got := FormatStyleRequirements(session.StyleProfile{})
	if !strings.Contains(got, "Professional, modern mobile app design") {
		t.Errorf("empty profile should use the generic baseline, got %q", got)
	}
}
