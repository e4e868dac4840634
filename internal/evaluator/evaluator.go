// Package evaluator scores generated artifacts against a project's style
// profile using an external vision model. Scoring is best-effort: a scorer
// failure or an unparseable response degrades to a neutral score instead of
// failing the variant, so one flaky evaluation never costs a generated image.
package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/forgeline/assetgen/internal/logging"
	"github.com/forgeline/assetgen/internal/session"
)

// NeutralScore is returned when the scorer fails or its response cannot be
// parsed. It keeps the variant eligible for selection without favoring it.
const NeutralScore = 0.5

// criterionWeights are the rubric weights. They sum to 1.0, but the weighted
// score renormalizes over whichever criteria the response actually contains.
var criterionWeights = []struct {
	name   string
	weight float64
}{
	{"brand_alignment", 0.25},
	{"clarity", 0.25},
	{"professionalism", 0.20},
	{"uniqueness", 0.15},
	{"technical", 0.15},
}

const evaluationPromptTemplate = `Evaluate this %s image for a mobile app.

Style Requirements:
%s

Score the image on these criteria (0-10 each):
1. **Brand Alignment**: Does it match the specified style, colors, and aesthetic?
2. **Clarity**: Is the design clear and readable at small sizes (48px for icons)?
3. **Professionalism**: Does it look polished and app-store ready?
4. **Uniqueness**: Is it distinctive and memorable?
5. **Technical Quality**: No artifacts, proper composition, good contrast?

IMPORTANT: Respond with ONLY a valid JSON object, no other text:
{"brand_alignment": <0-10>, "clarity": <0-10>, "professionalism": <0-10>, "uniqueness": <0-10>, "technical": <0-10>, "overall": <0-10>, "notes": "<brief feedback>"}`

// Scorer is the external vision backend that judges an image against a
// textual rubric prompt and returns the model's raw text response.
type Scorer interface {
	Score(ctx context.Context, prompt string, imagePath string) (string, error)
}

// Evaluation is the parsed outcome of scoring one artifact.
type Evaluation struct {
	// Score is the final weighted score in [0, 1].
	Score float64
	// Criteria holds the per-criterion raw scores (0-10 scale) when the
	// response parsed. Empty when the neutral fallback was used.
	Criteria map[string]float64
	// Notes is the model's free-text feedback, if any.
	Notes string
}

// Evaluator scores artifacts through a Scorer.
type Evaluator struct {
	scorer Scorer
	log    *logging.Logger
}

// New creates an Evaluator around the given scorer.
func New(scorer Scorer, log *logging.Logger) *Evaluator {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Evaluator{scorer: scorer, log: log}
}

// Evaluate scores one artifact. It never returns an error for scorer or parse
// failures; those degrade to NeutralScore so the sweep keeps the variant.
func (e *Evaluator) Evaluate(ctx context.Context, imagePath, assetType string, profile session.StyleProfile) Evaluation {
	prompt := fmt.Sprintf(evaluationPromptTemplate, assetType, FormatStyleRequirements(profile))

	log := e.log.WithPhase("evaluate").WithAssetType(assetType)

	text, err := e.scorer.Score(ctx, prompt, imagePath)
	if err != nil {
		log.Warn("scorer call failed, using neutral score", "path", imagePath, "error", err.Error())
		return Evaluation{Score: NeutralScore}
	}

	criteria, ok := parseEvaluationResponse(text)
	if !ok {
		log.Warn("unparseable scorer response, using neutral score", "path", imagePath)
		return Evaluation{Score: NeutralScore}
	}

	eval := Evaluation{
		Score:    weightedScore(criteria),
		Criteria: criteriaOnly(criteria),
		Notes:    notesFrom(text),
	}

	log.Debug("artifact scored", "path", imagePath, "score", eval.Score)
	return eval
}

// FormatStyleRequirements renders the style profile as rubric context for the
// evaluation prompt. An empty profile gets a generic professional baseline.
func FormatStyleRequirements(profile session.StyleProfile) string {
	var parts []string

	if len(profile.Colors) > 0 {
		colors := profile.Colors
		if len(colors) > 5 {
			colors = colors[:5]
		}
		parts = append(parts, fmt.Sprintf("Colors: %s", strings.Join(colors, ", ")))
	}
	if profile.Category != "" {
		parts = append(parts, fmt.Sprintf("App category: %s", profile.Category))
	}
	if profile.AppName != "" {
		parts = append(parts, fmt.Sprintf("App name: %s", profile.AppName))
	}
	if profile.Description != "" {
		parts = append(parts, fmt.Sprintf("Description: %s", profile.Description))
	}

	if len(parts) == 0 {
		return "Professional, modern mobile app design. Clean, clear, app-store ready."
	}
	return strings.Join(parts, "\n")
}

// parseEvaluationResponse extracts the rubric JSON from model output. Models
// regularly wrap the JSON in prose or code fences, so a failed direct parse
// falls back to the outermost brace-delimited substring.
func parseEvaluationResponse(text string) (map[string]float64, bool) {
	if m, ok := tryParseScores(strings.TrimSpace(text)); ok {
		return m, true
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if m, ok := tryParseScores(text[start : end+1]); ok {
			return m, true
		}
	}

	return nil, false
}

// tryParseScores unmarshals a JSON object and keeps its numeric fields.
func tryParseScores(s string) (map[string]float64, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, false
	}

	scores := make(map[string]float64)
	for k, v := range raw {
		if f, ok := toFloat(v); ok {
			scores[k] = f
		}
	}
	if len(scores) == 0 {
		return nil, false
	}
	return scores, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// weightedScore combines the per-criterion scores into a [0, 1] score.
// Missing criteria drop out and the remaining weights renormalize. A response
// with no weighted criteria falls back to its overall field scaled from the
// 0-10 range; with nothing parseable at all, the neutral score applies.
func weightedScore(scores map[string]float64) float64 {
	var total, weightSum float64
	for _, cw := range criterionWeights {
		if v, ok := scores[cw.name]; ok {
			total += (v / 10.0) * cw.weight
			weightSum += cw.weight
		}
	}
	if weightSum > 0 {
		return clampUnit(total / weightSum)
	}

	if overall, ok := scores["overall"]; ok {
		return clampUnit(overall / 10.0)
	}

	return NeutralScore
}

// criteriaOnly strips non-rubric numeric fields (like overall) from the
// stored per-criterion map.
func criteriaOnly(scores map[string]float64) map[string]float64 {
	out := make(map[string]float64)
	for _, cw := range criterionWeights {
		if v, ok := scores[cw.name]; ok {
			out[cw.name] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// notesFrom pulls the notes field out of the response JSON, if present.
func notesFrom(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	var raw struct {
		Notes string `json:"notes"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return ""
	}
	return raw.Notes
}

// clampUnit forces a score into [0, 1]. Models occasionally score above the
// stated scale.
func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
