package sweep

import (
	"sort"
	"strings"

	"github.com/forgeline/assetgen/internal/session"
)

// learningThreshold is the score above which a previous variant's direction
// is considered worth refining instead of exploring further.
const learningThreshold = 0.7

// assetPrompts are the base generation prompt templates per asset type.
// Placeholders are substituted by renderPrompt.
var assetPrompts = map[string]string{
	"icon": `Design a professional app icon for '{app_name}'.

Style: {aesthetic}
Colors: {colors}
Iconography: {iconography}

Requirements:
- Square format, App Store ready
- No text unless the brand requires it
- Professional quality, polished finish
- Clean edges, no artifacts
- Must read clearly at small sizes (48px)

{variation_directive}
`,

	"icon-adaptive-fg": `Design the FOREGROUND layer for an Android adaptive app icon for '{app_name}'.

This is the foreground layer that will be composited over a background layer.
The design should have transparent or semi-transparent areas to let the background show through.

Style: {aesthetic}
Colors: {colors}
Iconography: {iconography}

Requirements:
- Must work as a composited layer
- Central element should be within the safe zone (centered 66% of canvas)
- Professional quality
- PNG with transparency where appropriate

{variation_directive}
`,

	"icon-adaptive-bg": `Design the BACKGROUND layer for an Android adaptive app icon.

This layer will appear behind the foreground icon layer for '{app_name}'.
It should complement the brand without distracting from the foreground.

Style: {aesthetic}
Colors: {colors}

Requirements:
- Solid color, gradient, or subtle pattern
- Must complement the app's brand
- No complex details (will be partially covered)
- Professional quality

{variation_directive}
`,

	"splash": `Create a mobile splash screen for '{app_name}'.

Style: {aesthetic}
Colors: {colors}

Layout:
- App name or logo centered
- Premium, polished appearance
- Portrait orientation (9:16)
- Should feel like a luxury app loading experience

{variation_directive}
`,

	"feature": `Design a Play Store feature graphic for '{app_name}'.

Style: {aesthetic}
Colors: {colors}

Requirements:
- Wide landscape format (16:9, 1024x500)
- App name prominently displayed
- Compelling visual that represents the app
- Professional marketing quality
- Text readable at thumbnail size

{variation_directive}
`,
}

// variationDirectives vary the prompt per variant. Confident profiles get
// polish directives; uncertain ones get broad exploration.
var variationDirectives = map[string][]string{
	"high": {
		"Create a polished version maintaining the established style.",
		"Refine with subtle polish and perfect execution.",
		"Perfect the established design direction.",
	},
	"medium": {
		"Try a slightly bolder approach with the color palette.",
		"Experiment with a more minimal interpretation.",
		"Focus on iconography that's immediately recognizable.",
		"Add subtle depth and dimension.",
	},
	"low": {
		"Explore a clean, minimalist geometric approach.",
		"Try a bold, vibrant, modern interpretation.",
		"Create an abstract, artistic version.",
		"Design with playful, friendly aesthetics.",
		"Focus on professional, trustworthy appearance.",
		"Experiment with gradient depth and dimension.",
	},
}

// refinementDirectives replace the certainty-based set once a previous
// iteration produced a variant scoring above learningThreshold.
var refinementDirectives = []string{
	"Build on the successful approach. Refine and improve quality.",
	"Polish the winning direction with subtle improvements.",
	"Perfect the established style with professional finish.",
}

// BuildPrompts returns the prompt set for one iteration of an asset type.
// Variants cycle through the returned prompts in order.
//
// From the second iteration on, if any previously scored variant exceeded
// learningThreshold, the sweep switches from exploration to refinement.
func BuildPrompts(assetType string, profile session.StyleProfile, iteration int, previous []session.VariantResult) []string {
	directives := directivesFor(profile.Certainty)

	if iteration > 1 && bestScore(previous) > learningThreshold {
		directives = refinementDirectives
	}

	template, ok := assetPrompts[assetType]
	if !ok {
		template = assetPrompts["icon"]
	}

	prompts := make([]string, 0, len(directives))
	for _, directive := range directives {
		prompts = append(prompts, renderPrompt(template, profile, directive))
	}
	return prompts
}

// directivesFor returns the variation directives for a certainty tier,
// defaulting to the medium set for unknown tiers.
func directivesFor(certainty string) []string {
	if d, ok := variationDirectives[certainty]; ok {
		return d
	}
	return variationDirectives["medium"]
}

// bestScore returns the highest score among previous variants, 0 when none.
func bestScore(variants []session.VariantResult) float64 {
	var best float64
	for _, v := range variants {
		if v.Score > best {
			best = v.Score
		}
	}
	return best
}

// renderPrompt substitutes profile fields into a prompt template, filling
// sensible defaults for anything the analysis could not determine.
func renderPrompt(template string, profile session.StyleProfile, directive string) string {
	appName := profile.AppName
	if appName == "" {
		appName = "the app"
	}
	aesthetic := profile.Aesthetic
	if aesthetic == "" {
		aesthetic = "modern, clean, professional"
	}
	iconography := profile.Iconography
	if iconography == "" {
		iconography = "clear, recognizable, minimal"
	}
	colors := "balanced palette"
	if len(profile.Colors) > 0 {
		colors = strings.Join(profile.Colors, ", ")
	}

	return strings.NewReplacer(
		"{app_name}", appName,
		"{aesthetic}", aesthetic,
		"{colors}", colors,
		"{iconography}", iconography,
		"{variation_directive}", directive,
	).Replace(template)
}

// PromptAssetTypes returns the asset types with dedicated prompt templates,
// sorted for stable display.
func PromptAssetTypes() []string {
	types := make([]string, 0, len(assetPrompts))
	for t := range assetPrompts {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
