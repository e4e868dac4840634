package analyzer

import (
	"encoding/xml"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/forgeline/assetgen/internal/session"
)

// maxColors bounds the extracted palette; generation prompts only ever use
// the first few.
const maxColors = 10

// categoryOrder fixes the iteration order for keyword scoring so that tied
// scores always resolve the same way.
var categoryOrder = []string{
	"weather", "game", "finance", "health", "social", "productivity",
	"travel", "food", "music", "photo", "news", "education", "ecommerce",
	"space",
}

var categoryKeywords = map[string][]string{
	"weather":      {"weather", "forecast", "climate", "temperature", "rain", "sun", "cloud"},
	"game":         {"game", "play", "level", "score", "player", "arcade"},
	"finance":      {"finance", "bank", "money", "payment", "wallet", "crypto", "stock"},
	"health":       {"health", "fitness", "workout", "medical", "wellness", "diet"},
	"social":       {"social", "chat", "message", "friend", "community", "feed"},
	"productivity": {"task", "todo", "note", "calendar", "schedule", "reminder"},
	"travel":       {"travel", "trip", "flight", "hotel", "map", "navigation"},
	"food":         {"food", "recipe", "restaurant", "delivery", "meal", "cook"},
	"music":        {"music", "audio", "song", "playlist", "podcast", "radio"},
	"photo":        {"photo", "camera", "gallery", "image", "filter", "edit"},
	"news":         {"news", "article", "feed", "magazine", "blog"},
	"education":    {"learn", "study", "course", "education", "quiz", "flashcard"},
	"ecommerce":    {"shop", "store", "cart", "product", "buy", "sell"},
	"space":        {"space", "rocket", "launch", "astronaut", "satellite", "orbit"},
}

// categoryStyle is the visual direction used when a project gives no
// stronger signal than its category.
type categoryStyle struct {
	aesthetic   string
	palette     string
	iconography string
}

var categoryStyles = map[string]categoryStyle{
	"weather": {
		aesthetic:   "clean, minimal, airy, light",
		palette:     "sky blue, white, soft gradients, cloud gray",
		iconography: "simple weather symbols, thin lines, rounded",
	},
	"game": {
		aesthetic:   "bold, playful, dynamic, energetic",
		palette:     "vibrant, high contrast, gradients, neon accents",
		iconography: "mascot-friendly, 3D depth, fun shapes",
	},
	"finance": {
		aesthetic:   "professional, trustworthy, clean, secure",
		palette:     "navy, green, gold accents, white",
		iconography: "geometric, symmetric, minimal, sharp",
	},
	"health": {
		aesthetic:   "calming, approachable, organic, fresh",
		palette:     "green, teal, soft pastels, white",
		iconography: "rounded, friendly, nature-inspired",
	},
	"social": {
		aesthetic:   "friendly, vibrant, modern, connected",
		palette:     "bright primaries, gradients, white",
		iconography: "speech bubbles, people, hearts, rounded",
	},
	"productivity": {
		aesthetic:   "focused, efficient, clean, organized",
		palette:     "blue, gray, white, accent color",
		iconography: "checkmarks, lists, geometric, minimal",
	},
	"travel": {
		aesthetic:   "adventurous, exciting, worldly",
		palette:     "sky blue, earth tones, sunset orange",
		iconography: "maps, planes, landmarks, compass",
	},
	"food": {
		aesthetic:   "warm, appetizing, inviting",
		palette:     "warm reds, orange, green, cream",
		iconography: "utensils, plates, ingredients, rounded",
	},
	"music": {
		aesthetic:   "dynamic, rhythmic, expressive",
		palette:     "purple, pink, black, neon",
		iconography: "notes, waves, headphones, abstract",
	},
	"photo": {
		aesthetic:   "creative, artistic, visual",
		palette:     "gradient, colorful, black/white contrast",
		iconography: "camera, aperture, frames, filters",
	},
	"space": {
		aesthetic:   "cosmic, futuristic, dynamic, awe-inspiring",
		palette:     "deep navy, flame orange, cosmic blue, star white",
		iconography: "rockets, stars, planets, orbits, gradients",
	},
	"default": {
		aesthetic:   "modern, clean, professional",
		palette:     "balanced palette with primary accent color",
		iconography: "clear, recognizable, scalable, minimal",
	},
}

// composeColorRE matches Color(0xAARRGGBB) literals in Compose theme files.
var composeColorRE = regexp.MustCompile(`Color\(0x([0-9A-Fa-f]{8})\)`)

// colorResources models an Android colors.xml resource file.
type colorResources struct {
	Colors []struct {
		Text string `xml:",chardata"`
	} `xml:"color"`
}

// extractColors pulls a palette from Android color resources and Compose
// theme files, in first-seen order.
func (a *Analyzer) extractColors() []string {
	var colors []string
	seen := map[string]bool{}

	add := func(c string) {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] || len(colors) >= maxColors {
			return
		}
		seen[c] = true
		colors = append(colors, c)
	}

	for _, path := range a.filesNamed("colors.xml") {
		var res colorResources
		if err := xml.Unmarshal(a.readFile(path), &res); err != nil {
			continue
		}
		for _, c := range res.Colors {
			add(c.Text)
		}
	}

	for _, rel := range a.relPaths {
		base := filepath.Base(rel)
		if !strings.HasSuffix(base, ".kt") {
			continue
		}
		if !strings.Contains(base, "Theme") && !strings.Contains(base, "Color") {
			continue
		}
		content := a.readFile(filepath.Join(a.root, filepath.FromSlash(rel)))
		for _, m := range composeColorRE.FindAllSubmatch(content, -1) {
			// 0xAARRGGBB: drop the alpha byte.
			add("#" + string(m[1][2:]))
		}
	}

	return colors
}

// inferCategory scores category keywords against the project's name, package
// identifier, string resources, and README, picking the highest-scoring
// category. Ties resolve in categoryOrder.
func (a *Analyzer) inferCategory(platform string) string {
	var sources []string
	sources = append(sources, strings.ToLower(filepath.Base(a.root)))

	if pkg := a.extractPackageID(platform); pkg != "" {
		sources = append(sources, strings.ToLower(pkg))
	}

	for _, path := range a.filesNamed("strings.xml") {
		var res stringResources
		if err := xml.Unmarshal(a.readFile(path), &res); err != nil {
			continue
		}
		for _, s := range res.Strings {
			sources = append(sources, strings.ToLower(s.Text))
		}
	}

	if readme := a.readFile(filepath.Join(a.root, "README.md")); readme != nil {
		sources = append(sources, strings.ToLower(string(readme)))
	}

	combined := strings.Join(sources, " ")

	best := "default"
	bestScore := 0
	for _, category := range categoryOrder {
		score := 0
		for _, kw := range categoryKeywords[category] {
			if strings.Contains(combined, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = category, score
		}
	}
	return best
}

// styleFor returns the default visual direction for a category.
func styleFor(category string) categoryStyle {
	if s, ok := categoryStyles[category]; ok {
		return s
	}
	return categoryStyles["default"]
}

// Confirm returns the certainty after the user has confirmed the analysis,
// capped at 1.0.
func Confirm(certainty float64) float64 {
	certainty += 0.15
	if certainty > 1.0 {
		return 1.0
	}
	return certainty
}

// CertaintyTier maps a numeric certainty to the tier used by prompt
// construction: confident profiles get polish directives, uncertain ones get
// broad exploration.
func CertaintyTier(certainty float64) string {
	switch {
	case certainty > 0.8:
		return "high"
	case certainty > 0.5:
		return "medium"
	default:
		return "low"
	}
}

// StyleProfile converts the report into the profile stored in the session.
// Extracted colors take precedence; when the project yielded none, the
// category's descriptive palette stands in so prompts still get direction.
func (r *Report) StyleProfile() session.StyleProfile {
	style := styleFor(r.Category)

	colors := r.Colors
	if len(colors) == 0 {
		colors = []string{style.palette}
	}

	return session.StyleProfile{
		Platform:    r.Platform,
		AppName:     r.AppName,
		PackageID:   r.PackageID,
		Category:    r.Category,
		Colors:      colors,
		Aesthetic:   style.aesthetic,
		Iconography: style.iconography,
		Certainty:   CertaintyTier(r.Certainty),
	}
}
