// Package analyzer inspects a project directory and extracts what asset
// generation needs to know about it: the platform, the app's name and
// package identifier, any existing launcher assets, and a style profile with
// a confidence estimate. The analysis is best-effort throughout; unreadable
// or malformed files are skipped, never fatal.
package analyzer

import (
	"encoding/xml"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	apperrors "github.com/forgeline/assetgen/internal/errors"
)

// maxReadBytes caps how much of any single file the analyzer will read.
// Project trees contain binaries and generated blobs that are irrelevant to
// style detection.
const maxReadBytes = 512 * 1024

// Report is the outcome of analyzing one project directory.
type Report struct {
	// Platform is one of android, ios, kmp, flutter, react-native, unknown.
	Platform string
	// AppName is the human-readable application name.
	AppName string
	// PackageID is the Android applicationId / manifest package, if found.
	PackageID string
	// Category is the inferred app category, "default" when nothing matched.
	Category string
	// Colors are hex color codes extracted from theme resources, capped at 10.
	Colors []string
	// ExistingIcons lists launcher icon files already present in the project.
	ExistingIcons []string
	// SuggestedAssets is the recommended asset type list for the platform.
	SuggestedAssets []string
	// Certainty is the analysis confidence in [0, 1].
	Certainty float64
}

// Analyzer scans one project tree. The directory listing is walked once and
// cached, so the individual detection passes are cheap.
type Analyzer struct {
	root string

	// relPaths holds every file and directory under root, slash-separated
	// and relative to it, populated by scan.
	relPaths []string
}

// New creates an Analyzer for the given project directory.
func New(projectPath string) *Analyzer {
	return &Analyzer{root: projectPath}
}

// Analyze runs the full analysis. It fails only when the project directory
// itself cannot be walked; everything inside is best-effort.
func (a *Analyzer) Analyze() (*Report, error) {
	if err := a.scan(); err != nil {
		return nil, apperrors.Wrapf(err, "cannot analyze project at %s", a.root)
	}

	platform := a.detectPlatform()
	colors := a.extractColors()
	icons := a.findExistingIcons(platform)
	category := a.inferCategory(platform)

	certainty := 0.5
	if len(colors) > 0 {
		certainty += 0.15
	}
	if len(icons) > 0 {
		certainty += 0.2
	}

	return &Report{
		Platform:        platform,
		AppName:         a.extractAppName(platform),
		PackageID:       a.extractPackageID(platform),
		Category:        category,
		Colors:          colors,
		ExistingIcons:   icons,
		SuggestedAssets: suggestedAssets(platform),
		Certainty:       certainty,
	}, nil
}

// scan walks the project tree once and caches every path. Version control
// metadata and dependency/build output directories are skipped: they are
// large and say nothing about the app's own style.
func (a *Analyzer) scan() error {
	a.relPaths = a.relPaths[:0]

	return filepath.WalkDir(a.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == a.root {
				return err
			}
			return nil
		}
		if path == a.root {
			return nil
		}

		name := d.Name()
		if d.IsDir() && (name == ".git" || name == "node_modules" || name == "build" || name == ".gradle") {
			return filepath.SkipDir
		}

		rel, relErr := filepath.Rel(a.root, path)
		if relErr != nil {
			return nil
		}
		a.relPaths = append(a.relPaths, filepath.ToSlash(rel))
		return nil
	})
}

// --- platform detection -------------------------------------------------

func (a *Analyzer) detectPlatform() string {
	// KMP projects carry both Android and iOS modules, so they must be
	// recognized before the single-platform checks claim them.
	kmpMarkers := []struct{ marker, companion string }{
		{"shared/build.gradle.kts", "composeApp"},
		{"shared/build.gradle", "iosApp"},
		{"composeApp/build.gradle.kts", "iosApp"},
	}
	for _, m := range kmpMarkers {
		if a.hasPathSuffix(m.marker) && a.hasPathContaining(m.companion) {
			return "kmp"
		}
	}

	switch {
	case a.hasPathSuffix("app/build.gradle.kts"), a.hasPathSuffix("app/build.gradle"):
		return "android"
	case a.anyFileContains("build.gradle.kts", "android"), a.anyFileContains("build.gradle", "android"):
		return "android"
	case a.hasExtension(".xcodeproj"), a.hasBaseName("Package.swift"), a.hasBaseName("Info.plist"):
		return "ios"
	case a.hasBaseName("pubspec.yaml"):
		return "flutter"
	case a.anyFileContains("app.json", "react-native"), a.hasBaseName("metro.config.js"):
		return "react-native"
	}
	return "unknown"
}

// --- name and package extraction ----------------------------------------

// androidManifest models the two pieces of AndroidManifest.xml the analyzer
// cares about: the package attribute and the application label.
type androidManifest struct {
	Package     string `xml:"package,attr"`
	Application struct {
		Label string `xml:"http://schemas.android.com/apk/res/android label,attr"`
	} `xml:"application"`
}

// stringResources models an Android strings.xml resource file.
type stringResources struct {
	Strings []struct {
		Name string `xml:"name,attr"`
		Text string `xml:",chardata"`
	} `xml:"string"`
}

var (
	plistDisplayNameRE = regexp.MustCompile(`<key>CFBundleDisplayName</key>\s*<string>([^<]+)</string>`)
	plistBundleNameRE  = regexp.MustCompile(`<key>CFBundleName</key>\s*<string>([^<]+)</string>`)
	applicationIDRE    = regexp.MustCompile(`applicationId\s*[=:]\s*["']([^"']+)["']`)
)

func (a *Analyzer) extractAppName(platform string) string {
	if platform == "android" || platform == "kmp" {
		for _, path := range a.filesNamed("AndroidManifest.xml") {
			var m androidManifest
			if err := xml.Unmarshal(a.readFile(path), &m); err != nil {
				continue
			}
			// A label like @string/app_name is a resource reference, not
			// the name itself.
			if label := m.Application.Label; label != "" && !strings.HasPrefix(label, "@") {
				return label
			}
		}
		for _, path := range a.filesNamed("strings.xml") {
			var res stringResources
			if err := xml.Unmarshal(a.readFile(path), &res); err != nil {
				continue
			}
			for _, s := range res.Strings {
				if s.Name == "app_name" && strings.TrimSpace(s.Text) != "" {
					return strings.TrimSpace(s.Text)
				}
			}
		}
	}

	if platform == "ios" || platform == "kmp" {
		for _, path := range a.filesNamed("Info.plist") {
			content := string(a.readFile(path))
			if m := plistDisplayNameRE.FindStringSubmatch(content); m != nil {
				return m[1]
			}
			if m := plistBundleNameRE.FindStringSubmatch(content); m != nil {
				return m[1]
			}
		}
	}

	return filepath.Base(a.root)
}

func (a *Analyzer) extractPackageID(platform string) string {
	if platform != "android" && platform != "kmp" {
		return ""
	}

	for _, path := range a.filesNamed("AndroidManifest.xml") {
		var m androidManifest
		if err := xml.Unmarshal(a.readFile(path), &m); err != nil {
			continue
		}
		if m.Package != "" {
			return m.Package
		}
	}

	for _, rel := range a.relPaths {
		base := filepath.Base(rel)
		if base != "build.gradle" && base != "build.gradle.kts" {
			continue
		}
		content := string(a.readFile(filepath.Join(a.root, filepath.FromSlash(rel))))
		if m := applicationIDRE.FindStringSubmatch(content); m != nil {
			return m[1]
		}
	}
	return ""
}

// --- existing assets and suggestions ------------------------------------

// findExistingIcons locates launcher icon files already shipped with the
// project. Their presence raises analysis certainty: the project has an
// established visual identity to match.
func (a *Analyzer) findExistingIcons(platform string) []string {
	var icons []string
	seen := map[string]bool{}

	add := func(rel string) {
		if !seen[rel] {
			seen[rel] = true
			icons = append(icons, filepath.Join(a.root, filepath.FromSlash(rel)))
		}
	}

	for _, rel := range a.relPaths {
		base := filepath.Base(rel)
		dir := filepath.ToSlash(filepath.Dir(rel))

		if platform == "android" || platform == "kmp" {
			inMipmap := strings.Contains(dir, "mipmap-") || strings.HasSuffix(dir, "mipmap")
			inDrawable := strings.Contains(dir, "drawable")
			isLauncher := strings.HasPrefix(base, "ic_launcher")

			if isLauncher && inMipmap && strings.HasSuffix(base, ".png") {
				add(rel)
			}
			if isLauncher && inDrawable && (strings.HasSuffix(base, ".png") || strings.HasSuffix(base, ".xml")) {
				add(rel)
			}
		}

		if platform == "ios" || platform == "kmp" {
			if strings.Contains(dir, "AppIcon.appiconset") && strings.HasSuffix(base, ".png") {
				add(rel)
			}
		}
	}
	return icons
}

// suggestedAssets returns the asset types worth generating for a platform.
func suggestedAssets(platform string) []string {
	assets := []string{"icon"}
	if platform == "android" || platform == "kmp" {
		assets = append(assets, "icon-adaptive-fg", "icon-adaptive-bg", "feature")
	}
	return append(assets, "splash")
}

// --- path helpers over the cached listing --------------------------------

func (a *Analyzer) hasPathSuffix(suffix string) bool {
	for _, p := range a.relPaths {
		if p == suffix || strings.HasSuffix(p, "/"+suffix) {
			return true
		}
	}
	return false
}

func (a *Analyzer) hasPathContaining(fragment string) bool {
	for _, p := range a.relPaths {
		if strings.Contains(p, fragment) {
			return true
		}
	}
	return false
}

func (a *Analyzer) hasBaseName(name string) bool {
	return len(a.filesNamed(name)) > 0
}

func (a *Analyzer) hasExtension(ext string) bool {
	for _, p := range a.relPaths {
		if filepath.Ext(p) == ext {
			return true
		}
	}
	return false
}

// filesNamed returns the absolute paths of every file with the given base
// name, in walk order.
func (a *Analyzer) filesNamed(name string) []string {
	var out []string
	for _, p := range a.relPaths {
		if filepath.Base(p) == name {
			out = append(out, filepath.Join(a.root, filepath.FromSlash(p)))
		}
	}
	return out
}

func (a *Analyzer) anyFileContains(name, needle string) bool {
	for _, path := range a.filesNamed(name) {
		if strings.Contains(string(a.readFile(path)), needle) {
			return true
		}
	}
	return false
}

// readFile reads up to maxReadBytes of a file, returning nil on any failure.
func (a *Analyzer) readFile(path string) []byte {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	buf := make([]byte, maxReadBytes)
	n, err := f.Read(buf)
	if n == 0 && err != nil {
		return nil
	}
	return buf[:n]
}
