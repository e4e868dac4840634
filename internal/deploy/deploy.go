// Package deploy places a session's best selections into the target
// project's platform asset directories. Files are copied as-is: resampling
// to density-specific sizes is a build-pipeline concern, not ours.
//
// Deployment is best-effort end to end. A missing artifact, an unlocatable
// resource directory, or a failed copy is reported and skipped; the sweep's
// results stay intact in the output directory either way.
package deploy

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/forgeline/assetgen/internal/errors"
	"github.com/forgeline/assetgen/internal/logging"
	"github.com/forgeline/assetgen/internal/session"
)

// androidMipmapDirs are the launcher icon density buckets. The same source
// file is placed in each; Android scales at render time when densities do
// not match exactly.
var androidMipmapDirs = []string{
	"mipmap-mdpi",
	"mipmap-hdpi",
	"mipmap-xhdpi",
	"mipmap-xxhdpi",
	"mipmap-xxxhdpi",
}

// androidResCandidates are the conventional res/ locations, checked before
// falling back to a tree walk.
var androidResCandidates = []string{
	"app/src/main/res",
	"androidApp/src/main/res",
	"composeApp/src/androidMain/res",
}

// iosMarketingIconName follows the appiconset naming convention for the
// 1024pt marketing icon.
const iosMarketingIconName = "Icon-App-1024x1024@1x.png"

// Result summarizes one deployment run.
type Result struct {
	// Android and IOS list the files written into each platform tree.
	Android []string
	IOS     []string
	// Skipped lists asset types that had a best selection but no deploy
	// target (splash and feature stay in the output directory).
	Skipped []string
	// Problems collects the per-item failures that were skipped over.
	Problems []error
}

// Deployed returns the total number of files placed.
func (r *Result) Deployed() int {
	return len(r.Android) + len(r.IOS)
}

// Deployer copies best selections into one project tree.
type Deployer struct {
	projectRoot string
	platform    string
	log         *logging.Logger
}

// New creates a Deployer for the given project directory and detects its
// platform up front.
func New(projectRoot string, log *logging.Logger) *Deployer {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Deployer{
		projectRoot: projectRoot,
		platform:    detectPlatform(projectRoot),
		log:         log,
	}
}

// Platform returns the detected target platform: android, ios, kmp, or
// unknown.
func (d *Deployer) Platform() string {
	return d.platform
}

// Deploy places every best selection recorded in the session. It never
// fails outright: per-item problems are collected in the result.
func (d *Deployer) Deploy(sess *session.Session) *Result {
	res := &Result{}

	// Request order, for stable output.
	for _, assetType := range sess.AssetTypes {
		sel, ok := sess.Best[assetType]
		if !ok {
			continue
		}

		if _, err := os.Stat(sel.Path); err != nil {
			d.problem(res, assetType, sel.Path, apperrors.NewDeployError("artifact missing", err).WithAssetType(assetType))
			continue
		}

		switch assetType {
		case "icon":
			if d.targetsAndroid() {
				d.deployAndroidIcon(res, sel.Path)
			}
			if d.targetsIOS() {
				d.deployIOSIcon(res, sel.Path)
			}
		case "icon-adaptive-fg":
			if d.targetsAndroid() {
				d.deployAdaptiveLayer(res, sel.Path, "foreground")
			}
		case "icon-adaptive-bg":
			if d.targetsAndroid() {
				d.deployAdaptiveLayer(res, sel.Path, "background")
			}
		default:
			// Splash screens and feature graphics are uploaded manually;
			// they stay in the output directory.
			res.Skipped = append(res.Skipped, assetType)
		}
	}

	return res
}

func (d *Deployer) targetsAndroid() bool {
	return d.platform == "android" || d.platform == "kmp"
}

func (d *Deployer) targetsIOS() bool {
	return d.platform == "ios" || d.platform == "kmp"
}

// deployAndroidIcon copies the icon into every mipmap density directory.
func (d *Deployer) deployAndroidIcon(res *Result, source string) {
	resDir, err := d.findAndroidResDir()
	if err != nil {
		d.problem(res, "icon", source, err)
		return
	}

	for _, mipmap := range androidMipmapDirs {
		target := filepath.Join(resDir, mipmap, "ic_launcher.png")
		if err := copyInto(source, target); err != nil {
			d.problem(res, "icon", target, apperrors.NewDeployError("copy failed", err).WithAssetType("icon").WithTarget(target))
			continue
		}
		res.Android = append(res.Android, target)
		d.log.Debug("deployed", "target", target)
	}
}

// deployIOSIcon copies the icon into the AppIcon.appiconset as the 1024pt
// marketing image.
func (d *Deployer) deployIOSIcon(res *Result, source string) {
	appiconset, err := d.findIOSAppIconSet()
	if err != nil {
		d.problem(res, "icon", source, err)
		return
	}

	target := filepath.Join(appiconset, iosMarketingIconName)
	if err := copyInto(source, target); err != nil {
		d.problem(res, "icon", target, apperrors.NewDeployError("copy failed", err).WithAssetType("icon").WithTarget(target))
		return
	}
	res.IOS = append(res.IOS, target)
	d.log.Debug("deployed", "target", target)
}

// deployAdaptiveLayer places an adaptive icon layer into res/drawable.
func (d *Deployer) deployAdaptiveLayer(res *Result, source, layer string) {
	assetType := "icon-adaptive-fg"
	if layer == "background" {
		assetType = "icon-adaptive-bg"
	}

	resDir, err := d.findAndroidResDir()
	if err != nil {
		d.problem(res, assetType, source, err)
		return
	}

	target := filepath.Join(resDir, "drawable", "ic_launcher_"+layer+".png")
	if err := copyInto(source, target); err != nil {
		d.problem(res, assetType, target, apperrors.NewDeployError("copy failed", err).WithAssetType(assetType).WithTarget(target))
		return
	}
	res.Android = append(res.Android, target)
	d.log.Debug("deployed", "target", target)
}

func (d *Deployer) problem(res *Result, assetType, path string, err error) {
	res.Problems = append(res.Problems, err)
	d.log.Warn("deploy skipped", "asset_type", assetType, "path", path, "error", err.Error())
}

// findAndroidResDir locates the project's res/ directory, trying the
// conventional module layouts before walking the tree.
func (d *Deployer) findAndroidResDir() (string, error) {
	for _, candidate := range androidResCandidates {
		dir := filepath.Join(d.projectRoot, filepath.FromSlash(candidate))
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
	}

	var found string
	_ = filepath.WalkDir(d.projectRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || !entry.IsDir() {
			return nil
		}
		if entry.Name() == "res" && strings.HasSuffix(filepath.ToSlash(filepath.Dir(path)), "src/main") {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if found != "" {
		return found, nil
	}
	return "", apperrors.NewDeployError("no Android res directory found", nil).WithTarget(d.projectRoot)
}

// findIOSAppIconSet locates an existing AppIcon.appiconset, creating one
// inside Assets.xcassets when the set itself does not exist yet.
func (d *Deployer) findIOSAppIconSet() (string, error) {
	var appiconset, xcassets string
	_ = filepath.WalkDir(d.projectRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || !entry.IsDir() {
			return nil
		}
		switch entry.Name() {
		case "AppIcon.appiconset":
			appiconset = path
			return filepath.SkipAll
		case "Assets.xcassets":
			if xcassets == "" {
				xcassets = path
			}
		}
		return nil
	})

	if appiconset != "" {
		return appiconset, nil
	}
	if xcassets != "" {
		created := filepath.Join(xcassets, "AppIcon.appiconset")
		if err := os.MkdirAll(created, 0o755); err != nil {
			return "", apperrors.NewDeployError("cannot create appiconset", err).WithTarget(created)
		}
		return created, nil
	}
	return "", apperrors.NewDeployError("no iOS asset catalog found", nil).WithTarget(d.projectRoot)
}

// detectPlatform classifies the project by its build markers. Both Android
// and iOS markers present means a multiplatform project deploys to both.
func detectPlatform(projectRoot string) string {
	var hasAndroid, hasIOS bool
	_ = filepath.WalkDir(projectRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		name := entry.Name()
		if entry.IsDir() && name == ".git" {
			return filepath.SkipDir
		}
		if strings.HasPrefix(name, "build.gradle") {
			hasAndroid = true
		}
		if strings.HasSuffix(name, ".xcodeproj") || name == "iosApp" {
			hasIOS = true
		}
		if hasAndroid && hasIOS {
			return filepath.SkipAll
		}
		return nil
	})

	switch {
	case hasAndroid && hasIOS:
		return "kmp"
	case hasAndroid:
		return "android"
	case hasIOS:
		return "ios"
	default:
		return "unknown"
	}
}

// copyInto copies src to dst, creating the destination directory.
func copyInto(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
