package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"strings"

	"github.com/forgeline/assetgen/internal/config"
	"github.com/forgeline/assetgen/internal/deploy"
	apperrors "github.com/forgeline/assetgen/internal/errors"
	"github.com/forgeline/assetgen/internal/evaluator"
	"github.com/forgeline/assetgen/internal/generator"
	"github.com/forgeline/assetgen/internal/logging"
	"github.com/forgeline/assetgen/internal/session"
	"github.com/forgeline/assetgen/internal/sweep"
)

// maxProjectNameLen bounds sanitized project names; they become directory
// names under the output base.
const maxProjectNameLen = 100

var projectNameRE = regexp.MustCompile(`[^a-zA-Z0-9_\- ]+`)

// sanitizeProjectName turns an app name into a safe directory name.
func sanitizeProjectName(name string) string {
	name = projectNameRE.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)
	if len(name) > maxProjectNameLen {
		name = name[:maxProjectNameLen]
	}
	if name == "" {
		return "project"
	}
	return name
}

// buildLogger creates the per-session debug logger, or a no-op one when
// logging is disabled or the log file cannot be created.
func buildLogger(cfg *config.Config, sessionDir string) *logging.Logger {
	if !cfg.Logging.Enabled {
		return logging.NopLogger()
	}
	log, err := logging.NewLogger(sessionDir, cfg.Logging.Level)
	if err != nil {
		warnf("debug log unavailable: %v", err)
		return logging.NopLogger()
	}
	return log
}

// buildController wires the producer, scorer, and store into a sweep
// controller. It fails when the API key environment variable is unset.
func buildController(cfg *config.Config, store *session.Store, log *logging.Logger) (*sweep.Controller, error) {
	apiKey := cfg.Generator.APIKey()
	if apiKey == "" {
		return nil, fmt.Errorf("no API key: set the %s environment variable", cfg.Generator.APIKeyEnv)
	}

	producerOpts := []generator.GeminiOption{
		generator.WithModel(cfg.Generator.Model),
		generator.WithTimeout(cfg.Generator.Timeout()),
	}
	if cfg.Generator.Endpoint != "" {
		producerOpts = append(producerOpts, generator.WithBaseURL(cfg.Generator.Endpoint))
	}
	producer, err := generator.NewGeminiProducer(apiKey, producerOpts...)
	if err != nil {
		return nil, err
	}

	scorerModel := cfg.Evaluator.Model
	if scorerModel == "" {
		scorerModel = cfg.Generator.Model
	}
	scorerOpts := []evaluator.ScorerOption{
		evaluator.WithModel(scorerModel),
		evaluator.WithTimeout(cfg.Evaluator.Timeout()),
	}
	if cfg.Generator.Endpoint != "" {
		scorerOpts = append(scorerOpts, evaluator.WithBaseURL(cfg.Generator.Endpoint))
	}
	scorer, err := evaluator.NewGeminiScorer(apiKey, scorerOpts...)
	if err != nil {
		return nil, err
	}

	backoff := generator.BackoffConfig{
		MaxRetries: cfg.Generator.MaxRetries,
		BaseDelay:  cfg.Generator.BaseDelay(),
		MaxDelay:   cfg.Generator.MaxDelay(),
	}

	ctrl := sweep.New(store, generator.New(producer, backoff, log), evaluator.New(scorer, log), log)
	ctrl.SetProgress(func(format string, args ...any) {
		fmt.Printf(format+"\n", args...)
	})
	return ctrl, nil
}

// runSweep executes the sweep under SIGINT protection. An interrupt leaves
// the last fully persisted iteration on disk and exits 130 after printing
// the resume hint.
func runSweep(ctrl *sweep.Controller, sess *session.Session) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := ctrl.Run(ctx, sess)
	if err == nil {
		return nil
	}

	if apperrors.Is(err, apperrors.ErrCanceled) {
		fmt.Println()
		warnf("Interrupted. Session saved for resume.")
		fmt.Printf("Resume with: assetgen resume %s\n", sess.ID)
		os.Exit(130)
	}
	return err
}

// deployBest places the session's best selections into the project tree and
// prints a summary. Deployment problems are reported, never fatal.
func deployBest(sess *session.Session, log *logging.Logger) {
	if sess.ProjectPath == "" {
		warnf("No project path recorded; skipping deployment")
		return
	}

	d := deploy.New(sess.ProjectPath, log)
	if d.Platform() == "unknown" {
		warnf("Could not detect project platform; skipping deployment")
		return
	}

	res := d.Deploy(sess)
	for _, problem := range res.Problems {
		warnf("  %v", problem)
	}
	if res.Deployed() > 0 {
		successf("Deployed %d files (android: %d, ios: %d)", res.Deployed(), len(res.Android), len(res.IOS))
	}
	for _, skipped := range res.Skipped {
		fmt.Printf("  %s stays in the output directory for manual upload\n", skipped)
	}
}

// printBestSelections lists the winning variant per asset type.
func printBestSelections(sess *session.Session) {
	if len(sess.Best) == 0 {
		return
	}
	fmt.Println()
	banner("Best selections")
	for _, assetType := range sess.AssetTypes {
		best, ok := sess.Best[assetType]
		if !ok {
			continue
		}
		fmt.Printf("  %-18s %s %s\n", assetType, best.Filename,
			scoreStyle.Render(fmt.Sprintf("(score: %.2f)", best.Score)))
	}
}
