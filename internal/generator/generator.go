// Package generator produces image artifacts through an external,
// rate-limited producer. It wraps every call in an exponential backoff retry
// loop and writes successful results to disk using deterministic file names,
// so a resumed sweep regenerates nothing it already saved.
package generator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	apperrors "github.com/forgeline/assetgen/internal/errors"
	"github.com/forgeline/assetgen/internal/logging"
)

// Request describes one artifact to produce.
type Request struct {
	Prompt      string
	AspectRatio string
	ImageSize   string
}

// Image is the raw artifact returned by a producer.
type Image struct {
	Data     []byte
	MIMEType string
}

// Producer is the external image generation backend. Implementations must
// return an error wrapping errors.ErrRateLimited for rate-limit and quota
// responses; any other error is treated as permanent for the item.
type Producer interface {
	Produce(ctx context.Context, req Request) (*Image, error)
}

// Result describes a successfully generated and saved artifact.
type Result struct {
	Path      string
	Filename  string
	AssetType string
	Iteration int
	Variant   int
	Config    TypeConfig
}

// Generator drives a Producer with retry handling and saves artifacts.
type Generator struct {
	producer Producer
	backoff  BackoffConfig
	log      *logging.Logger
	sleep    sleepFunc
}

// New creates a Generator around the given producer.
func New(producer Producer, backoff BackoffConfig, log *logging.Logger) *Generator {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Generator{
		producer: producer,
		backoff:  backoff,
		log:      log,
		sleep:    sleepContext,
	}
}

// Generate produces one variant and writes it to outputDir as
// {assetType}_iter{iteration}_v{variant}.jpg.
//
// Rate-limited calls are retried up to the backoff budget with exponentially
// growing delays; the final attempt is never followed by a sleep. All other
// failures return immediately so the caller can skip the item and move on.
func (g *Generator) Generate(ctx context.Context, prompt, assetType, outputDir string, iteration, variant int) (*Result, error) {
	cfg := ConfigFor(assetType)
	filename := fmt.Sprintf("%s_iter%d_v%d.jpg", assetType, iteration, variant)
	outputPath := filepath.Join(outputDir, filename)

	req := Request{
		Prompt:      prompt,
		AspectRatio: cfg.AspectRatio,
		ImageSize:   cfg.ImageSize,
	}

	log := g.log.WithAssetType(assetType).With("iteration", iteration, "variant", variant)

	for attempt := 0; attempt < g.backoff.MaxRetries; attempt++ {
		img, err := g.producer.Produce(ctx, req)
		if err == nil {
			if img == nil || len(img.Data) == 0 {
				return nil, apperrors.NewGenerationError("producer returned no image", apperrors.ErrNoImagePayload).
					WithAssetType(assetType).
					WithCoordinates(iteration, variant)
			}
			if err := g.save(outputPath, img.Data); err != nil {
				return nil, apperrors.NewGenerationError("failed to save artifact", err).
					WithAssetType(assetType).
					WithCoordinates(iteration, variant)
			}
			log.Debug("artifact saved", "path", outputPath, "bytes", len(img.Data))
			return &Result{
				Path:      outputPath,
				Filename:  filename,
				AssetType: assetType,
				Iteration: iteration,
				Variant:   variant,
				Config:    cfg,
			}, nil
		}

		if ctx.Err() != nil {
			return nil, apperrors.NewGenerationError("generation canceled", apperrors.ErrCanceled).
				WithAssetType(assetType).
				WithCoordinates(iteration, variant)
		}

		if !apperrors.IsRetryable(err) {
			log.Warn("generation failed", "error", err.Error())
			return nil, apperrors.NewGenerationError("producer call failed", err).
				WithAssetType(assetType).
				WithCoordinates(iteration, variant)
		}

		// Rate limited. Sleep before the next attempt, but not after the last.
		if attempt < g.backoff.MaxRetries-1 {
			delay := g.backoff.DelayForAttempt(attempt)
			log.Info("rate limited, backing off",
				"delay", delay.String(),
				"attempt", attempt+1,
				"max_attempts", g.backoff.MaxRetries)
			if err := g.sleep(ctx, delay); err != nil {
				return nil, apperrors.NewGenerationError("generation canceled during backoff", apperrors.ErrCanceled).
					WithAssetType(assetType).
					WithCoordinates(iteration, variant)
			}
		}
	}

	log.Warn("retry budget exhausted", "attempts", g.backoff.MaxRetries)
	return nil, apperrors.NewGenerationError(
		fmt.Sprintf("still rate limited after %d attempts", g.backoff.MaxRetries),
		apperrors.ErrRetriesExhausted,
	).WithAssetType(assetType).WithCoordinates(iteration, variant)
}

// save writes artifact bytes to disk, creating the output directory if needed.
func (g *Generator) save(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return nil
}
