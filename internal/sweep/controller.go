// Package sweep drives the generate → evaluate → select loop over asset
// types, iterations, and variants. It runs strictly sequentially: the
// external producer and scorer are rate-limited shared resources, so no
// parallel fan-out is safe here. Ordering is load-bearing — variants ascend
// within an iteration, iterations within an asset type, asset types in
// request order — because it doubles as the selection tie-break order.
package sweep

import (
	"context"
	"fmt"

	apperrors "github.com/forgeline/assetgen/internal/errors"
	"github.com/forgeline/assetgen/internal/evaluator"
	"github.com/forgeline/assetgen/internal/generator"
	"github.com/forgeline/assetgen/internal/logging"
	"github.com/forgeline/assetgen/internal/session"
)

// Controller owns one sweep over a session.
type Controller struct {
	store *session.Store
	gen   *generator.Generator
	eval  *evaluator.Evaluator
	log   *logging.Logger

	// printf reports user-facing progress. No-op unless set by the caller.
	printf func(format string, args ...any)
}

// New creates a Controller over the given collaborators.
func New(store *session.Store, gen *generator.Generator, eval *evaluator.Evaluator, log *logging.Logger) *Controller {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Controller{
		store:  store,
		gen:    gen,
		eval:   eval,
		log:    log,
		printf: func(string, ...any) {},
	}
}

// SetProgress installs a user-facing progress printer.
func (c *Controller) SetProgress(fn func(format string, args ...any)) {
	if fn != nil {
		c.printf = fn
	}
}

// Run executes the sweep until every asset type has a best selection, then
// marks the session complete. It works identically for fresh and resumed
// sessions: the work remaining is derived entirely from what the session has
// recorded, so fully recorded iterations are never redone and a resume of
// finished work issues zero producer calls.
//
// Failure handling follows the error taxonomy: per-item generation failures
// skip the variant and continue; scorer failures were already degraded to a
// neutral score by the evaluator; session persistence failures and
// cancellation abort immediately.
func (c *Controller) Run(ctx context.Context, sess *session.Session) error {
	plan, err := session.PlanResume(sess)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrSessionComplete) {
			// Every type is selected; just make sure the terminal status
			// is recorded.
			if sess.Status != session.StatusComplete {
				return c.store.MarkComplete(sess)
			}
			return nil
		}
		return err
	}

	log := c.log.WithSession(sess.ID)

	for _, assetType := range plan.Pending {
		if err := c.sweepAssetType(ctx, sess, assetType, plan.StartIteration[assetType], log); err != nil {
			return err
		}
	}

	return c.store.MarkComplete(sess)
}

// sweepAssetType runs the remaining iterations for one asset type and then
// records its best selection.
func (c *Controller) sweepAssetType(ctx context.Context, sess *session.Session, assetType string, startIteration int, log *logging.Logger) error {
	log = log.WithAssetType(assetType)
	c.printf("Generating: %s", assetType)

	if startIteration > 1 {
		c.printf("Resuming from iteration %d", startIteration)
	}

	// Previously recorded variants seed prompt learning on resume.
	all := sess.AllVariantsFor(assetType)

	for iteration := startIteration; iteration <= sess.Settings.Iterations; iteration++ {
		if ctx.Err() != nil {
			return apperrors.Wrap(apperrors.ErrCanceled, "sweep interrupted")
		}

		c.printf("Iteration %d/%d", iteration, sess.Settings.Iterations)
		prompts := BuildPrompts(assetType, sess.Profile, iteration, all)

		variants := make([]session.VariantResult, 0, sess.Settings.Variants)
		for v := 1; v <= sess.Settings.Variants; v++ {
			prompt := prompts[(v-1)%len(prompts)]

			res, err := c.gen.Generate(ctx, prompt, assetType, c.store.Dir(), iteration, v)
			if err != nil {
				if apperrors.Is(err, apperrors.ErrCanceled) {
					return err
				}
				// Permanent per-item failure: skip the variant, keep going.
				c.printf("  v%d: FAILED (%s)", v, errSummary(err))
				log.Warn("variant skipped", "iteration", iteration, "variant", v, "error", err.Error())
				continue
			}

			eval := c.eval.Evaluate(ctx, res.Path, assetType, sess.Profile)
			vr := session.VariantResult{
				Variant:   v,
				Iteration: iteration,
				Filename:  res.Filename,
				Path:      res.Path,
				Prompt:    prompt,
				Score:     eval.Score,
				Scores:    eval.Criteria,
				Reasoning: eval.Notes,
			}
			variants = append(variants, vr)
			all = append(all, vr)
			c.printf("  v%d: %s (score: %.2f)", v, vr.Filename, vr.Score)
		}

		// Record even when every variant failed: the empty record moves
		// the cursor so resume does not redo a known-bad iteration.
		if err := c.store.RecordIteration(sess, assetType, iteration, variants); err != nil {
			return err
		}
	}

	return c.selectBest(sess, assetType, log)
}

// selectBest recomputes the winner from everything recorded for the asset
// type and persists it. An empty result set is reported, not an error.
func (c *Controller) selectBest(sess *session.Session, assetType string, log *logging.Logger) error {
	best, ok := SelectBest(sess.AllVariantsFor(assetType))
	if !ok {
		c.printf("No variants produced for %s", assetType)
		log.Warn("no variants to select from")
		return nil
	}

	bestPath, err := markBest(best.Path)
	if err != nil {
		// The _best copy is a convenience for humans browsing the output
		// directory; the durable record below is what deploy reads.
		log.Warn("could not mark best artifact", "path", best.Path, "error", err.Error())
	} else {
		log.Debug("best artifact marked", "path", bestPath)
	}

	sel := session.BestSelection{
		Path:      best.Path,
		Filename:  best.Filename,
		Score:     best.Score,
		Iteration: best.Iteration,
		Variant:   best.Variant,
	}
	if err := c.store.RecordBest(sess, assetType, sel); err != nil {
		return err
	}

	c.printf("Best %s: %s (score: %.2f)", assetType, best.Filename, best.Score)
	return nil
}

// errSummary produces the short, user-facing form of a skip reason.
func errSummary(err error) string {
	switch {
	case apperrors.Is(err, apperrors.ErrRetriesExhausted):
		return "rate limited, retries exhausted"
	case apperrors.Is(err, apperrors.ErrNoImagePayload):
		return "no image returned"
	default:
		return fmt.Sprintf("%v", err)
	}
}
