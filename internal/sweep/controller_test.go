package sweep

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forgeline/assetgen/internal/evaluator"
	"github.com/forgeline/assetgen/internal/generator"
	"github.com/forgeline/assetgen/internal/session"
)

// scriptedProducer returns image bytes for every call and records prompts.
type scriptedProducer struct {
	calls   int
	prompts []string
}

func (p *scriptedProducer) Produce(ctx context.Context, req generator.Request) (*generator.Image, error) {
	p.calls++
	p.prompts = append(p.prompts, req.Prompt)
	return &generator.Image{Data: []byte("img"), MIMEType: "image/jpeg"}, nil
}

// pathScorer maps artifact filename substrings to overall scores (0-10).
// Unmatched paths score 5 (neutral after scaling).
type pathScorer struct {
	scores map[string]float64
}

func (s *pathScorer) Score(ctx context.Context, prompt, imagePath string) (string, error) {
	for substr, score := range s.scores {
		if strings.Contains(imagePath, substr) {
			return fmt.Sprintf(`{"overall": %g}`, score), nil
		}
	}
	return `{"overall": 5}`, nil
}

type fixture struct {
	store    *session.Store
	producer *scriptedProducer
	ctrl     *Controller
}

func newFixture(t *testing.T, scores map[string]float64) *fixture {
	t.Helper()
	store := session.NewStore(filepath.Join(t.TempDir(), "myapp"))
	producer := &scriptedProducer{}
	gen := generator.New(producer, generator.DefaultBackoff(), nil)
	eval := evaluator.New(&pathScorer{scores: scores}, nil)
	return &fixture{
		store:    store,
		producer: producer,
		ctrl:     New(store, gen, eval, nil),
	}
}

func (f *fixture) createSession(t *testing.T, assetTypes []string, iterations, variants int) *session.Session {
	t.Helper()
	sess, err := f.store.Create("myapp", "", assetTypes, session.StyleProfile{
		AppName:   "MyApp",
		Certainty: "medium",
	}, session.Settings{Iterations: iterations, Variants: variants})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return sess
}

// -----------------------------------------------------------------------------
// Selection Policy Tests
// -----------------------------------------------------------------------------

func TestSelectBest_Deterministic(t *testing.T) {
	variants := []session.VariantResult{
		{Iteration: 1, Variant: 1, Score: 0.4},
		{Iteration: 1, Variant: 2, Score: 0.9},
		{Iteration: 2, Variant: 1, Score: 0.9},
		{Iteration: 2, Variant: 2, Score: 0.2},
	}

	best, ok := SelectBest(variants)
	if !ok {
		t.Fatal("SelectBest returned no winner")
	}
	// Strict comparison: the earliest of the tied 0.9 scores wins.
	if best.Iteration != 1 || best.Variant != 2 {
		t.Errorf("best = (iter %d, v %d), want (1, 2) on tie", best.Iteration, best.Variant)
	}
}

func TestSelectBest_Empty(t *testing.T) {
	if _, ok := SelectBest(nil); ok {
		t.Error("SelectBest(nil) = ok, want no winner")
	}
}

// -----------------------------------------------------------------------------
// Full Sweep Tests
// -----------------------------------------------------------------------------

func TestRun_FullSweep(t *testing.T) {
	f := newFixture(t, map[string]float64{
		"icon_iter1_v1": 4,
		"icon_iter1_v2": 9,
		"icon_iter2_v1": 9,
		"icon_iter2_v2": 2,
	})
	sess := f.createSession(t, []string{"icon", "splash"}, 2, 2)

	if err := f.ctrl.Run(context.Background(), sess); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// 2 types x 2 iterations x 2 variants
	if f.producer.calls != 8 {
		t.Errorf("producer calls = %d, want 8", f.producer.calls)
	}

	reloaded, err := f.store.Load(sess.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if reloaded.Status != session.StatusComplete {
		t.Errorf("status = %q, want complete", reloaded.Status)
	}

	best := reloaded.Best["icon"]
	// Tie between iter1 v2 and iter2 v1 at 0.9: earliest wins.
	if best.Iteration != 1 || best.Variant != 2 {
		t.Errorf("best icon = (iter %d, v %d, score %.2f), want (1, 2)", best.Iteration, best.Variant, best.Score)
	}
	if _, ok := reloaded.Best["splash"]; !ok {
		t.Error("splash has no best selection")
	}
}

func TestRun_MarksBestCopyOnDisk(t *testing.T) {
	f := newFixture(t, map[string]float64{"icon_iter1_v2": 9})
	sess := f.createSession(t, []string{"icon"}, 1, 2)

	if err := f.ctrl.Run(context.Background(), sess); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	bestCopy := filepath.Join(f.store.Dir(), "icon_iter1_v2_best.jpg")
	if !fileExists(bestCopy) {
		t.Errorf("best copy %q not created", bestCopy)
	}
	// Original stays for review.
	if !fileExists(filepath.Join(f.store.Dir(), "icon_iter1_v2.jpg")) {
		t.Error("original artifact removed by best-marking")
	}
}

func TestRun_FailedVariantSkippedSweepContinues(t *testing.T) {
	f := newFixture(t, nil)

	// Fail the second producer call permanently.
	calls := 0
	failingSecond := producerFunc(func(ctx context.Context, req generator.Request) (*generator.Image, error) {
		calls++
		if calls == 2 {
			return nil, fmt.Errorf("content policy rejection")
		}
		return &generator.Image{Data: []byte("img"), MIMEType: "image/jpeg"}, nil
	})
	gen := generator.New(failingSecond, generator.DefaultBackoff(), nil)
	f.ctrl = New(f.store, gen, evaluator.New(&pathScorer{}, nil), nil)

	sess := f.createSession(t, []string{"icon"}, 1, 3)
	if err := f.ctrl.Run(context.Background(), sess); err != nil {
		t.Fatalf("Run failed despite per-item error: %v", err)
	}

	reloaded, err := f.store.Load(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	rec := reloaded.Iterations["icon"][1]
	if len(rec.Variants) != 2 {
		t.Errorf("recorded %d variants, want 2 (failed one dropped)", len(rec.Variants))
	}
	if reloaded.Status != session.StatusComplete {
		t.Errorf("status = %q, want complete despite skip", reloaded.Status)
	}
}

func TestRun_AllVariantsFailStillCompletes(t *testing.T) {
	f := newFixture(t, nil)
	alwaysFail := producerFunc(func(ctx context.Context, req generator.Request) (*generator.Image, error) {
		return nil, fmt.Errorf("content policy rejection")
	})
	f.ctrl = New(f.store, generator.New(alwaysFail, generator.DefaultBackoff(), nil), evaluator.New(&pathScorer{}, nil), nil)

	sess := f.createSession(t, []string{"icon"}, 2, 2)
	if err := f.ctrl.Run(context.Background(), sess); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	reloaded, err := f.store.Load(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	// Empty iterations are recorded so resume never redoes them.
	if got := reloaded.CompletedIterations("icon"); got != 2 {
		t.Errorf("completed iterations = %d, want 2 empty records", got)
	}
	if _, ok := reloaded.Best["icon"]; ok {
		t.Error("best selection recorded despite zero variants")
	}
	if reloaded.Status != session.StatusComplete {
		t.Errorf("status = %q, want complete (empty result reported, not fatal)", reloaded.Status)
	}
}

// -----------------------------------------------------------------------------
// Resume Tests
// -----------------------------------------------------------------------------

func TestRun_ResumeSkipsRecordedIterations(t *testing.T) {
	f := newFixture(t, nil)
	sess := f.createSession(t, []string{"icon"}, 3, 2)

	// Simulate a previous run that completed iteration 1 then crashed.
	if err := f.store.RecordIteration(sess, "icon", 1, []session.VariantResult{
		{Variant: 1, Filename: "icon_iter1_v1.jpg", Path: "/old/icon_iter1_v1.jpg", Score: 0.6},
	}); err != nil {
		t.Fatal(err)
	}

	reloaded, err := f.store.Load(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.ctrl.Run(context.Background(), reloaded); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Iterations 2 and 3 only: 2 iterations x 2 variants.
	if f.producer.calls != 4 {
		t.Errorf("producer calls = %d, want 4 (iteration 1 never redone)", f.producer.calls)
	}
}

func TestRun_ResumeOfFinishedWorkIssuesNoCalls(t *testing.T) {
	f := newFixture(t, map[string]float64{"icon_iter1_v1": 8})
	sess := f.createSession(t, []string{"icon"}, 1, 1)

	if err := f.ctrl.Run(context.Background(), sess); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	callsAfterFirst := f.producer.calls

	reloaded, err := f.store.Load(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.ctrl.Run(context.Background(), reloaded); err != nil {
		t.Fatalf("second Run failed: %v", err)
	}

	if f.producer.calls != callsAfterFirst {
		t.Errorf("producer calls grew from %d to %d on idempotent resume", callsAfterFirst, f.producer.calls)
	}
}

func TestRun_ResumeSelectionOnlyPhase(t *testing.T) {
	f := newFixture(t, nil)
	sess := f.createSession(t, []string{"icon"}, 2, 1)

	// All iterations recorded, best selection missing.
	for i := 1; i <= 2; i++ {
		if err := f.store.RecordIteration(sess, "icon", i, []session.VariantResult{
			{Variant: 1, Filename: fmt.Sprintf("icon_iter%d_v1.jpg", i), Score: 0.5 + float64(i)/10},
		}); err != nil {
			t.Fatal(err)
		}
	}

	reloaded, err := f.store.Load(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.ctrl.Run(context.Background(), reloaded); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if f.producer.calls != 0 {
		t.Errorf("producer calls = %d, want 0 when only selection remains", f.producer.calls)
	}
	final, err := f.store.Load(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if best := final.Best["icon"]; best.Iteration != 2 {
		t.Errorf("best iteration = %d, want 2 (highest recorded score)", best.Iteration)
	}
}

// -----------------------------------------------------------------------------
// Prompt Flow Tests
// -----------------------------------------------------------------------------

func TestRun_VariantsCycleThroughPrompts(t *testing.T) {
	f := newFixture(t, nil)
	// medium certainty yields 4 directives; 6 variants must wrap around.
	sess := f.createSession(t, []string{"icon"}, 1, 6)

	if err := f.ctrl.Run(context.Background(), sess); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(f.producer.prompts) != 6 {
		t.Fatalf("got %d prompts, want 6", len(f.producer.prompts))
	}
	if f.producer.prompts[4] != f.producer.prompts[0] {
		t.Error("variant 5 should reuse prompt 1 (cycle of 4 directives)")
	}
	if f.producer.prompts[0] == f.producer.prompts[1] {
		t.Error("variants 1 and 2 should use distinct directives")
	}
}

func TestRun_LearningModeAfterStrongScore(t *testing.T) {
	f := newFixture(t, map[string]float64{
		"iter1": 9, // iteration 1 scores high
		"iter2": 5,
	})
	sess := f.createSession(t, []string{"icon"}, 2, 1)

	if err := f.ctrl.Run(context.Background(), sess); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(f.producer.prompts) != 2 {
		t.Fatalf("got %d prompts, want 2", len(f.producer.prompts))
	}
	if !strings.Contains(f.producer.prompts[1], "Build on the successful approach") {
		t.Errorf("iteration 2 prompt should switch to refinement, got:\n%s", f.producer.prompts[1])
	}
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

type producerFunc func(ctx context.Context, req generator.Request) (*generator.Image, error)

func (f producerFunc) Produce(ctx context.Context, req generator.Request) (*generator.Image, error) {
	return f(ctx, req)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
