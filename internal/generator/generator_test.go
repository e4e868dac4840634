package generator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/forgeline/assetgen/internal/errors"
)

// fakeProducer returns scripted results per call.
type fakeProducer struct {
	calls   int
	respond func(call int) (*Image, error)
}

func (f *fakeProducer) Produce(ctx context.Context, req Request) (*Image, error) {
	f.calls++
	return f.respond(f.calls)
}

// recordingSleep captures requested delays without waiting.
type recordingSleep struct {
	delays []time.Duration
}

func (r *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func newTestGenerator(p Producer) (*Generator, *recordingSleep) {
	g := New(p, DefaultBackoff(), nil)
	rs := &recordingSleep{}
	g.sleep = rs.sleep
	return g, rs
}

// -----------------------------------------------------------------------------
// Backoff Tests
// -----------------------------------------------------------------------------

func TestBackoff_DelaySequence(t *testing.T) {
	b := DefaultBackoff()

	want := []time.Duration{
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		32 * time.Second,
	}
	for attempt, w := range want {
		if got := b.DelayForAttempt(attempt); got != w {
			t.Errorf("DelayForAttempt(%d) = %v, want %v", attempt, got, w)
		}
	}
}

func TestBackoff_DelayCappedAtMax(t *testing.T) {
	b := DefaultBackoff()

	// 2 * 2^5 = 64s would exceed the 60s cap.
	if got := b.DelayForAttempt(5); got != 60*time.Second {
		t.Errorf("DelayForAttempt(5) = %v, want capped at 60s", got)
	}
	if got := b.DelayForAttempt(30); got != 60*time.Second {
		t.Errorf("DelayForAttempt(30) = %v, want capped at 60s (no overflow)", got)
	}
}

// -----------------------------------------------------------------------------
// Retry Loop Tests
// -----------------------------------------------------------------------------

func TestGenerate_RateLimitedRetriesExactBudget(t *testing.T) {
	p := &fakeProducer{respond: func(call int) (*Image, error) {
		return nil, fmt.Errorf("call failed: %w", apperrors.ErrRateLimited)
	}}
	g, rs := newTestGenerator(p)

	_, err := g.Generate(context.Background(), "a red icon", "icon", t.TempDir(), 1, 1)

	if !apperrors.Is(err, apperrors.ErrRetriesExhausted) {
		t.Errorf("error = %v, want ErrRetriesExhausted", err)
	}
	if p.calls != 5 {
		t.Errorf("producer called %d times, want exactly 5", p.calls)
	}
	// The final attempt is not followed by a sleep: 5 attempts, 4 delays.
	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}
	if len(rs.delays) != len(want) {
		t.Fatalf("got %d sleeps %v, want %d", len(rs.delays), rs.delays, len(want))
	}
	for i, w := range want {
		if rs.delays[i] != w {
			t.Errorf("sleep[%d] = %v, want %v", i, rs.delays[i], w)
		}
	}
}

func TestGenerate_RecoversAfterRateLimit(t *testing.T) {
	p := &fakeProducer{respond: func(call int) (*Image, error) {
		if call < 3 {
			return nil, fmt.Errorf("quota exceeded: %w", apperrors.ErrRateLimited)
		}
		return &Image{Data: []byte("jpeg-bytes"), MIMEType: "image/jpeg"}, nil
	}}
	g, rs := newTestGenerator(p)

	dir := t.TempDir()
	res, err := g.Generate(context.Background(), "a red icon", "icon", dir, 2, 3)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if p.calls != 3 {
		t.Errorf("producer called %d times, want 3", p.calls)
	}
	if len(rs.delays) != 2 {
		t.Errorf("got %d sleeps, want 2 (one per failed attempt)", len(rs.delays))
	}
	if res.Filename != "icon_iter2_v3.jpg" {
		t.Errorf("Filename = %q, want deterministic name", res.Filename)
	}

	data, err := os.ReadFile(filepath.Join(dir, res.Filename))
	if err != nil {
		t.Fatalf("artifact not written: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Errorf("artifact content = %q, want producer payload", data)
	}
}

func TestGenerate_PermanentErrorNoRetry(t *testing.T) {
	p := &fakeProducer{respond: func(call int) (*Image, error) {
		return nil, fmt.Errorf("invalid prompt")
	}}
	g, rs := newTestGenerator(p)

	_, err := g.Generate(context.Background(), "x", "icon", t.TempDir(), 1, 1)

	if err == nil {
		t.Fatal("expected error")
	}
	if apperrors.IsRetryable(err) {
		t.Error("permanent failure must not be retryable")
	}
	if p.calls != 1 {
		t.Errorf("producer called %d times, want 1 (no retry)", p.calls)
	}
	if len(rs.delays) != 0 {
		t.Errorf("slept %v, want no sleeps for permanent failure", rs.delays)
	}
}

func TestGenerate_EmptyPayloadNotRetried(t *testing.T) {
	p := &fakeProducer{respond: func(call int) (*Image, error) {
		return &Image{}, nil
	}}
	g, rs := newTestGenerator(p)

	_, err := g.Generate(context.Background(), "x", "icon", t.TempDir(), 1, 1)

	if !apperrors.Is(err, apperrors.ErrNoImagePayload) {
		t.Errorf("error = %v, want ErrNoImagePayload", err)
	}
	if p.calls != 1 || len(rs.delays) != 0 {
		t.Errorf("calls = %d, sleeps = %d; want 1 call and no sleeps", p.calls, len(rs.delays))
	}
}

func TestGenerate_CanceledDuringBackoff(t *testing.T) {
	p := &fakeProducer{respond: func(call int) (*Image, error) {
		return nil, fmt.Errorf("429: %w", apperrors.ErrRateLimited)
	}}
	g, _ := newTestGenerator(p)
	g.sleep = func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}

	_, err := g.Generate(context.Background(), "x", "icon", t.TempDir(), 1, 1)

	if !apperrors.Is(err, apperrors.ErrCanceled) {
		t.Errorf("error = %v, want ErrCanceled", err)
	}
	if p.calls != 1 {
		t.Errorf("producer called %d times, want 1 (canceled before retry)", p.calls)
	}
}

// -----------------------------------------------------------------------------
// Asset Type Config Tests
// -----------------------------------------------------------------------------

func TestConfigFor(t *testing.T) {
	tests := []struct {
		assetType string
		want      TypeConfig
	}{
		{"icon", TypeConfig{AspectRatio: "1:1", ImageSize: "2K"}},
		{"icon-notification", TypeConfig{AspectRatio: "1:1", ImageSize: "1K"}},
		{"splash", TypeConfig{AspectRatio: "9:16", ImageSize: "2K"}},
		{"marketing", TypeConfig{AspectRatio: "16:9", ImageSize: "4K"}},
		{"unknown-custom-type", TypeConfig{AspectRatio: "1:1", ImageSize: "2K"}},
	}

	for _, tt := range tests {
		t.Run(tt.assetType, func(t *testing.T) {
			if got := ConfigFor(tt.assetType); got != tt.want {
				t.Errorf("ConfigFor(%q) = %+v, want %+v", tt.assetType, got, tt.want)
			}
		})
	}
}

func TestSupportedAssetTypes(t *testing.T) {
	types := SupportedAssetTypes()
	if len(types) != len(assetConfigs) {
		t.Errorf("got %d types, want %d", len(types), len(assetConfigs))
	}
	if types[0] != "icon" {
		t.Errorf("first type = %q, want icon", types[0])
	}
	for _, at := range types {
		if !IsSupported(at) {
			t.Errorf("listed type %q not reported as supported", at)
		}
	}
}
