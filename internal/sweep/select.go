package sweep

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/forgeline/assetgen/internal/session"
)

// SelectBest picks the winning variant from a flat list ordered by
// (iteration, variant). The comparison is strictly greater-than, so on equal
// scores the earliest (iteration, variant) wins. This makes selection fully
// deterministic for a given recorded history.
func SelectBest(variants []session.VariantResult) (session.VariantResult, bool) {
	if len(variants) == 0 {
		return session.VariantResult{}, false
	}

	best := variants[0]
	for _, v := range variants[1:] {
		if v.Score > best.Score {
			best = v
		}
	}
	return best, true
}

// markBest copies the winning artifact next to the original with a _best
// suffix, e.g. icon_iter2_v3.jpg -> icon_iter2_v3_best.jpg. The original is
// kept so every generated variant stays reviewable.
func markBest(path string) (string, error) {
	ext := filepath.Ext(path)
	bestPath := strings.TrimSuffix(path, ext) + "_best" + ext

	if err := copyFile(path, bestPath); err != nil {
		return "", fmt.Errorf("failed to mark best artifact: %w", err)
	}
	return bestPath, nil
}

func copyFile(src, dst string) error {
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
