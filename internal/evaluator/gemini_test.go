package evaluator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/forgeline/assetgen/internal/errors"
)

func writeTestImage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte{0xFF, 0xD8, 0xFF, 0xE0}, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGeminiScorer_RequiresAPIKey(t *testing.T) {
	_, err := NewGeminiScorer("")
	if !apperrors.Is(err, apperrors.ErrMissingAPIKey) {
		t.Errorf("error = %v, want ErrMissingAPIKey", err)
	}
}

func TestGeminiScorer_SendsImageInline(t *testing.T) {
	imgPath := writeTestImage(t, "icon.jpg")

	var gotReq scoreRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"{\"overall\": 7}"}]}}]}`)
	}))
	t.Cleanup(srv.Close)

	s, err := NewGeminiScorer("test-key", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewGeminiScorer failed: %v", err)
	}

	text, err := s.Score(context.Background(), "rate this", imgPath)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if text != `{"overall": 7}` {
		t.Errorf("text = %q, want concatenated candidate text", text)
	}

	parts := gotReq.Contents[0].Parts
	if len(parts) != 2 || parts[0].Text != "rate this" {
		t.Fatalf("parts = %+v, want prompt then image", parts)
	}
	wantData := base64.StdEncoding.EncodeToString([]byte{0xFF, 0xD8, 0xFF, 0xE0})
	if parts[1].InlineData == nil || parts[1].InlineData.Data != wantData {
		t.Error("image bytes not sent inline")
	}
	if parts[1].InlineData.MIMEType != "image/jpeg" {
		t.Errorf("mime type = %q, want image/jpeg", parts[1].InlineData.MIMEType)
	}
}

func TestGeminiScorer_MissingArtifact(t *testing.T) {
	s, err := NewGeminiScorer("test-key")
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.Score(context.Background(), "rate this", filepath.Join(t.TempDir(), "gone.jpg"))
	var evalErr *apperrors.EvaluationError
	if !apperrors.As(err, &evalErr) {
		t.Errorf("error = %v, want EvaluationError for unreadable artifact", err)
	}
}

func TestMimeTypeForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"icon.jpg", "image/jpeg"},
		{"icon.jpeg", "image/jpeg"},
		{"icon.PNG", "image/png"},
		{"icon.webp", "image/webp"},
		{"icon", "image/jpeg"},
	}

	for _, tt := range tests {
		if got := mimeTypeForPath(tt.path); got != tt.want {
			t.Errorf("mimeTypeForPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
