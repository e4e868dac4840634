package evaluator

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/forgeline/assetgen/internal/errors"
)

const (
	// geminiBaseURL is the Gemini API endpoint prefix.
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// defaultModel is the vision model used when none is configured.
	defaultModel = "gemini-3-pro-image-preview"

	// defaultTimeout bounds one scoring call.
	defaultTimeout = 60 * time.Second
)

// GeminiScorer implements Scorer using Gemini's vision input: the rubric
// prompt and the artifact bytes travel in one generateContent call.
type GeminiScorer struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// ScorerOption configures a GeminiScorer.
type ScorerOption func(*GeminiScorer)

// WithModel sets the vision model.
func WithModel(model string) ScorerOption {
	return func(s *GeminiScorer) {
		if model != "" {
			s.model = model
		}
	}
}

// WithBaseURL overrides the API endpoint. Used by tests.
func WithBaseURL(url string) ScorerOption {
	return func(s *GeminiScorer) {
		if url != "" {
			s.baseURL = url
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) ScorerOption {
	return func(s *GeminiScorer) {
		if timeout > 0 {
			s.httpClient.Timeout = timeout
		}
	}
}

// NewGeminiScorer creates a scorer using the given API key.
// Returns ErrMissingAPIKey when the key is empty.
func NewGeminiScorer(apiKey string, opts ...ScorerOption) (*GeminiScorer, error) {
	if apiKey == "" {
		return nil, apperrors.ErrMissingAPIKey
	}

	s := &GeminiScorer{
		apiKey:  apiKey,
		model:   defaultModel,
		baseURL: geminiBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

type scoreRequest struct {
	Contents         []scoreContent    `json:"contents"`
	GenerationConfig *scoreGenSettings `json:"generationConfig,omitempty"`
}

type scoreContent struct {
	Parts []scorePart `json:"parts"`
}

type scorePart struct {
	Text       string           `json:"text,omitempty"`
	InlineData *scoreInlineData `json:"inlineData,omitempty"`
}

type scoreInlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type scoreGenSettings struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type scoreResponse struct {
	Candidates []struct {
		Content scoreContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Score sends the rubric prompt and the image to the vision model and returns
// the model's raw text response.
func (s *GeminiScorer) Score(ctx context.Context, prompt string, imagePath string) (string, error) {
	imgData, err := os.ReadFile(imagePath)
	if err != nil {
		return "", apperrors.NewEvaluationError("failed to read artifact", err).
			WithArtifactPath(imagePath)
	}

	body := scoreRequest{
		Contents: []scoreContent{
			{Parts: []scorePart{
				{Text: prompt},
				{InlineData: &scoreInlineData{
					MIMEType: mimeTypeForPath(imagePath),
					Data:     base64.StdEncoding.EncodeToString(imgData),
				}},
			}},
		},
		GenerationConfig: &scoreGenSettings{
			ResponseModalities: []string{"TEXT"},
		},
	}

	reqBytes, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", s.baseURL, s.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, respBody)
	}

	var respData scoreResponse
	if err := json.Unmarshal(respBody, &respData); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if respData.Error != nil {
		return "", fmt.Errorf("API error: %s", respData.Error.Message)
	}

	var text strings.Builder
	for _, cand := range respData.Candidates {
		for _, pt := range cand.Content.Parts {
			text.WriteString(pt.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty response from API")
	}

	return text.String(), nil
}

// mimeTypeForPath maps artifact extensions to MIME types. Generated artifacts
// are JPEG, but deployed or hand-placed files may be PNG or WebP.
func mimeTypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
