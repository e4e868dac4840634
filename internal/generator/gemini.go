package generator

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/forgeline/assetgen/internal/errors"
)

const (
	// geminiBaseURL is the Gemini API endpoint prefix.
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// defaultModel is the image generation model used when none is configured.
	defaultModel = "gemini-3-pro-image-preview"

	// defaultTimeout bounds one generateContent call. Image generation is
	// slow; this is deliberately generous.
	defaultTimeout = 120 * time.Second
)

// GeminiProducer implements Producer using the Gemini generateContent API.
type GeminiProducer struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// GeminiOption configures a GeminiProducer.
type GeminiOption func(*GeminiProducer)

// WithModel sets the image generation model.
func WithModel(model string) GeminiOption {
	return func(p *GeminiProducer) {
		if model != "" {
			p.model = model
		}
	}
}

// WithBaseURL overrides the API endpoint. Used by tests.
func WithBaseURL(url string) GeminiOption {
	return func(p *GeminiProducer) {
		if url != "" {
			p.baseURL = url
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) GeminiOption {
	return func(p *GeminiProducer) {
		if timeout > 0 {
			p.httpClient.Timeout = timeout
		}
	}
}

// NewGeminiProducer creates a producer using the given API key.
// Returns ErrMissingAPIKey when the key is empty.
func NewGeminiProducer(apiKey string, opts ...GeminiOption) (*GeminiProducer, error) {
	if apiKey == "" {
		return nil, apperrors.ErrMissingAPIKey
	}

	p := &GeminiProducer{
		apiKey:  apiKey,
		model:   defaultModel,
		baseURL: geminiBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// generateContentRequest is the Gemini generateContent request structure.
type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities,omitempty"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
	ImageSize   string `json:"imageSize,omitempty"`
}

// generateContentResponse is the Gemini generateContent response structure.
type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
	Error      *apiError   `json:"error,omitempty"`
}

type candidate struct {
	Content content `json:"content"`
}

type apiError struct {
	Code    int    `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Produce generates one image. Rate-limit and quota responses are wrapped
// with ErrRateLimited so callers retry them; every other failure is permanent.
func (p *GeminiProducer) Produce(ctx context.Context, req Request) (*Image, error) {
	body := generateContentRequest{
		Contents: []content{
			{Parts: []part{{Text: req.Prompt}}},
		},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
			ImageConfig: &imageConfig{
				AspectRatio: req.AspectRatio,
				ImageSize:   req.ImageSize,
			},
		},
	}

	respData, err := p.call(ctx, body)
	if err != nil {
		return nil, err
	}

	// Extract the first inline image from the response parts.
	for _, cand := range respData.Candidates {
		for _, pt := range cand.Content.Parts {
			if pt.InlineData == nil || pt.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(pt.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("decode image payload: %w", err)
			}
			return &Image{Data: data, MIMEType: pt.InlineData.MIMEType}, nil
		}
	}

	return nil, apperrors.ErrNoImagePayload
}

// call issues a generateContent request and decodes the response.
func (p *GeminiProducer) call(ctx context.Context, body generateContentRequest) (*generateContentResponse, error) {
	reqBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, p.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyAPIError(resp.StatusCode, respBody)
	}

	var respData generateContentResponse
	if err := json.Unmarshal(respBody, &respData); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if respData.Error != nil {
		return nil, classifyAPIError(respData.Error.Code, []byte(respData.Error.Message))
	}

	return &respData, nil
}

// classifyAPIError maps an API failure to the error taxonomy. HTTP 429 and
// any message mentioning rate or quota limits count as rate limiting; the
// substring match catches providers that report quota exhaustion with other
// status codes.
func classifyAPIError(status int, body []byte) error {
	msg := strings.ToLower(string(body))
	if status == http.StatusTooManyRequests ||
		strings.Contains(msg, "rate") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "429") {
		return fmt.Errorf("%w: API status %d: %s", apperrors.ErrRateLimited, status, truncate(string(body), 200))
	}
	return fmt.Errorf("API error (status %d): %s", status, truncate(string(body), 200))
}

// truncate shortens long API error bodies for log-friendly messages.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
