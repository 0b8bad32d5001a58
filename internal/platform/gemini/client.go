// Package gemini is the evidence interpreter: a hosted multimodal model that
// takes an instruction plus a set of images and returns free text. The
// contract deliberately promises nothing about the text being clean JSON;
// callers parse and validate. Calls are bounded by the caller's context and
// are never retried here, since repeated billed calls against a fallible
// oracle are a cost decision that belongs to the caller.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/suresight/suresight-backend/internal/pkg/logger"
)

// Image is a resolved evidence image, already fetched from storage.
type Image struct {
	MimeType string
	Data     []byte
}

type Client interface {
	// Interpret sends instruction plus images and returns the raw model text.
	Interpret(ctx context.Context, instruction string, images []Image) (string, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(log *logger.Logger) (Client, error) {
	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}

	baseURL := strings.TrimSpace(os.Getenv("GEMINI_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	model := strings.TrimSpace(os.Getenv("GEMINI_MODEL"))
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &client{
		log:     log.With("client", "GeminiClient"),
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}, nil
}

type generatePart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *inlineDataPart `json:"inline_data,omitempty"`
}

type inlineDataPart struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateRequest struct {
	Contents []generateContent `json:"contents"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *client) Interpret(ctx context.Context, instruction string, images []Image) (string, error) {
	parts := make([]generatePart, 0, len(images)+1)
	for _, img := range images {
		mime := img.MimeType
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, generatePart{
			InlineData: &inlineDataPart{
				MimeType: mime,
				Data:     base64.StdEncoding.EncodeToString(img.Data),
			},
		})
	}
	parts = append(parts, generatePart{Text: instruction})

	body, err := json.Marshal(generateRequest{
		Contents: []generateContent{{Parts: parts}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("interpreter call failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", fmt.Errorf("read interpreter response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("interpreter returned status %d: %s", resp.StatusCode, truncate(string(raw), 300))
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode interpreter envelope: %w", err)
	}
	var b strings.Builder
	for _, cand := range parsed.Candidates {
		for _, p := range cand.Content.Parts {
			b.WriteString(p.Text)
		}
		break
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("interpreter returned no text")
	}

	c.log.Debug("Interpreter call completed",
		"model", c.model, "images", len(images), "elapsed", time.Since(start).String())
	return text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
