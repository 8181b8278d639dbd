// Package receipt turns a photographed receipt into a best-effort list of
// priced line items, by sending the image to a vision language model and
// repairing its answer into structured data.
package receipt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	defaultModel   = "claude-sonnet-4-20250514"
	defaultTimeout = 45 * time.Second

	apiVersion = "2023-06-01"
	maxTokens  = 1024
)

var (
	ErrNoImage          = errors.New("no image provided")
	ErrInvalidImage     = errors.New("invalid image format")
	ErrUnsupportedMedia = errors.New("unsupported image type")
	ErrEmptyReply       = errors.New("no response from model")
	ErrBadReply         = errors.New("could not parse receipt from model response")
)

// dataURLPattern matches a base64 data URL and captures the media type and
// payload.
var dataURLPattern = regexp.MustCompile(`^data:(image/[\w+-]+);base64,(.+)$`)

var supportedMediaTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

const extractionPrompt = `Analyze this receipt image and extract the line items with their prices.

Return a JSON object with this exact structure:
{
  "items": [
    {"name": "Item name", "price": 12.99},
    ...
  ],
  "subtotal": 50.00,
  "tax": 4.50,
  "tip": 10.00
}

Rules:
- Include only actual menu items/products, not subtotals or totals
- Price should be a number, not a string
- If tax is listed, include it
- If tip is listed, include it (often not on receipt)
- If subtotal is listed, include it
- Omit fields that aren't on the receipt

Return ONLY the JSON object, no explanation or markdown.`

// Item is one extracted line item. Prices are rounded to cents and
// guaranteed strictly positive.
type Item struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Receipt is the structured best-effort guess extracted from an image.
// Scalar fields are nil when the receipt doesn't show them.
type Receipt struct {
	Items    []Item   `json:"items"`
	Subtotal *float64 `json:"subtotal,omitempty"`
	Tax      *float64 `json:"tax,omitempty"`
	Tip      *float64 `json:"tip,omitempty"`
}

// Config holds the client settings. Zero values fall back to the public
// Anthropic API, the default model, and a 45s timeout.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client calls a vision/language messages API to parse receipt images.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewClient creates a receipt parsing client from the given config.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
	}
}

// messages API request/response shapes, reduced to the fields used here.

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Source *imageSource `json:"source,omitempty"`
	Text   string       `json:"text,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

// ParseImage sends a base64 data URL to the model and returns the cleaned
// extraction: items filtered to strictly positive prices, rounded to cents.
func (c *Client) ParseImage(ctx context.Context, dataURL string) (*Receipt, error) {
	if dataURL == "" {
		return nil, ErrNoImage
	}
	match := dataURLPattern.FindStringSubmatch(dataURL)
	if match == nil {
		return nil, ErrInvalidImage
	}
	mediaType, payload := match[1], match[2]
	if !supportedMediaTypes[mediaType] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMedia, mediaType)
	}

	reply, err := c.call(ctx, mediaType, payload)
	if err != nil {
		return nil, err
	}

	raw, err := extractJSON(reply)
	if err != nil {
		return nil, err
	}

	var parsed Receipt
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadReply, err)
	}
	if parsed.Items == nil {
		return nil, fmt.Errorf("%w: missing items array", ErrBadReply)
	}

	parsed.Items = cleanItems(parsed.Items)
	return &parsed, nil
}

func (c *Client) call(ctx context.Context, mediaType, payload string) (string, error) {
	reqBody := messagesRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []message{{
			Role: "user",
			Content: []contentBlock{
				{
					Type: "image",
					Source: &imageSource{
						Type:      "base64",
						MediaType: mediaType,
						Data:      payload,
					},
				},
				{
					Type: "text",
					Text: extractionPrompt,
				},
			},
		}},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("model request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("model returned status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var mr messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return "", fmt.Errorf("failed to decode model response: %w", err)
	}

	var text string
	for _, block := range mr.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

// extractJSON pulls the outermost {...} object out of the model's reply,
// tolerating surrounding prose or markdown fences.
func extractJSON(text string) ([]byte, error) {
	start := bytes.IndexByte([]byte(text), '{')
	end := bytes.LastIndexByte([]byte(text), '}')
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in reply", ErrBadReply)
	}
	return []byte(text[start : end+1]), nil
}
