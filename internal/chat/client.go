package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GeminiError is a failure talking to the Gemini API.
type GeminiError struct {
	Op  string
	Err error
}

func (e *GeminiError) Error() string {
	if e.Err == nil {
		return "gemini error: " + e.Op
	}
	return "gemini error: " + e.Op + ": " + e.Err.Error()
}

func (e *GeminiError) Unwrap() error {
	return e.Err
}

// Config holds Gemini client settings.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// DefaultConfig returns the default Gemini settings.
func DefaultConfig() *Config {
	return &Config{
		Model:   "gemini-1.5-flash-latest",
		BaseURL: "https://generativelanguage.googleapis.com/v1beta",
		Timeout: 30 * time.Second,
	}
}

// Client calls the Gemini generateContent API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Gemini client. A nil config uses defaults; zero
// fields fall back to them individually.
func NewClient(config *Config) *Client {
	defaults := DefaultConfig()
	if config == nil {
		config = defaults
	}
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	return &Client{
		apiKey:     config.APIKey,
		model:      config.Model,
		baseURL:    config.BaseURL,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// Enabled reports whether an API key is configured. Without one callers go
// straight to FallbackResponse.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type generatePart struct {
	Text string `json:"text"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generateRequest struct {
	Contents         []generateContent `json:"contents"`
	GenerationConfig generationConfig  `json:"generationConfig"`
	SafetySettings   []safetySetting   `json:"safetySettings"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []generatePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

var defaultSafetySettings = []safetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
}

// Ask sends the user's question with the financial context baked into the
// prompt and returns the model's reply.
func (c *Client) Ask(ctx context.Context, profile UserProfile, fc FinancialContext, question string) (string, error) {
	prompt := fmt.Sprintf("%s\nUSER QUESTION: %s\n\nPlease provide a helpful, personalized response based on the user's financial data above.",
		systemPrompt(profile, fc), question)

	reqBody := generateRequest{
		Contents: []generateContent{{Parts: []generatePart{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     0.7,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 200,
		},
		SafetySettings: defaultSafetySettings,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", &GeminiError{Op: "encode request", Err: err}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", &GeminiError{Op: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &GeminiError{Op: "send request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", &GeminiError{Op: fmt.Sprintf("api status %d", resp.StatusCode)}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &GeminiError{Op: "decode response", Err: err}
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", &GeminiError{Op: "empty candidates"}
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
