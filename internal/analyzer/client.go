// Package analyzer implements the HTTP client for the financial analysis
// backend: statement uploads, debt and investment optimizers, and the
// health/feature probes.
//
// The client is stateless and imposes no retries and no timeout of its own;
// callers bound requests through the context.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

const DefaultBaseURL = "http://localhost:5000"

// APIError is a non-2xx response from the analysis backend. Error() returns
// the server-supplied message verbatim so it can be shown to the user as-is.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Config holds client configuration.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Client talks to the analysis backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given configuration. A nil config or
// empty base URL falls back to DefaultBaseURL.
func NewClient(cfg *Config) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
	}
	if cfg != nil {
		if cfg.BaseURL != "" {
			c.baseURL = strings.TrimRight(cfg.BaseURL, "/")
		}
		if cfg.HTTPClient != nil {
			c.httpClient = cfg.HTTPClient
		}
	}
	return c
}

// BaseURL returns the configured backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// UploadCSV submits a CSV bank statement for analysis.
func (c *Client) UploadCSV(ctx context.Context, filename string, file io.Reader) (*AnalysisResult, error) {
	var result AnalysisResult
	if err := c.upload(ctx, "/upload-csv", filename, file, "Analysis failed", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UploadPDF submits a PDF bank statement for analysis.
func (c *Client) UploadPDF(ctx context.Context, filename string, file io.Reader) (*AnalysisResult, error) {
	var result AnalysisResult
	if err := c.upload(ctx, "/upload-pdf", filename, file, "PDF analysis failed", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DebtAnalysisRequest is the debt optimizer input.
type DebtAnalysisRequest struct {
	AvailableMonthly float64 `json:"available_monthly"`
	DebtsCSVPath     string  `json:"debts_csv_path,omitempty"`
}

// DebtAnalysis runs the avalanche/snowball comparison for the given
// available monthly amount.
func (c *Client) DebtAnalysis(ctx context.Context, req DebtAnalysisRequest) (*DebtAnalysis, error) {
	var result DebtAnalysis
	if err := c.postJSON(ctx, "/debt-analysis", req, "Debt analysis failed", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// InvestmentAnalysis fetches risk-profile projections for the given
// available monthly amount.
func (c *Client) InvestmentAnalysis(ctx context.Context, availableMonthly float64) (*InvestmentAnalysis, error) {
	body := struct {
		AvailableMonthly float64 `json:"available_monthly"`
	}{availableMonthly}

	var result InvestmentAnalysis
	if err := c.postJSON(ctx, "/investment-analysis", body, "Investment analysis failed", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ComprehensiveAnalysis runs the combined analysis. The response shape is
// backend-defined and passed through undecoded.
func (c *Client) ComprehensiveAnalysis(ctx context.Context, availableIncome, optimizedAvailableIncome float64) (json.RawMessage, error) {
	body := struct {
		AvailableIncome          float64 `json:"available_income"`
		OptimizedAvailableIncome float64 `json:"optimized_available_income"`
	}{availableIncome, optimizedAvailableIncome}

	var result json.RawMessage
	if err := c.postJSON(ctx, "/comprehensive-analysis", body, "Comprehensive analysis failed", &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Health reports whether the backend answers its health endpoint with a
// success status. Any transport or HTTP failure reads as unhealthy.
func (c *Client) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Features fetches the backend capability flags.
func (c *Client) Features(ctx context.Context) (Features, error) {
	var f Features
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/features", nil)
	if err != nil {
		return f, fmt.Errorf("features request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return f, fmt.Errorf("fetch features: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return f, c.decodeError("features", resp, "Failed to fetch features")
	}
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		return f, fmt.Errorf("decode features: %w", err)
	}
	return f, nil
}

func (c *Client) upload(ctx context.Context, path, filename string, file io.Reader, fallback string, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copy file body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(req, path, fallback, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body any, fallback string, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, path, fallback, out)
}

func (c *Client) do(req *http.Request, op, fallback string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport failures propagate unchanged; no retry at this layer.
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.decodeError(op, resp, fallback)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// decodeError normalizes a non-2xx response into an APIError. The error body
// is expected to be JSON with an "error" field; anything else degrades to
// the endpoint's fallback message instead of surfacing a parse failure.
func (c *Client) decodeError(op string, resp *http.Response, fallback string) error {
	apiErr := &APIError{Op: op, Status: resp.StatusCode, Message: fallback}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
	}
	return apiErr
}
