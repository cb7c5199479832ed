// Package tts provides adapters that drive a singing-voice synthesis engine, either a
// remote synthesis service over HTTP or a native renderer binary.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// API endpoints and paths.
const (
	apiLanguages  = "/v1/languages"
	apiSynthesize = "/v1/synthesize"
	apiHealth     = "/health"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
)

// Error messages.
const (
	errFmtServiceErrorWithCode = "synthesis service error (%s): %s (code: %s)"
	errFmtServiceNonOKStatus   = "synthesis service returned non-OK status: %s, body: %s"
)

var (
	// ErrEmptyAudio is returned when the service answers without audio.
	ErrEmptyAudio = errors.New("received empty audio data")
	// ErrNoScore is returned when a synthesis request carries no score.
	ErrNoScore = errors.New("score cannot be empty")
)

// HTTPClient is a client for a remote singing synthesis service.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
}

// LanguagesRequest asks the service to confirm a language set and dictionary.
type LanguagesRequest struct {
	Languages     []string `json:"languages"`
	DictionaryDir string   `json:"dictionary_dir"`
}

// Voice is a voice model shipped with a synthesis request.
type Voice struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

// SynthesisRequest is the JSON payload of one synthesis call.
type SynthesisRequest struct {
	Languages     []string `json:"languages"`
	DictionaryDir string   `json:"dictionary_dir"`
	Voices        []Voice  `json:"voices"`
	ScoreName     string   `json:"score_name"`
	Score         []byte   `json:"score"`
	StartTime     float64  `json:"start_time,omitempty"`
	OutputLabel   bool     `json:"output_label"`
	TimedLabel    bool     `json:"timed_label"`
	MonoLabel     bool     `json:"mono_label"`
}

// SynthesisResponse carries the rendered waveform and optional label text.
type SynthesisResponse struct {
	Audio []byte `json:"audio"`
	Label string `json:"label,omitempty"`
}

// ErrorResponse represents a structured error response from the service.
type ErrorResponse struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code,omitempty"`
}

// NewHTTPClient creates a client for the service at baseURL (e.g. "http://localhost:8090").
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CheckLanguages asks the service whether it can serve the languages with the dictionary.
func (c *HTTPClient) CheckLanguages(ctx context.Context, req LanguagesRequest) error {
	resp, err := c.postJSON(ctx, apiLanguages, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}

	return nil
}

// Synthesize sends one synthesis request and returns the rendered result.
func (c *HTTPClient) Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResponse, error) {
	if len(req.Score) == 0 {
		return nil, ErrNoScore
	}

	resp, err := c.postJSON(ctx, apiSynthesize, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var result SynthesisResponse

	err = json.NewDecoder(resp.Body).Decode(&result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode synthesis response: %w", err)
	}

	if len(result.Audio) == 0 {
		return nil, ErrEmptyAudio
	}

	return &result, nil
}

// HealthCheck verifies that the service is reachable and healthy.
func (c *HTTPClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+apiHealth, nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %s", resp.Status)
	}

	return nil
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, contentTypeJSON)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to synthesis service at %s: %w", c.baseURL, err)
	}

	return resp, nil
}

// parseErrorResponse decodes a structured JSON error and falls back to the raw body.
func (c *HTTPClient) parseErrorResponse(resp *http.Response) error {
	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return fmt.Errorf(errFmtServiceNonOKStatus, resp.Status, readErr.Error())
	}

	var errorResp ErrorResponse

	err := json.Unmarshal(body, &errorResp)
	if err == nil && errorResp.Detail != "" {
		return fmt.Errorf(errFmtServiceErrorWithCode, resp.Status, errorResp.Detail, errorResp.ErrorCode)
	}

	return fmt.Errorf(errFmtServiceNonOKStatus, resp.Status, string(body))
}
