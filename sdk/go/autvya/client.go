package autvya

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config holds the settings needed to construct a Client.
type Config struct {
	// BaseURL is the root URL of the AuTvya server (e.g. "http://localhost:8080").
	BaseURL string

	// Email and Password are the caregiver's credentials. The client logs
	// in lazily and refreshes the token before it expires.
	Email    string
	Password string

	// HTTPClient is an optional custom HTTP client. If nil, a default client
	// with a 30-second timeout is used.
	HTTPClient *http.Client

	// Timeout applies to individual API requests. Defaults to 30 seconds.
	Timeout time.Duration
}

// Client is an HTTP client for the AuTvya caregiver API.
// All methods are safe for concurrent use.
type Client struct {
	baseURL  string
	client   *http.Client
	tokenMgr *tokenManager
}

// NewClient creates a Client from the given configuration.
// Returns an error if BaseURL, Email, or Password is empty.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("autvya: BaseURL is required")
	}
	if cfg.Email == "" {
		return nil, fmt.Errorf("autvya: Email is required")
	}
	if cfg.Password == "" {
		return nil, fmt.Errorf("autvya: Password is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:  baseURL,
		client:   httpClient,
		tokenMgr: newTokenManager(baseURL, cfg.Email, cfg.Password, httpClient),
	}, nil
}

// Register creates a caregiver account and returns a Client authenticated
// as that account. Consent is always sent; the server rejects registrations
// without it.
func Register(ctx context.Context, baseURL, email, password, name string, httpClient *http.Client) (*Client, *AuthResult, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	baseURL = strings.TrimRight(baseURL, "/")

	body, err := json.Marshal(RegisterRequest{
		Email:    email,
		Password: password,
		Name:     name,
		Consent:  true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("autvya: marshal register request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/auth/register", bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("autvya: create register request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("autvya: register request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var result AuthResult
	if err := handleResponse(resp, &result); err != nil {
		return nil, nil, err
	}

	client := &Client{
		baseURL:  baseURL,
		client:   httpClient,
		tokenMgr: newTokenManager(baseURL, email, password, httpClient),
	}
	client.tokenMgr.seed(result.Token, result.ExpiresAt)
	return client, &result, nil
}

// ---------------------------------------------------------------------------
// Child profiles
// ---------------------------------------------------------------------------

// CreateChild creates a new child profile. Timezone defaults to UTC and
// the phase starts at CONNECTION.
func (c *Client) CreateChild(ctx context.Context, req CreateChildRequest) (*Child, error) {
	var resp Child
	if err := c.post(ctx, "/v1/children", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListChildren lists the account's child profiles with interaction counts.
func (c *Client) ListChildren(ctx context.Context) ([]ChildWithCount, error) {
	var resp []ChildWithCount
	if err := c.get(ctx, "/v1/children", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetChild retrieves a single child profile.
func (c *Client) GetChild(ctx context.Context, childID uuid.UUID) (*Child, error) {
	var resp Child
	if err := c.get(ctx, "/v1/children/"+childID.String(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateChild applies a partial update to a child profile.
func (c *Client) UpdateChild(ctx context.Context, childID uuid.UUID, req UpdateChildRequest) (*Child, error) {
	var resp Child
	if err := c.patch(ctx, "/v1/children/"+childID.String(), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteChild removes a child profile and all of its interaction history.
func (c *Client) DeleteChild(ctx context.Context, childID uuid.UUID) error {
	return c.doDelete(ctx, "/v1/children/"+childID.String(), nil)
}

// ---------------------------------------------------------------------------
// Interactions
// ---------------------------------------------------------------------------

// RecordInteraction stores one button press, timestamped by the server.
func (c *Client) RecordInteraction(ctx context.Context, childID uuid.UUID, button string, sessionDuration *time.Duration) (*InteractionEvent, error) {
	body := map[string]any{"child_id": childID, "button": button}
	if sessionDuration != nil {
		body["session_duration_secs"] = int(sessionDuration.Seconds())
	}
	var resp InteractionEvent
	if err := c.post(ctx, "/v1/interactions", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitBatch stores a set of buffered events in one round trip.
func (c *Client) SubmitBatch(ctx context.Context, childID uuid.UUID, events []InteractionInput) (*BatchResponse, error) {
	var resp BatchResponse
	if err := c.post(ctx, "/v1/interactions/batch", batchRequest{ChildID: childID, Interactions: events}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ---------------------------------------------------------------------------
// Derived views
// ---------------------------------------------------------------------------

// Metrics retrieves the aggregated usage view for a child.
// days <= 0 uses the server default window.
func (c *Client) Metrics(ctx context.Context, childID uuid.UUID, days int) (*MetricsResponse, error) {
	path := "/v1/children/" + childID.String() + "/metrics"
	if days > 0 {
		params := url.Values{}
		params.Set("days", strconv.Itoa(days))
		path += "?" + params.Encode()
	}
	var resp MetricsResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Readiness reports whether a child meets the criteria for the next phase.
func (c *Client) Readiness(ctx context.Context, childID uuid.UUID) (*ReadinessResponse, error) {
	var resp ReadinessResponse
	if err := c.get(ctx, "/v1/children/"+childID.String()+"/readiness", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Report retrieves the full caregiver report for a child.
func (c *Client) Report(ctx context.Context, childID uuid.UUID) (*ReportResponse, error) {
	var resp ReportResponse
	if err := c.get(ctx, "/v1/children/"+childID.String()+"/report", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Summary retrieves one row per child across the whole account.
func (c *Client) Summary(ctx context.Context) ([]SummaryRow, error) {
	var resp []SummaryRow
	if err := c.get(ctx, "/v1/reports/summary", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GenerateInsight requests an AI analysis of a child's recent usage.
// days <= 0 uses the server default window. Returns a 422 error, checkable
// with IsNotEnoughData, when the child has too few interactions.
func (c *Client) GenerateInsight(ctx context.Context, childID uuid.UUID, days int) (*InsightReport, error) {
	body := map[string]any{"child_id": childID}
	if days > 0 {
		body["days"] = days
	}
	var resp InsightReport
	if err := c.post(ctx, "/v1/insights", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health checks server health without authentication.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.getNoAuth(ctx, "/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ---------------------------------------------------------------------------
// HTTP transport
// ---------------------------------------------------------------------------

// apiEnvelope is the server's standard response wrapper.
type apiEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// apiErrorEnvelope is the server's standard error response wrapper.
type apiErrorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) post(ctx context.Context, path string, body any, dest any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("autvya: marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("autvya: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doRequest(ctx, req, dest)
}

func (c *Client) patch(ctx context.Context, path string, body any, dest any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("autvya: marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("autvya: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doRequest(ctx, req, dest)
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("autvya: create request: %w", err)
	}

	return c.doRequest(ctx, req, dest)
}

func (c *Client) doDelete(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("autvya: create request: %w", err)
	}

	return c.doRequest(ctx, req, dest)
}

func (c *Client) getNoAuth(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("autvya: create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("autvya: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	return handleResponse(resp, dest)
}

func (c *Client) doRequest(ctx context.Context, req *http.Request, dest any) error {
	token, err := c.tokenMgr.getToken(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("autvya: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	return handleResponse(resp, dest)
}

func handleResponse(resp *http.Response, dest any) error {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("autvya: read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return parseErrorResponse(resp.StatusCode, bodyBytes)
	}

	// 204 No Content has nothing to decode.
	if resp.StatusCode == http.StatusNoContent || dest == nil {
		return nil
	}

	// Unwrap the server's { "data": ... } envelope.
	var envelope apiEnvelope
	if err := json.Unmarshal(bodyBytes, &envelope); err != nil {
		return fmt.Errorf("autvya: decode response envelope: %w", err)
	}

	if envelope.Data == nil {
		// Fallback: some endpoints may not wrap in "data".
		return json.Unmarshal(bodyBytes, dest)
	}

	return json.Unmarshal(envelope.Data, dest)
}

func parseErrorResponse(statusCode int, body []byte) *Error {
	apiErr := &Error{StatusCode: statusCode}

	var envelope apiErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	} else {
		apiErr.Code = http.StatusText(statusCode)
		apiErr.Message = string(body)
	}

	return apiErr
}
