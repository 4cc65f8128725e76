package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"vetgate/internal/platform/config"
)

// HTTPClient talks to the screening provider's REST API. Every call is bounded
// by the configured timeout; a hung provider surfaces as a timeout error, never
// a blocked workflow.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewHTTPClient(cfg config.ProviderConfig) *HTTPClient {
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

type createRequestBody struct {
	PackageID string          `json:"package_id"`
	Candidate json.RawMessage `json:"candidate"`
}

type createResponseBody struct {
	ID        string `json:"id"`
	ReportURL string `json:"report_url"`
}

func (c *HTTPClient) CreateRequest(ctx context.Context, req CreateRequest) (CreateResult, error) {
	candidate, err := json.Marshal(req.Candidate)
	if err != nil {
		return CreateResult{}, NewError(ErrorInternal, "encode candidate", err)
	}
	body, err := json.Marshal(createRequestBody{PackageID: req.PackageID, Candidate: candidate})
	if err != nil {
		return CreateResult{}, NewError(ErrorInternal, "encode request", err)
	}

	var resp createResponseBody
	if err := c.do(ctx, http.MethodPost, "/v1/screenings", bytes.NewReader(body), &resp); err != nil {
		return CreateResult{}, err
	}
	if resp.ID == "" {
		return CreateResult{}, NewError(ErrorBadData, "provider returned no request id", nil)
	}
	return CreateResult{RequestID: resp.ID, ReportURL: resp.ReportURL}, nil
}

func (c *HTTPClient) PullStatus(ctx context.Context, requestID string) (StatusSnapshot, error) {
	var snapshot StatusSnapshot
	path := "/v1/screenings/" + requestID
	if err := c.do(ctx, http.MethodGet, path, nil, &snapshot); err != nil {
		return StatusSnapshot{}, err
	}
	if snapshot.Code == "" {
		return StatusSnapshot{}, NewError(ErrorBadData, "provider returned no status code", nil)
	}
	return snapshot, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body *bytes.Reader, out any) error {
	var reader io.Reader
	if body != nil {
		reader = body
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return NewError(ErrorInternal, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return NewError(ErrorTimeout, "provider call timed out", err)
		}
		return NewError(ErrorOutage, "provider unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return NewError(ErrorAuthentication, fmt.Sprintf("provider rejected credentials (%d)", resp.StatusCode), nil)
	case resp.StatusCode == http.StatusNotFound:
		return NewError(ErrorNotFound, "screening request not found", nil)
	case resp.StatusCode >= 500:
		return NewError(ErrorOutage, fmt.Sprintf("provider error (%d)", resp.StatusCode), nil)
	case resp.StatusCode >= 400:
		return NewError(ErrorBadData, fmt.Sprintf("provider rejected request (%d)", resp.StatusCode), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewError(ErrorBadData, "decode provider response", err)
	}
	return nil
}
