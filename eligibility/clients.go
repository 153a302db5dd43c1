/*
clients.go - HTTP implementations of the SSB and FCB collaborator contracts

PURPOSE:
  Thin JSON-over-HTTP clients for the two external verification services.
  Wire formats are the collaborators' own; this engine only consumes the
  fields it maps (success/status for SSB, status/fcb_score for FCB) and
  keeps the full decoded body as the raw check result.

TIMEOUTS:
  The http.Client carries a hard timeout; the router adds a per-call
  context deadline on top. A timed-out call surfaces as a transport
  error, which the router maps to Failure (SSB) or Pending (FCB).
*/
package eligibility

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlas/backoffice-engine/domain"
)

// =============================================================================
// SSB - Government salary-service bureau
// =============================================================================

// HTTPSSBClient submits loan applications to the SSB endpoint.
type HTTPSSBClient struct {
	BaseURL string
	Client  *http.Client
}

func NewSSBClient(baseURL string) *HTTPSSBClient {
	return &HTTPSSBClient{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPSSBClient) SubmitLoanApplication(ctx context.Context, app *domain.Application) (*SSBResponse, error) {
	payload := map[string]any{
		"reference_code": app.ReferenceCode,
		"form":           app.Form,
	}

	raw, err := postJSON(ctx, c.Client, c.BaseURL+"/loan-applications", payload)
	if err != nil {
		return nil, err
	}

	resp := &SSBResponse{Raw: raw}
	if success, ok := raw["success"].(bool); ok {
		resp.Success = success
	}
	if status, ok := raw["status"].(string); ok {
		resp.Status = status
	}
	return resp, nil
}

// =============================================================================
// FCB - External credit bureau
// =============================================================================

// HTTPFCBClient looks up credit status by national ID.
type HTTPFCBClient struct {
	BaseURL string
	Client  *http.Client
}

func NewFCBClient(baseURL string) *HTTPFCBClient {
	return &HTTPFCBClient{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPFCBClient) CheckCreditStatus(ctx context.Context, nationalID string) (*FCBResponse, error) {
	endpoint := c.BaseURL + "/credit-status?national_id=" + url.QueryEscape(nationalID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build FCB request: %w", err)
	}

	raw, err := doJSON(c.Client, req)
	if err != nil {
		return nil, err
	}

	resp := &FCBResponse{Raw: raw, Score: decimal.Zero}
	if status, ok := raw["status"].(string); ok {
		resp.Status = status
	}
	if score, ok := raw["fcb_score"].(float64); ok {
		resp.Score = decimal.NewFromFloat(score)
	}
	return resp, nil
}

// =============================================================================
// SHARED PLUMBING
// =============================================================================

func postJSON(ctx context.Context, client *http.Client, endpoint string, payload any) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return doJSON(client, req)
}

func doJSON(client *http.Client, req *http.Request) (map[string]any, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return decoded, nil
}
