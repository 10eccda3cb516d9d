// Package dispatch sends assembled wizard payloads to the upstream
// freight API: one primary create-or-update call, then best-effort
// secondary calls whose failures are logged and never surfaced. When
// no upstream is configured, a local dispatcher persists submissions
// to the store instead.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/freightwise/cargodesk/internal/wizard"
)

// Client dispatches to an upstream REST API over HTTP.
type Client struct {
	baseURL string
	hc      *http.Client
}

// NewClient creates a dispatcher for the given base URL. Timeout policy
// lives entirely here; the wizard engine imposes none of its own.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: timeout},
	}
}

// Dispatch performs the primary call: POST for Create, PUT with the
// resource id for Edit. Exactly one network call for the primary
// resource; a failure leaves the caller's session untouched so the
// user can retry without re-entering anything.
func (c *Client) Dispatch(ctx context.Context, req wizard.DispatchRequest) (wizard.DispatchResult, error) {
	method := http.MethodPost
	url := c.baseURL + "/" + req.ResourcePath
	if req.Mode == wizard.ModeEdit {
		method = http.MethodPut
		url += "/" + req.ResourceID
	}
	var result wizard.DispatchResult
	if err := c.do(ctx, method, url, req.Payload, &result); err != nil {
		return wizard.DispatchResult{}, fmt.Errorf("submit %s: %w", req.ResourcePath, err)
	}
	if result.ID == "" {
		result.ID = req.ResourceID
	}
	return result, nil
}

// Notify posts one secondary sub-resource record. Used by the
// notification consumer; callers treat errors as log-only.
func (c *Client) Notify(ctx context.Context, wizardType, resourceID string, recipient map[string]any) error {
	url := fmt.Sprintf("%s/%s/%s/notifications", c.baseURL, resourcePathFor(wizardType), resourceID)
	return c.do(ctx, http.MethodPost, url, recipient, nil)
}

func resourcePathFor(wizardType string) string {
	switch wizardType {
	case "customer":
		return "customers"
	case "callentry":
		return "call-entries"
	}
	return "air-export-jobs"
}

func (c *Client) do(ctx context.Context, method, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upstream returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
