// Package client is the HTTP client for the planchette REST API.
package client

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kestrad/planchette/internal/pkg/core"
	v1 "github.com/kestrad/planchette/internal/planchette/handler/v1"
	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/entity"
	"github.com/kestrad/planchette/pkg/utils/json"
)

// EventCallback is called for each plan event received on the stream.
type EventCallback func(ev *entity.PlanEvent)

// Client talks to a planchette server.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// New creates a new Client for the given base URL.
func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		// Plans can run several model round trips, so the budget is
		// generous.
		httpClient = &http.Client{Timeout: 10 * time.Minute}
	}

	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: httpClient,
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return req, nil
}

// doJSON performs a request and decodes the JSON response body into out.
func (c *Client) doJSON(ctx context.Context, method, path string, body []byte, out interface{}) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp core.ErrResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Message != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, errResp.Message)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// stream performs a request and relays the SSE event stream to cb until
// the server sends the closing sentinel.
func (c *Client) stream(ctx context.Context, method, path string, body []byte, cb EventCallback) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		var errResp core.ErrResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Message != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, errResp.Message)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}

	scanner := bufio.NewScanner(resp.Body)
	// Run snapshots can be large.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			break
		}

		var ev entity.PlanEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			continue
		}
		if cb != nil {
			cb(&ev)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}

// ExecutePlan submits a request and streams the resulting plan events.
func (c *Client) ExecutePlan(ctx context.Context, request, sessionID, userID string, cb EventCallback) error {
	body, err := json.Marshal(v1.ExecutePlanRequest{
		Request:   request,
		SessionID: sessionID,
		UserID:    userID,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.stream(ctx, http.MethodPost, "/v1/plans", body, cb)
}

// ResumeRun resumes an unfinished run and streams its events.
func (c *Client) ResumeRun(ctx context.Context, runID string, cb EventCallback) error {
	return c.stream(ctx, http.MethodPost, "/v1/runs/"+runID+"/resume", nil, cb)
}

// GetRun fetches one run by ID.
func (c *Client) GetRun(ctx context.Context, runID string) (*v1.RunResponse, error) {
	var run v1.RunResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/runs/"+runID, nil, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns lists the runs of a session.
func (c *Client) ListRuns(ctx context.Context, sessionID string) ([]v1.RunResponse, error) {
	var out struct {
		Runs []v1.RunResponse `json:"runs"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/sessions/"+sessionID+"/runs", nil, &out); err != nil {
		return nil, err
	}
	return out.Runs, nil
}

// ListSessions lists the sessions of a user.
func (c *Client) ListSessions(ctx context.Context, userID string) ([]v1.SessionResponse, error) {
	var out struct {
		Sessions []v1.SessionResponse `json:"sessions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/sessions?user_id="+userID, nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// GetSession fetches one session by ID.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*v1.SessionResponse, error) {
	var sess v1.SessionResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/sessions/"+sessionID, nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// DeleteSession deletes a session and its runs.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/sessions/"+sessionID, nil, nil)
}

// ListHistory lists the tool call history of a user, oldest first.
func (c *Client) ListHistory(ctx context.Context, userID string) ([]v1.HistoryRecordResponse, error) {
	var out struct {
		Records []v1.HistoryRecordResponse `json:"records"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/history?user_id="+userID, nil, &out); err != nil {
		return nil, err
	}
	return out.Records, nil
}

// ListTools lists the registered tools.
func (c *Client) ListTools(ctx context.Context) ([]v1.ToolResponse, error) {
	var out struct {
		Tools []v1.ToolResponse `json:"tools"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/tools", nil, &out); err != nil {
		return nil, err
	}
	return out.Tools, nil
}
