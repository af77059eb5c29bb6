// Package export pushes reconciled task-group totals to the downstream
// worklog system and drives the sent status transition.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"
)

// Worklog is one task group's total for one date, as the downstream
// system consumes it.
type Worklog struct {
	TaskKey          string
	ActivityValue    string
	TimeSpentSeconds int
	StartDate        string
	Description      string
}

// Exporter is the boundary to the worklog system. CreateWorklog returns an
// opaque reference id that is stored back on the exported sessions.
type Exporter interface {
	CreateWorklog(ctx context.Context, w Worklog) (string, error)
	DeleteWorklog(ctx context.Context, ref string) error
}

// Config holds the connection parameters for the worklog HTTP API.
type Config struct {
	BaseURL   string
	APIToken  string
	AccountID string
	Timeout   time.Duration
}

// HTTPClient implements Exporter against a Tempo-style REST API.
type HTTPClient struct {
	cfg  Config
	http *http.Client
}

func NewHTTPClient(cfg Config) *HTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &HTTPClient{
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
	}
}

// worklogRequest is the JSON body sent to POST /worklogs.
type worklogRequest struct {
	IssueKey         string `json:"issueKey"`
	TimeSpentSeconds int    `json:"timeSpentSeconds"`
	StartDate        string `json:"startDate"`
	Description      string `json:"description,omitempty"`
	Activity         string `json:"activity,omitempty"`
	AuthorAccountID  string `json:"authorAccountId"`
}

// worklogResponse is the subset of the creation response we consume.
type worklogResponse struct {
	WorklogID int `json:"tempoWorklogId"`
}

func (c *HTTPClient) CreateWorklog(ctx context.Context, w Worklog) (string, error) {
	body := worklogRequest{
		IssueKey:         w.TaskKey,
		TimeSpentSeconds: w.TimeSpentSeconds,
		StartDate:        w.StartDate,
		Description:      w.Description,
		Activity:         w.ActivityValue,
		AuthorAccountID:  c.cfg.AccountID,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling worklog: %w", err)
	}

	url := c.cfg.BaseURL + "/worklogs"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	httpResp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("posting worklog for %s: %w", w.TaskKey, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("worklog API returned status %d: %s", httpResp.StatusCode, string(respBody))
	}

	var resp worklogResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	return strconv.Itoa(resp.WorklogID), nil
}

func (c *HTTPClient) DeleteWorklog(ctx context.Context, ref string) error {
	url := c.cfg.BaseURL + "/worklogs/" + ref
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	httpResp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("deleting worklog %s: %w", ref, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK && httpResp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(httpResp.Body)
		return fmt.Errorf("worklog API returned status %d: %s", httpResp.StatusCode, string(body))
	}
	return nil
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
}
