package api

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

	"github.com/banshee-data/sitrise/internal/db"
	"github.com/banshee-data/sitrise/internal/httputil"
	"github.com/banshee-data/sitrise/internal/srt/analysis"
)

// StatusError is a non-success answer from the server.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to a running Server.
type Client struct {
	base string
	http httputil.HTTPClient
}

// NewClient returns a Client for the server at baseURL. A nil c uses the
// default HTTP client.
func NewClient(baseURL string, c httputil.HTTPClient) *Client {
	if c == nil {
		c = httputil.NewStandardClient(nil)
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: c}
}

// Analyze asks the server to analyze videoPath, a path on the server's
// filesystem. A failed analysis returns the stored failure record together
// with a *StatusError.
func (c *Client) Analyze(ctx context.Context, videoPath string) (*analysis.Report, error) {
	body, err := json.Marshal(analyzeRequest{VideoPath: videoPath})
	if err != nil {
		return nil, err
	}
	var report analysis.Report
	status, err := c.do(ctx, http.MethodPost, "/api/analyze", body, &report, http.StatusCreated, http.StatusUnprocessableEntity)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnprocessableEntity {
		return &report, &StatusError{StatusCode: status, Message: report.Error}
	}
	return &report, nil
}

// Report fetches one stored report.
func (c *Client) Report(ctx context.Context, id string) (*analysis.Report, error) {
	var report analysis.Report
	if _, err := c.do(ctx, http.MethodGet, "/api/reports/"+url.PathEscape(id), nil, &report, http.StatusOK); err != nil {
		return nil, err
	}
	return &report, nil
}

// Reports lists stored reports, newest first.
func (c *Client) Reports(ctx context.Context, limit int) ([]db.ReportSummary, error) {
	path := "/api/reports"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []db.ReportSummary
	if _, err := c.do(ctx, http.MethodGet, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any, accept ...int) (int, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	for _, code := range accept {
		if resp.StatusCode == code {
			if err := json.Unmarshal(data, out); err != nil {
				return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
			}
			return resp.StatusCode, nil
		}
	}

	var eb httputil.ErrorBody
	if json.Unmarshal(data, &eb) != nil || eb.Error == "" {
		eb.Error = strings.TrimSpace(string(data))
	}
	return resp.StatusCode, &StatusError{StatusCode: resp.StatusCode, Message: eb.Error}
}
