package feed

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
)

// maxErrorBody caps how much of a failed response is kept for diagnostics
const maxErrorBody = 4096

// HTTPConfig holds the credentials and endpoint of the feed store
type HTTPConfig struct {
	BaseURL   string
	Username  string
	Key       string
	UserAgent string
	Timeout   time.Duration
}

// HTTPReader reads feeds from an Adafruit IO style REST API
type HTTPReader struct {
	config HTTPConfig
	client *http.Client
}

// NewHTTPReader creates a reader with a bounded client timeout
func NewHTTPReader(cfg HTTPConfig) *HTTPReader {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPReader{
		config: cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// dataPoint is one element of the feed data array
type dataPoint struct {
	CreatedAt string    `json:"created_at"`
	Value     flexFloat `json:"value"`
}

// flexFloat accepts both JSON numbers and numeric strings
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("invalid numeric value %q: %w", s, err)
		}
		*f = flexFloat(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

func (r *HTTPReader) feedURL(feed string, limit int) string {
	base := strings.TrimRight(r.config.BaseURL, "/")
	return fmt.Sprintf("%s/%s/feeds/%s/data?limit=%d",
		base, url.PathEscape(r.config.Username), url.PathEscape(feed), limit)
}

// Fetch retrieves the most recent readings of a feed, newest first.
// A non-200 answer is returned as *ProviderError and is never retried.
func (r *HTTPReader) Fetch(ctx context.Context, feed string, limit int) ([]Reading, error) {
	if err := ValidateRequest(feed, limit); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.feedURL(feed, limit), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for feed %q: %w", feed, err)
	}
	req.Header.Set("X-AIO-Key", r.config.Key)
	if r.config.UserAgent != "" {
		req.Header.Set("User-Agent", r.config.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed %q: %w", feed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &ProviderError{
			Feed:       feed,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	var points []dataPoint
	if err := json.NewDecoder(resp.Body).Decode(&points); err != nil {
		return nil, fmt.Errorf("failed to decode feed %q: %w", feed, err)
	}

	readings := make([]Reading, 0, len(points))
	for i, p := range points {
		ts, err := time.Parse(time.RFC3339, p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("feed %q record %d: invalid created_at %q: %w", feed, i, p.CreatedAt, err)
		}
		readings = append(readings, Reading{Timestamp: ts, Value: float64(p.Value)})
	}

	SortNewestFirst(readings)
	return readings, nil
}
