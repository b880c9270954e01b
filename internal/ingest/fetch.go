package ingest

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/quakestream/quakestream/internal/domain"
	"github.com/quakestream/quakestream/internal/parser"
)

// SourceConfig is the per-source configuration spec.md §6 requires:
// base_url, timeout_seconds, max_retries, retry_backoff_base. Format is
// derived from parser.FormatForSource, not stored here.
type SourceConfig struct {
	BaseURL          string            `validate:"required,url"`
	TimeoutSeconds   int               `validate:"min=1"`
	MaxRetries       int               `validate:"min=0,max=10"`
	RetryBackoffBase float64           `validate:"min=1"`
	ReviewedCatalogs map[string]bool
}

// Fetcher performs a single HTTP GET. Abstracted so tests can substitute a
// deterministic stub instead of a live network call.
type Fetcher interface {
	Fetch(ctx context.Context, requestURL string, timeout time.Duration) (statusCode int, body []byte, err error)
}

// HTTPFetcher is the production Fetcher, a thin net/http.Client wrapper.
type HTTPFetcher struct {
	Client *http.Client
}

func NewHTTPFetcher() HTTPFetcher {
	return HTTPFetcher{Client: &http.Client{}}
}

func (f HTTPFetcher) Fetch(ctx context.Context, requestURL string, timeout time.Duration) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// buildURL implements spec.md §4.3 step 4: format, starttime, endtime,
// minmagnitude=0.0, orderby=time, timestamps as YYYY-MM-DDTHH:MM:SS with no
// zone suffix.
func buildURL(source domain.Source, cfg SourceConfig, start, end time.Time) string {
	q := url.Values{}
	q.Set("format", parser.FormatForSource[source])
	q.Set("starttime", formatFDSNTime(start))
	q.Set("endtime", formatFDSNTime(end))
	q.Set("minmagnitude", "0.0")
	q.Set("orderby", "time")

	sep := "?"
	if containsQuery(cfg.BaseURL) {
		sep = "&"
	}
	return cfg.BaseURL + sep + q.Encode()
}

func containsQuery(u string) bool {
	for _, c := range u {
		if c == '?' {
			return true
		}
	}
	return false
}

func formatFDSNTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05")
}

// fetchWithRetry implements spec.md §4.3 steps 5-6: up to max_retries
// additional attempts after the first, sleeping retry_backoff_base^attempt
// seconds between attempts (the first retry waits base^1). HTTP 204 is a
// successful empty body.
func fetchWithRetry(ctx context.Context, fetcher Fetcher, requestURL string, cfg SourceConfig) ([]byte, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		status, body, err := fetcher.Fetch(ctx, requestURL, timeout)
		if err == nil && (status == http.StatusOK || status == http.StatusNoContent) {
			return body, nil
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("unexpected status %s", strconv.Itoa(status))
		}

		if attempt < cfg.MaxRetries {
			backoff := time.Duration(math.Pow(cfg.RetryBackoffBase, float64(attempt+1)) * float64(time.Second))
			if !sleepWithContext(ctx, backoff) {
				return nil, ctx.Err()
			}
		}
	}

	return nil, fmt.Errorf("all %d attempts failed, last error: %w", cfg.MaxRetries+1, lastErr)
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
