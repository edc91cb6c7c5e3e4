package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	appLog "tornadocal/internal/log"
)

// FetchError reports a feed that could not be retrieved: a transport
// failure, a timeout or a non-2xx status. Callers treat it as "no events".
type FetchError struct {
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", redactURL(e.URL), e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", redactURL(e.URL), e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher retrieves raw ICS documents. Every call goes to the network;
// nothing is cached.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher whose requests are bounded by timeout.
// A non-positive timeout leaves the http.Client default (no timeout).
func NewFetcher(timeout time.Duration) *Fetcher {
	client := &http.Client{}
	if timeout > 0 {
		client.Timeout = timeout
	}
	return &Fetcher{client: client}
}

// NewFetcherWithClient wraps an existing client, e.g. one from httptest.
func NewFetcherWithClient(client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{client: client}
}

// Fetch performs a single GET with no retry and returns the body verbatim.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) (string, error) {
	if feedURL == "" {
		return "", &FetchError{Err: errors.New("feed URL is empty")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return "", &FetchError{URL: feedURL, Err: err}
	}
	req.Header.Set("Accept", "text/calendar, */*;q=0.5")

	appLog.Debug("ics fetch start", "url", redactURL(feedURL))
	start := time.Now()

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: feedURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &FetchError{
			URL:        feedURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &FetchError{URL: feedURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	appLog.Info("ics fetch success",
		"url", redactURL(feedURL),
		"status", resp.StatusCode,
		"bytes", len(body),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return string(body), nil
}

// redactURL hides the path and query of a feed URL for logging; private
// calendar links carry their secret there.
//
//	https://calendar.example.com/ical/private-abc/basic.ics -> https://calendar.example.com/...(redacted)
func redactURL(raw string) string {
	const redactedSuffix = "/...(redacted)"

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "ics://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + redactedSuffix
}
