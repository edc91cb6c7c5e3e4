package ics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetchReturnsBodyVerbatim(t *testing.T) {
	body := "BEGIN:VCALENDAR\r\nBEGIN:VEVENT\r\nSUMMARY:A Team\r\nEND:VEVENT\r\nEND:VCALENDAR\r\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	got, err := NewFetcherWithClient(srv.Client()).Fetch(context.Background(), srv.URL+"/basic.ics")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got != body {
		t.Fatalf("body = %q, want %q", got, body)
	}
}

func TestFetchNonSuccessStatus(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewFetcherWithClient(srv.Client()).Fetch(context.Background(), srv.URL)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FetchError", err)
	}
	if fe.StatusCode != http.StatusNotFound {
		t.Fatalf("StatusCode = %d, want 404", fe.StatusCode)
	}
	if calls != 1 {
		t.Fatalf("server called %d times, want exactly 1 (no retry)", calls)
	}
}

func TestFetchNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := NewFetcher(time.Second).Fetch(context.Background(), addr)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FetchError", err)
	}
	if fe.StatusCode != 0 || fe.Unwrap() == nil {
		t.Fatalf("unexpected FetchError: %+v", fe)
	}
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewFetcher(50*time.Millisecond).Fetch(context.Background(), srv.URL)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FetchError", err)
	}
}

func TestFetchEmptyURL(t *testing.T) {
	_, err := NewFetcher(0).Fetch(context.Background(), "")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FetchError", err)
	}
}

func TestRedactURL(t *testing.T) {
	tests := map[string]string{
		"https://calendar.google.com/calendar/ical/x%40gmail.com/public/basic.ics": "https://calendar.google.com/...(redacted)",
		"http://127.0.0.1:8080/feed.ics?token=abc":                                 "http://127.0.0.1:8080/...(redacted)",
		"not a url":                                                                "ics://...(redacted)",
	}
	for in, want := range tests {
		if got := redactURL(in); got != want {
			t.Errorf("redactURL(%q) = %q, want %q", in, got, want)
		}
	}

	fe := &FetchError{URL: "https://host.example/secret.ics", StatusCode: 500, Err: errors.New("boom")}
	if strings.Contains(fe.Error(), "secret") {
		t.Errorf("FetchError leaks path: %q", fe.Error())
	}
}
