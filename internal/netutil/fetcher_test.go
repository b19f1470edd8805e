package netutil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetcher_Success(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte("a;b;c"))
	}))
	defer srv.Close()

	f := NewFetcher(time.Second, 5*time.Second, "civitas/test")
	defer f.Close()

	body, err := f.Fetch(context.Background(), srv.URL, "text/plain")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(body) != "a;b;c" {
		t.Fatalf("body: got %q", body)
	}
	if gotUA != "civitas/test" {
		t.Fatalf("user agent: got %q", gotUA)
	}
	if gotAccept != "text/plain" {
		t.Fatalf("accept: got %q", gotAccept)
	}
}

func TestFetcher_Non200IsHTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(time.Second, 5*time.Second, "")
	defer f.Close()

	_, err := f.Fetch(context.Background(), srv.URL, "")
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected HTTPStatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", statusErr.StatusCode)
	}
	if Classify(err) != FailureHTTP {
		t.Fatalf("classify: got %q, want %q", Classify(err), FailureHTTP)
	}
}

func TestFetcher_ReadTimeoutAppliesWithoutCallerDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte("late"))
	}))
	defer srv.Close()

	f := NewFetcher(time.Second, 30*time.Millisecond, "")
	defer f.Close()

	_, err := f.Fetch(context.Background(), srv.URL, "")
	if err == nil {
		t.Fatal("expected timeout")
	}
	if Classify(err) != FailureTimeout {
		t.Fatalf("classify: got %q, want %q", Classify(err), FailureTimeout)
	}
}

func TestFetcher_CallerDeadlineOverridesReadTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(80 * time.Millisecond)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewFetcher(time.Second, 20*time.Millisecond, "")
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	body, err := f.Fetch(ctx, srv.URL, "")
	if err != nil {
		t.Fatalf("should succeed under caller deadline: %v", err)
	}
	if string(body) != "ok" {
		t.Fatalf("body: got %q", body)
	}
}

func TestFetcher_UnreachableHost(t *testing.T) {
	f := NewFetcher(200*time.Millisecond, time.Second, "")
	defer f.Close()

	// Reserved TEST-NET address; connection refused or timed out.
	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if kind := Classify(err); kind != FailureUnreachable && kind != FailureTimeout {
		t.Fatalf("classify: got %q", kind)
	}
}

func TestFetcher_MalformedURL(t *testing.T) {
	f := NewFetcher(time.Second, time.Second, "")
	defer f.Close()

	_, err := f.Fetch(context.Background(), "http://\x00invalid", "")
	var nre *NonRetryableError
	if !errors.As(err, &nre) {
		t.Fatalf("expected NonRetryableError, got %v", err)
	}
}
