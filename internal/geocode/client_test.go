package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"issuemap_backend/platform/config"
)

func testClient(spacing time.Duration) *Client {
	profile := config.DefaultGeocodeProfile()
	profile.HostSpacing = spacing
	return NewClient(profile)
}

func TestFetchSetsIdentifyingHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "Khanty-Mansiysk-Issues/1.0 (you@example.com)" {
			t.Errorf("unexpected User-Agent: %q", ua)
		}
		if al := r.Header.Get("Accept-Language"); al != "ru-RU,ru" {
			t.Errorf("unexpected Accept-Language: %q", al)
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := testClient(time.Millisecond)
	body, fail := client.Fetch(context.Background(), server.URL, url.Values{"q": {"test"}}, time.Second)
	if fail != nil {
		t.Fatalf("unexpected failure: %v", fail)
	}
	if string(body) != `[]` {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestFetchClassifiesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := testClient(time.Millisecond)
	_, fail := client.Fetch(context.Background(), server.URL, url.Values{}, time.Second)
	if fail == nil || fail.Class != FailureHTTP {
		t.Fatalf("expected http_error failure, got %v", fail)
	}
	if fail.Status != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", fail.Status)
	}
}

func TestFetchClassifiesTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := testClient(time.Millisecond)
	_, fail := client.Fetch(context.Background(), server.URL, url.Values{}, 20*time.Millisecond)
	if fail == nil || fail.Class != FailureTimeout {
		t.Fatalf("expected timeout failure, got %v", fail)
	}
}

func TestFetchClassifiesTransportErrorAsTimeout(t *testing.T) {
	client := testClient(time.Millisecond)
	_, fail := client.Fetch(context.Background(), "http://127.0.0.1:1/search", url.Values{}, time.Second)
	if fail == nil || fail.Class != FailureTimeout {
		t.Fatalf("expected connection errors classified as timeout, got %v", fail)
	}
}

func TestFetchClassifiesMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	client := testClient(time.Millisecond)
	_, fail := client.Fetch(context.Background(), server.URL, url.Values{}, time.Second)
	if fail == nil || fail.Class != FailureMalformed {
		t.Fatalf("expected malformed failure, got %v", fail)
	}
}

func TestFetchClassifiesProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "Unable to geocode"}`))
	}))
	defer server.Close()

	client := testClient(time.Millisecond)
	_, fail := client.Fetch(context.Background(), server.URL, url.Values{}, time.Second)
	if fail == nil || fail.Class != FailureUpstream {
		t.Fatalf("expected upstream_error failure, got %v", fail)
	}
}

func TestFetchTreatsEmptyObjectAsProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := testClient(time.Millisecond)
	_, fail := client.Fetch(context.Background(), server.URL, url.Values{}, time.Second)
	if fail == nil || fail.Class != FailureUpstream {
		t.Fatalf("expected upstream_error failure for empty object, got %v", fail)
	}
}

func TestFetchSpacesRequestsPerHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	spacing := 80 * time.Millisecond
	client := testClient(spacing)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, fail := client.Fetch(context.Background(), server.URL, url.Values{}, time.Second); fail != nil {
			t.Fatalf("unexpected failure: %v", fail)
		}
	}
	if elapsed := time.Since(start); elapsed < 2*spacing {
		t.Fatalf("three requests finished in %v, expected at least %v of spacing", elapsed, 2*spacing)
	}
}
