package wind

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenWeatherFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("appid"); got != "test-key" {
			t.Errorf("appid = %q, want test-key", got)
		}
		if got := r.URL.Query().Get("lat"); got != "12.34" {
			t.Errorf("lat = %q, want 12.34", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"wind":{"speed":7.2,"deg":135}}`))
	}))
	defer srv.Close()

	p := NewOpenWeather(srv.URL, "test-key")
	sample, err := p.Fetch(context.Background(), 12.34, 56.78)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if sample.Speed != 7.2 || sample.Direction != 135 {
		t.Errorf("sample = %+v", sample)
	}
	if sample.Latitude != 12.34 || sample.Longitude != 56.78 {
		t.Errorf("coordinates not echoed: %+v", sample)
	}
	if sample.FetchedAt.IsZero() {
		t.Error("fetchedAt not set")
	}
}

func TestOpenWeatherMissingKey(t *testing.T) {
	p := NewOpenWeather("http://example.invalid", "")
	if _, err := p.Fetch(context.Background(), 0, 0); err == nil {
		t.Fatal("expected an error without an api key")
	}
}

func TestOpenWeatherUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewOpenWeather(srv.URL, "test-key")
	if _, err := p.Fetch(context.Background(), 0, 0); err == nil {
		t.Fatal("expected an error on a non-200 response")
	}
}
