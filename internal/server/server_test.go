package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bananalab/internal/startup"
	"bananalab/internal/thumbnail"
)

type fakeMemory struct{ paused bool }

func (f fakeMemory) IsPaused() bool { return f.paused }

func TestHealth(t *testing.T) {
	thumbs := thumbnail.NewCache(4)
	thumbs.Put(&thumbnail.Encoded{PageID: "p", Width: 1, Height: 1, Data: make([]byte, 10)})

	tests := []struct {
		name       string
		memory     Pausable
		wantStatus string
	}{
		{name: "healthy", memory: fakeMemory{}, wantStatus: statusHealthy},
		{name: "paused", memory: fakeMemory{paused: true}, wantStatus: statusDegraded},
		{name: "no monitor", wantStatus: statusHealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Options{Thumbnails: thumbs, Memory: tt.memory})
			rec := httptest.NewRecorder()
			s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status code = %d", rec.Code)
			}
			var resp HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", resp.Status, tt.wantStatus)
			}
			if resp.Thumbnails != 1 || resp.ThumbnailBytes != 10 {
				t.Errorf("thumbnail stats = %d/%d", resp.Thumbnails, resp.ThumbnailBytes)
			}
		})
	}
}

func TestHeadHasNoBody(t *testing.T) {
	s := New(Options{})
	for _, path := range []string{"/healthz", "/livez"} {
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodHead, path, nil))
		if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
			t.Errorf("HEAD %s = %d with %d bytes", path, rec.Code, rec.Body.Len())
		}
	}
}

func TestVersion(t *testing.T) {
	s := New(Options{})
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	var info startup.BuildInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Version != startup.Version {
		t.Errorf("version = %q, want %q", info.Version, startup.Version)
	}
}

func TestMetrics(t *testing.T) {
	s := New(Options{})
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "bananalab_") {
		t.Error("metrics output has no bananalab series")
	}
}

func TestUnknownRoute(t *testing.T) {
	s := New(Options{})
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/render", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status code = %d, want 404", rec.Code)
	}
}

func TestListenAndServeStopsWithContext(t *testing.T) {
	s := New(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestSanitizeLogField(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/healthz", "/healthz"},
		{"a\nb\rc", "a b c"},
		{"\x1b[31mred", "[31mred"},
		{"tab\there", "tab\there"},
		{"nul\x00byte", "nulbyte"},
	}
	for _, tt := range tests {
		if got := sanitizeLogField(tt.in); got != tt.want {
			t.Errorf("sanitizeLogField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	if got := clientIP(r); got != "10.0.0.1" {
		t.Errorf("clientIP = %q", got)
	}
	r.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	if got := clientIP(r); got != "1.2.3.4" {
		t.Errorf("clientIP with XFF = %q", got)
	}
}
