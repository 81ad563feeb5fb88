package devserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/devfolio-dev/folio/pkg/likeapi"
	"github.com/devfolio-dev/folio/pkg/likestore"
	"github.com/devfolio-dev/folio/pkg/metrics"
	"github.com/devfolio-dev/folio/pkg/upload"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

type testEnv struct {
	server *Server
	http   *httptest.Server
	likes  *likestore.Store
	disk   *upload.DiskStore
}

func newTestEnv(t *testing.T, cfg Config, opts ...Option) *testEnv {
	t.Helper()
	likes, err := likestore.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("likestore.Open() error: %v", err)
	}
	t.Cleanup(func() { likes.Close() })

	disk, err := upload.NewDiskStore(t.TempDir(), "/uploads", 0)
	if err != nil {
		t.Fatalf("NewDiskStore() error: %v", err)
	}

	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	srv, err := New(cfg, likes, disk, opts...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return &testEnv{server: srv, http: ts, likes: likes, disk: disk}
}

func (e *testEnv) upload(t *testing.T, name string, body []byte) string {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("upload", name)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(body)
	mw.Close()

	resp, err := http.Post(e.http.URL+"/image/upload?target=portfolio", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer resp.Body.Close()

	var out upload.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if resp.StatusCode != http.StatusOK || !out.Uploaded {
		t.Fatalf("upload status = %d, body = %+v", resp.StatusCode, out)
	}
	return out.URL
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, Config{})

	resp, err := http.Get(env.http.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /healthz = %d, want 200", resp.StatusCode)
	}
}

func TestLikeEndpoints(t *testing.T) {
	env := newTestEnv(t, Config{})

	steps := []struct {
		user      string
		action    string
		wantLiked bool
		wantCount int
	}{
		{"1", "add-like", true, 1},
		{"1", "add-like", true, 1},
		{"2", "add-like", true, 2},
		{"1", "remove-like", false, 1},
	}
	for i, step := range steps {
		req, _ := http.NewRequest(http.MethodPost, env.http.URL+"/api/portfolio/12/"+step.action, nil)
		req.Header.Set(UserHeader, step.user)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		var body LikeResponse
		err = json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("step %d: decode: %v", i, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("step %d: status = %d", i, resp.StatusCode)
		}
		if body.Liked == nil || *body.Liked != step.wantLiked {
			t.Errorf("step %d: liked = %v, want %v", i, body.Liked, step.wantLiked)
		}
		if body.Count == nil || *body.Count != step.wantCount {
			t.Errorf("step %d: count = %v, want %d", i, body.Count, step.wantCount)
		}
	}

	req, _ := http.NewRequest(http.MethodGet, env.http.URL+"/api/portfolio/12/likes", nil)
	req.Header.Set(UserHeader, "2")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body LikeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Liked == nil || !*body.Liked || body.Count == nil || *body.Count != 1 {
		t.Errorf("GET likes = %+v, want liked with count 1", body)
	}
}

func TestLikeClientAgainstServer(t *testing.T) {
	env := newTestEnv(t, Config{})
	client := likeapi.NewClient(env.http.URL+"/api/community", "7")

	for _, value := range []bool{true, false, true} {
		got, err := client.Set(context.Background(), value)
		if err != nil {
			t.Fatalf("Set(%v) error: %v", value, err)
		}
		if got != value {
			t.Errorf("Set(%v) = %v", value, got)
		}
	}

	liked, err := env.likes.Liked(context.Background(), "community", "7", "1")
	if err != nil || !liked {
		t.Errorf("Liked() = %v, %v; want true", liked, err)
	}
}

func TestLikeStoreFailure(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.likes.Close()

	client := likeapi.NewClient(env.http.URL+"/api/portfolio", "12")
	_, err := client.Set(context.Background(), true)
	var apiErr *likeapi.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Set() error = %v, want *likeapi.APIError", err)
	}
	if apiErr.Status != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", apiErr.Status)
	}
}

func TestLikeButton(t *testing.T) {
	env := newTestEnv(t, Config{})
	if _, err := env.likes.Set(context.Background(), "portfolio", "12", "1", true); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		user    string
		want    []string
		wantNot string
	}{
		{"1", []string{`class="like-btn liked"`, `aria-pressed="true"`, `data-optimistic-attr="aria-pressed:false"`, "Like 1"}, ""},
		{"2", []string{`class="like-btn"`, `aria-pressed="false"`, `data-optimistic-class="liked:toggle"`}, "like-btn liked"},
	}
	for _, tt := range tests {
		req, _ := http.NewRequest(http.MethodGet, env.http.URL+"/api/portfolio/12/button", nil)
		req.Header.Set(UserHeader, tt.user)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("user %s: Content-Type = %q, want text/html", tt.user, ct)
		}
		for _, w := range tt.want {
			if !strings.Contains(string(body), w) {
				t.Errorf("user %s: button = %s, want %s", tt.user, body, w)
			}
		}
		if tt.wantNot != "" && strings.Contains(string(body), tt.wantNot) {
			t.Errorf("user %s: button = %s, must not contain %s", tt.user, body, tt.wantNot)
		}
	}
}

func TestUploadServedFromDisk(t *testing.T) {
	env := newTestEnv(t, Config{})
	ref := env.upload(t, "cat.png", pngBytes)

	if !strings.HasPrefix(ref, "/uploads/1/portfolio/cat_") {
		t.Errorf("url = %q, want /uploads/1/portfolio/cat_*", ref)
	}

	resp, err := http.Get(env.http.URL + ref)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !bytes.Equal(body, pngBytes) {
		t.Errorf("GET %s = %d (%d bytes), want the uploaded image", ref, resp.StatusCode, len(body))
	}

	for _, path := range []string{ref + ".meta", "/uploads/1/"} {
		resp, err := http.Get(env.http.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", path, resp.StatusCode)
		}
	}
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, Config{})

	tests := []struct {
		origin string
		want   string
	}{
		{"http://localhost:5173", "http://localhost:5173"},
		{"http://127.0.0.1:3000", "http://127.0.0.1:3000"},
		{"http://evil.test", ""},
	}
	for _, tt := range tests {
		req, _ := http.NewRequest(http.MethodOptions, env.http.URL+"/api/portfolio/1/add-like", nil)
		req.Header.Set("Origin", tt.origin)
		req.Header.Set("Access-Control-Request-Method", "POST")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if got := resp.Header.Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("preflight from %s: Allow-Origin = %q, want %q", tt.origin, got, tt.want)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(metrics.WithRegistry(reg))
	env := newTestEnv(t, Config{}, WithMetrics(m, reg))

	resp, err := http.Post(env.http.URL+"/api/portfolio/1/add-like", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	resp, err = http.Get(env.http.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	want := `folio_http_requests_total{method="POST",status="200"} 1`
	if !strings.Contains(string(body), want) {
		t.Errorf("/metrics missing %q", want)
	}
}

func TestMetricsNotMountedByDefault(t *testing.T) {
	env := newTestEnv(t, Config{})

	resp, err := http.Get(env.http.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET /metrics = %d, want 404", resp.StatusCode)
	}
}

func TestMatchOrigin(t *testing.T) {
	patterns := []string{"http://localhost:*", "https://folio.example"}

	tests := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:3000", true},
		{"http://LOCALHOST:8080", true},
		{"http://localhost", false},
		{"https://folio.example", true},
		{"https://folio.example.evil", false},
		{"http://127.0.0.1:3000", false},
	}
	for _, tt := range tests {
		if got := matchOrigin(patterns, tt.origin); got != tt.want {
			t.Errorf("matchOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}

	if !matchOrigin([]string{"*"}, "http://anything.test") {
		t.Error(`matchOrigin("*") = false, want true`)
	}
}

type cleanupStore struct {
	upload.Store
	calls  []time.Duration
	result int
}

func (s *cleanupStore) Cleanup(_ context.Context, maxAge time.Duration) (int, error) {
	s.calls = append(s.calls, maxAge)
	return s.result, nil
}

func TestCleanup(t *testing.T) {
	store := &cleanupStore{result: 3}
	srv, err := New(Config{UploadMaxAge: time.Hour}, nil, store)
	if err != nil {
		t.Fatal(err)
	}
	if got := srv.Cleanup(context.Background()); got != 3 {
		t.Errorf("Cleanup() = %d, want 3", got)
	}
	if len(store.calls) != 1 || store.calls[0] != time.Hour {
		t.Errorf("store.Cleanup calls = %v, want [1h]", store.calls)
	}

	disabled, _ := New(Config{}, nil, store)
	if got := disabled.Cleanup(context.Background()); got != 0 {
		t.Errorf("Cleanup() with no max age = %d, want 0", got)
	}
	if len(store.calls) != 1 {
		t.Errorf("store.Cleanup called with cleanup disabled")
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	srv, err := New(Config{Addr: "127.0.0.1:0"}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe did not return after cancel")
	}
}

func TestScheduleCleanup(t *testing.T) {
	srv, err := New(Config{UploadMaxAge: time.Hour, CleanupInterval: 90 * time.Second}, nil, &cleanupStore{})
	if err != nil {
		t.Fatal(err)
	}
	c, err := srv.scheduleCleanup(context.Background())
	if err != nil {
		t.Fatalf("scheduleCleanup() error: %v", err)
	}
	entries := c.Entries()
	if len(entries) != 1 {
		t.Fatalf("cron entries = %d, want 1", len(entries))
	}
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if next := entries[0].Schedule.Next(start); next.Sub(start) != 90*time.Second {
		t.Errorf("next run after %v, want 90s", next.Sub(start))
	}
}
