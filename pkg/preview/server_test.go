package preview

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const previewTree = `{"id":"root","label":"Photosynthesis","children":[{"id":"a","label":"Light"}]}`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tree.json")
	writeFile(t, path, previewTree)
	s, err := New(path, Options{Debounce: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s, path
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestNewRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	writeFile(t, path, `{"id":`)
	if _, err := New(path, Options{}); err == nil {
		t.Fatal("expected an error for an undecodable file")
	}
	if _, err := New(filepath.Join(t.TempDir(), "missing.json"), Options{}); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestPageAndSVG(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	page := get(t, h, "/")
	if page.Code != http.StatusOK || !strings.Contains(page.Body.String(), "<title>Photosynthesis - mmv</title>") {
		t.Errorf("page: %d %s", page.Code, page.Body.String())
	}
	// html/template escapes slashes inside script string literals
	escaped := strings.ReplaceAll(EventsPath, "/", `\/`)
	if !strings.Contains(page.Body.String(), "new EventSource('"+escaped+"')") {
		t.Errorf("page does not subscribe to the event stream: %s", page.Body.String())
	}

	svg := get(t, h, "/map.svg")
	if ct := svg.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(svg.Body.String(), "<svg") || !strings.Contains(svg.Body.String(), "Light") {
		t.Errorf("unexpected svg body: %.200s", svg.Body.String())
	}

	if rec := get(t, h, "/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown path = %d", rec.Code)
	}
}

func TestReloadKeepsLastGoodDrawing(t *testing.T) {
	s, path := newTestServer(t)
	h := s.Handler()
	before := get(t, h, "/map.svg").Body.String()

	writeFile(t, path, `{"id":`)
	if err := s.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if got := get(t, h, "/map.svg").Body.String(); got != before {
		t.Error("failed reload replaced the drawing")
	}
	if !strings.Contains(get(t, h, "/").Body.String(), `class="error"`) {
		t.Error("page does not show the reload error")
	}

	writeFile(t, path, `{"id":"x","label":"Respiration"}`)
	if err := s.Reload(); err != nil {
		t.Fatal(err)
	}
	page := get(t, h, "/").Body.String()
	if strings.Contains(page, `class="error"`) || !strings.Contains(page, "Respiration") {
		t.Errorf("page after recovery: %s", page)
	}
}

// readEvent returns the next "event:" name on the stream.
func readEvent(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		for {
			line, err := r.ReadString('\n')
			if err != nil || strings.HasPrefix(line, "event: ") {
				ch <- result{strings.TrimSpace(strings.TrimPrefix(line, "event: ")), err}
				return
			}
		}
	}()
	select {
	case res := <-ch:
		if res.err != nil {
			t.Fatalf("read event: %v", res.err)
		}
		return res.line
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for an event")
		return ""
	}
}

func subscribe(t *testing.T, url string) (*bufio.Reader, io.Closer) {
	t.Helper()
	resp, err := http.Get(url + EventsPath)
	if err != nil {
		t.Fatal(err)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
	return bufio.NewReader(resp.Body), resp.Body
}

func TestEventsReloadOnNotify(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	r, body := subscribe(t, ts.URL)
	defer body.Close()
	if ev := readEvent(t, r); ev != "connected" {
		t.Fatalf("first event = %q", ev)
	}
	if n := s.Hub().ClientCount(); n != 1 {
		t.Errorf("ClientCount = %d, want 1", n)
	}

	if err := s.Reload(); err != nil {
		t.Fatal(err)
	}
	if ev := readEvent(t, r); ev != "reload" {
		t.Errorf("event after reload = %q", ev)
	}
}

func TestServeReloadsOnFileChange(t *testing.T) {
	s, path := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String()
	r, body := subscribe(t, url)
	defer body.Close()
	if ev := readEvent(t, r); ev != "connected" {
		t.Fatalf("first event = %q", ev)
	}

	writeFile(t, path, `{"id":"x","label":"Changed"}`)
	if ev := readEvent(t, r); ev != "reload" {
		t.Fatalf("event after write = %q", ev)
	}
	resp, err := http.Get(url + "/")
	if err != nil {
		t.Fatal(err)
	}
	page, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(page), "Changed") {
		t.Errorf("page not refreshed: %s", page)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop")
	}
}

func TestHubCloseEndsStreams(t *testing.T) {
	h := NewHub()
	ts := httptest.NewServer(h)
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	r := bufio.NewReader(resp.Body)
	if ev := readEvent(t, r); ev != "connected" {
		t.Fatalf("first event = %q", ev)
	}

	h.Close()
	h.Close()
	if _, err := io.ReadAll(r); err != nil {
		t.Errorf("stream did not end cleanly: %v", err)
	}
}
