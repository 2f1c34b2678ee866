package ui

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Dicklesworthstone/mindmap_viewer/pkg/model"
)

const workerTree = `{"id":"root","label":"Root","children":[{"id":"a","label":"A"}]}`

func writeTreeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newTestWorker(t *testing.T, content string) (*BackgroundWorker, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tree.json")
	writeTreeFile(t, path, content)
	worker, err := NewBackgroundWorker(WorkerConfig{
		Path:          path,
		DebounceDelay: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewBackgroundWorker failed: %v", err)
	}
	t.Cleanup(worker.Stop)
	return worker, path
}

func TestBackgroundWorker_NewWithoutPath(t *testing.T) {
	worker, err := NewBackgroundWorker(WorkerConfig{})
	if err != nil {
		t.Fatalf("NewBackgroundWorker failed: %v", err)
	}
	defer worker.Stop()

	if worker.State() != WorkerIdle {
		t.Errorf("Expected idle state, got %v", worker.State())
	}
	if err := worker.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	worker.TriggerRefresh()
	time.Sleep(50 * time.Millisecond)
	if worker.Tree() != nil {
		t.Error("Expected nil tree without a path")
	}
}

func TestBackgroundWorker_StartStopIdempotent(t *testing.T) {
	worker, _ := newTestWorker(t, workerTree)

	for i := 0; i < 2; i++ {
		if err := worker.Start(); err != nil {
			t.Fatalf("Start #%d failed: %v", i+1, err)
		}
	}
	worker.Stop()
	worker.Stop()
	if worker.State() != WorkerStopped {
		t.Errorf("Expected stopped state, got %v", worker.State())
	}

	worker.TriggerRefresh()
	time.Sleep(50 * time.Millisecond)
	if worker.Tree() != nil {
		t.Error("Refresh after Stop should do nothing")
	}
}

func TestBackgroundWorker_TriggerRefreshLoadsTree(t *testing.T) {
	worker, _ := newTestWorker(t, workerTree)

	worker.TriggerRefresh()
	waitFor(t, "initial load", func() bool { return worker.Tree() != nil })

	tree := worker.Tree()
	if tree.RootID() != "root" || tree.Len() != 2 {
		t.Errorf("unexpected tree: root %q, %d nodes", tree.RootID(), tree.Len())
	}
	if worker.LastHash() == "" {
		t.Error("Expected a content hash after loading")
	}
	if worker.LastError() != nil {
		t.Errorf("Unexpected error: %v", worker.LastError())
	}
}

func TestBackgroundWorker_DedupUnchangedContent(t *testing.T) {
	worker, _ := newTestWorker(t, workerTree)

	worker.TriggerRefresh()
	waitFor(t, "initial load", func() bool { return worker.Tree() != nil })
	first, hash := worker.Tree(), worker.LastHash()

	worker.TriggerRefresh()
	waitFor(t, "second pass", func() bool { return worker.State() == WorkerIdle })
	time.Sleep(50 * time.Millisecond)

	if worker.Tree() != first {
		t.Error("unchanged content should keep the existing tree")
	}
	if worker.LastHash() != hash {
		t.Error("hash changed for identical content")
	}
}

func TestBackgroundWorker_ReloadsOnFileChange(t *testing.T) {
	worker, path := newTestWorker(t, workerTree)
	if err := worker.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	writeTreeFile(t, path, `{"id":"other","label":"Other"}`)
	waitFor(t, "reload after write", func() bool {
		tree := worker.Tree()
		return tree != nil && tree.RootID() == "other"
	})
}

func TestBackgroundWorker_KeepsTreeOnBadFile(t *testing.T) {
	worker, path := newTestWorker(t, workerTree)

	worker.TriggerRefresh()
	waitFor(t, "initial load", func() bool { return worker.Tree() != nil })
	good := worker.Tree()

	writeTreeFile(t, path, `{"id":`)
	worker.TriggerRefresh()
	waitFor(t, "load error", func() bool { return worker.LastError() != nil })

	werr := worker.LastError()
	if werr.Phase != "load" || werr.Retries != 1 {
		t.Errorf("unexpected error record: %+v", werr)
	}
	if worker.Tree() != good {
		t.Error("a bad file replaced the last good tree")
	}
}

// lockedBuffer is a log sink the worker goroutine and the test can share.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestBackgroundWorker_LogsRetryCount(t *testing.T) {
	var logs lockedBuffer
	path := filepath.Join(t.TempDir(), "tree.json")
	writeTreeFile(t, path, `{"id":`)
	worker, err := NewBackgroundWorker(WorkerConfig{
		Path:          path,
		DebounceDelay: 50 * time.Millisecond,
		Logger:        slog.New(slog.NewTextHandler(&logs, nil)),
	})
	if err != nil {
		t.Fatalf("NewBackgroundWorker failed: %v", err)
	}
	defer worker.Stop()

	worker.TriggerRefresh()
	waitFor(t, "first failure logged", func() bool { return strings.Contains(logs.String(), "retries: 1") })
	worker.TriggerRefresh()
	waitFor(t, "second failure logged", func() bool { return strings.Contains(logs.String(), "retries: 2") })

	if strings.Contains(logs.String(), "retries: 0") {
		t.Errorf("log reports a failure before counting it:\n%s", logs.String())
	}
}

func TestBackgroundWorker_IndexErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep.json")
	writeTreeFile(t, path, `{"id":"r","label":"R","children":[{"id":"c","label":"C","children":[{"id":"g","label":"G"}]}]}`)
	worker, err := NewBackgroundWorker(WorkerConfig{
		Path:   path,
		Limits: model.Limits{MaxDepth: 1, MaxNodes: 10},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer worker.Stop()

	worker.TriggerRefresh()
	waitFor(t, "index error", func() bool { return worker.LastError() != nil })
	werr := worker.LastError()
	if werr.Phase != "index" || !errors.Is(werr, model.ErrTooDeep) {
		t.Errorf("unexpected error: %v", werr)
	}
}

func TestSafeComputeRecoversPanic(t *testing.T) {
	worker, err := NewBackgroundWorker(WorkerConfig{})
	if err != nil {
		t.Fatal(err)
	}
	defer worker.Stop()

	werr := worker.safeCompute("load", func() error { panic("boom") })
	if werr == nil || werr.Phase != "load" {
		t.Fatalf("panic not converted to a WorkerError: %v", werr)
	}
}

func TestHashPrefix(t *testing.T) {
	if got := hashPrefix("0123456789abcdef0123"); got != "0123456789abcdef" {
		t.Errorf("hashPrefix = %q", got)
	}
	if got := hashPrefix("abc"); got != "abc" {
		t.Errorf("hashPrefix short = %q", got)
	}
}
