package main_test

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
)

var (
	buildOnce sync.Once
	binPath   string
	buildErr  error
)

// buildMmvBinary compiles cmd/mmv once per test run.
func buildMmvBinary(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping e2e build in -short mode")
	}
	buildOnce.Do(func() {
		dir, err := os.MkdirTemp("", "mmv-e2e-*")
		if err != nil {
			buildErr = err
			return
		}
		name := "mmv"
		if runtime.GOOS == "windows" {
			name += ".exe"
		}
		binPath = filepath.Join(dir, name)
		cmd := exec.Command("go", "build", "-o", binPath, "./cmd/mmv")
		cmd.Dir = filepath.Join("..", "..")
		if out, err := cmd.CombinedOutput(); err != nil {
			buildErr = &buildFailure{err: err, out: string(out)}
		}
	})
	if buildErr != nil {
		t.Fatalf("build failed: %v", buildErr)
	}
	return binPath
}

type buildFailure struct {
	err error
	out string
}

func (b *buildFailure) Error() string { return b.err.Error() + "\n" + b.out }

// newEnv returns a working directory isolated from any user config.
func newEnv(t *testing.T) []string {
	t.Helper()
	home := t.TempDir()
	return append(os.Environ(), "HOME="+home, "XDG_CONFIG_HOME="+filepath.Join(home, ".config"))
}

// runMmv runs the binary in dir and returns stdout. Stderr is attached to
// the error.
func runMmv(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(buildMmvBinary(t), args...)
	cmd.Dir = dir
	cmd.Env = newEnv(t)
	cmd.Stdin = strings.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.String(), &runFailure{err: err, stderr: stderr.String()}
	}
	return stdout.String(), nil
}

type runFailure struct {
	err    error
	stderr string
}

func (r *runFailure) Error() string { return r.err.Error() + ": " + strings.TrimSpace(r.stderr) }

func runMmvJSON(t *testing.T, dir string, v any, args ...string) error {
	t.Helper()
	out, err := runMmv(t, dir, "", args...)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(out), v)
}

// detailedLogger prefixes test log lines with the elapsed time.
type detailedLogger struct {
	t     *testing.T
	start time.Time
}

func newDetailedLogger(t *testing.T) *detailedLogger {
	return &detailedLogger{t: t, start: time.Now()}
}

func (l *detailedLogger) Step(msg string) {
	l.t.Helper()
	l.t.Logf("[%6s] %s", time.Since(l.start).Round(time.Millisecond), msg)
}

func (l *detailedLogger) MetricDuration(name string, d time.Duration) {
	l.t.Helper()
	l.t.Logf("metric %s=%s", name, d)
}

// writeTree writes a balanced tree with the given depth and fan-out.
func writeTree(t *testing.T, dir string, depth, fanout int) string {
	t.Helper()
	var build func(id string, level int) map[string]any
	build = func(id string, level int) map[string]any {
		node := map[string]any{"id": id, "label": "Node " + id, "explanation": "About " + id + "."}
		if level < depth {
			children := make([]any, 0, fanout)
			for i := 0; i < fanout; i++ {
				children = append(children, build(id+"."+string(rune('a'+i)), level+1))
			}
			node["children"] = children
		}
		return node
	}
	data, err := json.Marshal(build("r", 0))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "tree.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
