package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dicklesworthstone/mindmap_viewer/pkg/generator"
	"github.com/Dicklesworthstone/mindmap_viewer/pkg/interaction"
	"github.com/Dicklesworthstone/mindmap_viewer/pkg/layout"
	"github.com/Dicklesworthstone/mindmap_viewer/pkg/model"
	"github.com/Dicklesworthstone/mindmap_viewer/pkg/render"
)

// Options configures how the tree file is indexed and drawn.
type Options struct {
	Engine   layout.Engine
	Style    render.Style
	Limits   model.Limits
	Width    float64
	Height   float64
	Debounce time.Duration
	Logger   *slog.Logger
}

func (o *Options) setDefaults() {
	if o.Engine == (layout.Engine{}) {
		o.Engine = layout.NewEngine()
	}
	if o.Style.NodeWidth == 0 {
		o.Style = render.DefaultStyle()
	}
	if o.Limits == (model.Limits{}) {
		o.Limits = model.DefaultLimits()
	}
	if o.Width <= 0 {
		o.Width = 1280
	}
	if o.Height <= 0 {
		o.Height = 800
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Server renders one tree file to SVG and serves it with a live-reloading
// page. A file that fails to load keeps the last good drawing on screen
// and shows the error above it.
type Server struct {
	path string
	opts Options
	hub  *Hub

	mu      sync.RWMutex
	svg     []byte
	topic   string
	version int
	lastErr error
}

// New loads path once. The first load must succeed.
func New(path string, opts Options) (*Server, error) {
	opts.setDefaults()
	s := &Server{path: path, opts: opts, hub: NewHub()}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Hub returns the server's reload hub.
func (s *Server) Hub() *Hub { return s.hub }

// Reload reads and renders the file again, then tells connected pages to
// refresh. The returned error is also shown on the page.
func (s *Server) Reload() error {
	svg, topic, err := s.render()

	s.mu.Lock()
	s.lastErr = err
	if err == nil {
		s.svg, s.topic = svg, topic
	}
	s.version++
	s.mu.Unlock()

	if err != nil {
		s.opts.Logger.Warn("preview reload failed", "path", s.path, "error", err)
	} else {
		s.opts.Logger.Info("preview reloaded", "path", s.path, "bytes", len(svg))
	}
	s.hub.Notify()
	return err
}

func (s *Server) render() ([]byte, string, error) {
	c, err := generator.LoadFile(s.path)
	if err != nil {
		return nil, "", err
	}
	tree, err := model.NewTree(c, s.opts.Limits)
	if err != nil {
		return nil, "", err
	}
	ctrl := interaction.New(s.opts.Engine, tree, interaction.Size{W: s.opts.Width, H: s.opts.Height})
	var buf bytes.Buffer
	if err := render.WriteSVG(&buf, render.Build(tree, ctrl.Frame(), s.opts.Style)); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), tree.Root().Label, nil
}

// Handler routes the page, the drawing and the event stream.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.servePage)
	mux.HandleFunc("GET /map.svg", s.serveSVG)
	mux.Handle("GET "+EventsPath, s.hub)
	return mux
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Topic}} - mmv</title>
<style>
body { margin: 0; background: #1a1b26; color: #c0caf5; font-family: sans-serif; }
.error { padding: 8px 16px; background: #f7768e; color: #1a1b26; }
img { display: block; max-width: 100%; }
</style>
</head>
<body>
{{if .Error}}<div class="error">{{.Error}}</div>{{end}}
<img src="/map.svg?v={{.Version}}" alt="{{.Topic}}">
<script>
(function() {
  if (typeof EventSource === 'undefined') return;
  var delay = 1000;
  function connect() {
    var es = new EventSource('{{.Events}}');
    es.addEventListener('connected', function() { delay = 1000; });
    es.addEventListener('reload', function() { location.reload(); });
    es.onerror = function() {
      es.close();
      setTimeout(connect, delay);
      delay = Math.min(delay * 2, 30000);
    };
  }
  connect();
})();
</script>
</body>
</html>
`))

func (s *Server) servePage(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	data := struct {
		Topic   string
		Error   string
		Version int
		Events  string
	}{Topic: s.topic, Version: s.version, Events: EventsPath}
	if s.lastErr != nil {
		data.Error = s.lastErr.Error()
	}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, data); err != nil {
		s.opts.Logger.Debug("write page", "error", err)
	}
}

func (s *Server) serveSVG(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	svg := s.svg
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(svg)
}

// Serve watches the file and serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	watcher, err := generator.NewWatcher(s.path,
		generator.WithDebounceDuration(s.opts.Debounce),
		generator.WithErrorHandler(func(err error) {
			s.opts.Logger.Warn("watch error", "error", err)
		}))
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}
	defer watcher.Stop()

	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-watcher.Changed():
				_ = s.Reload()
			}
		}
	})
	g.Go(func() error {
		<-ctx.Done()
		s.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
