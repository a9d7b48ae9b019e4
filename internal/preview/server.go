// Package preview provides the development server: it loads and registers
// every template from the configured scan paths, serves rendered instances
// with their sample projections, and pushes reload events to connected
// browsers when template files change on disk.
package preview

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/conneroisu/shadowtpl/internal/compiler"
	"github.com/conneroisu/shadowtpl/internal/config"
	"github.com/conneroisu/shadowtpl/internal/loader"
	"github.com/conneroisu/shadowtpl/internal/logging"
	"github.com/conneroisu/shadowtpl/internal/registry"
	"github.com/conneroisu/shadowtpl/internal/renderer"
	"github.com/conneroisu/shadowtpl/internal/types"
	"github.com/conneroisu/shadowtpl/internal/watcher"
)

// Server is the shadowtpl preview server.
type Server struct {
	config    *config.Config
	logger    logging.Logger
	registry  *registry.DefinitionRegistry
	renderer  *renderer.Renderer
	hub       *ReloadHub
	templates map[string]*loader.Template
	mutex     sync.RWMutex

	httpServer *http.Server
}

// NewServer creates a preview server for cfg.
func NewServer(cfg *config.Config, logger logging.Logger) *Server {
	reg := registry.New()

	return &Server{
		config:    cfg,
		logger:    logger.WithComponent("preview"),
		registry:  reg,
		renderer:  renderer.New(reg),
		hub:       NewReloadHub(logger),
		templates: make(map[string]*loader.Template),
	}
}

// Start loads the templates, starts the file watcher, and serves HTTP until
// ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if err := s.reload(ctx); err != nil {
		return err
	}

	fw, err := watcher.NewFileWatcher(300 * time.Millisecond)
	if err != nil {
		return err
	}
	defer fw.Stop()

	fw.AddFilter(watcher.TemplateFilter)
	fw.AddHandler(func(events []watcher.ChangeEvent) {
		s.logger.Info(ctx, "template change detected", "files", len(events))
		if err := s.reload(ctx); err != nil {
			s.logger.Error(ctx, err, "template reload failed")
			return
		}
		s.hub.Broadcast("reload")
	})
	for _, path := range s.config.Templates.ScanPaths {
		if err := fw.AddRecursive(path); err != nil {
			s.logger.Warn(ctx, err, "cannot watch scan path", "path", path)
		}
	}
	fw.Start(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/component/", s.handleComponent)
	mux.Handle("/ws", s.hub)

	s.httpServer = &http.Server{
		Addr:         s.config.PreviewAddr(),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	s.logger.Info(ctx, "preview server listening", "addr", s.config.PreviewAddr())

	select {
	case <-ctx.Done():
		s.hub.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// reload rescans the template directories and replaces the registry
// contents. Compilation failures leave the previous registrations in place.
func (s *Server) reload(ctx context.Context) error {
	templates, err := loader.Scan(s.config.Templates.ScanPaths, s.config.Templates.ExcludePatterns)
	if err != nil {
		return err
	}

	compiled := make(map[string]*compiler.Definition, len(templates))
	byName := make(map[string]*loader.Template, len(templates))
	for _, tpl := range templates {
		def, err := compiler.Compile(tpl.Description)
		if err != nil {
			return fmt.Errorf("compiling template %s (%s): %w", tpl.Name, tpl.Path, err)
		}
		compiled[tpl.Name] = def
		byName[tpl.Name] = tpl
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, identity := range s.registry.Identities() {
		if err := s.registry.Unregister(identity); err != nil {
			return err
		}
	}
	for name, def := range compiled {
		if _, err := s.registry.Register(name, def); err != nil {
			return err
		}
	}
	s.templates = byName

	s.logger.Info(ctx, "templates registered", "count", len(compiled))
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.mutex.RLock()
	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	s.mutex.RUnlock()
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html><html><head><title>shadowtpl preview</title></head><body>")
	sb.WriteString("<h1>Templates</h1><ul>")
	for _, name := range names {
		s.mutex.RLock()
		display := s.templates[name].DisplayName
		s.mutex.RUnlock()
		fmt.Fprintf(&sb, `<li><a href="/component/%s">%s</a></li>`, html.EscapeString(name), html.EscapeString(display))
	}
	sb.WriteString("</ul></body></html>")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, sb.String())
}

func (s *Server) handleComponent(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/component/")

	s.mutex.RLock()
	tpl, ok := s.templates[name]
	s.mutex.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	instance, err := s.renderer.Instantiate(name, previewProjection(tpl))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	rendered, err := instance.HTML()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, componentPage, html.EscapeString(tpl.DisplayName), rendered)
}

// previewProjection fills any slot the template's preview section leaves out
// with explicit empty content, so partially specified previews still render.
func previewProjection(tpl *loader.Template) types.Projection {
	projection := types.CloneProjection(tpl.Preview)
	if projection == nil {
		projection = make(types.Projection)
	}
	for _, name := range tpl.Description.SlotNames {
		if _, ok := projection[name]; !ok {
			projection[name] = []types.Node{}
		}
	}
	return projection
}

const componentPage = `<!DOCTYPE html>
<html>
<head><title>%s | shadowtpl preview</title></head>
<body>
%s
<script>
(function() {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/ws");
  ws.onmessage = function(ev) { if (ev.data === "reload") location.reload(); };
})();
</script>
</body>
</html>
`
