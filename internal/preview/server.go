// Package preview serves the output tree during development.
//
// Two modes exist. Supervisor runs a user-supplied server command and relays
// its output. Server is the built-in alternative: a static file server over
// the output root that injects a small live-reload script into every HTML
// page and tells connected browsers to reload after each rebuild.
package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/conneroisu/labsite/internal/logging"
	"github.com/conneroisu/labsite/internal/websocket"
)

// ReloadPath is the websocket endpoint the injected script connects to.
const ReloadPath = "/_labsite/reload"

const shutdownTimeout = 5 * time.Second

const reloadScript = `<script>
(function () {
  var proto = location.protocol === "https:" ? "wss:" : "ws:";
  function connect() {
    var ws = new WebSocket(proto + "//" + location.host + "` + ReloadPath + `");
    ws.onmessage = function (e) {
      try {
        if (JSON.parse(e.data).type === "reload") location.reload();
      } catch (_) {}
    };
    ws.onclose = function () { setTimeout(connect, 1000); };
  }
  connect();
})();
</script>
`

// Server is the built-in preview server.
type Server struct {
	root   string
	addr   string
	hub    *websocket.Hub
	logger logging.Logger

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a server for the output root on host:port. Port 0
// picks a free port.
func NewServer(root, host string, port int, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	logger = logger.WithComponent("preview")
	return &Server{
		root:   root,
		addr:   net.JoinHostPort(host, fmt.Sprint(port)),
		hub:    websocket.NewHub(logger),
		logger: logger,
	}
}

// Handler returns the HTTP handler: the reload endpoint plus the file
// server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(ReloadPath, s.hub.HandleWebSocket)
	mux.Handle("/", s.fileHandler())
	return s.logRequests(mux)
}

// Addr returns the address the server listens on, or the configured
// address before Run has bound it.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("preview server listen on %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()
	s.logger.Info(ctx, "Preview server listening", "url", "http://"+listener.Addr().String())

	select {
	case err := <-errCh:
		s.hub.Shutdown()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("preview server: %w", err)
	case <-ctx.Done():
	}

	s.hub.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("preview server shutdown: %w", err)
	}
	return nil
}

// NotifyReload tells every connected browser to reload.
func (s *Server) NotifyReload(ctx context.Context, target string) {
	err := s.hub.Broadcast(websocket.UpdateMessage{
		Type:      "reload",
		Target:    target,
		Timestamp: time.Now(),
	})
	if err != nil {
		s.logger.Warn(ctx, err, "Failed to broadcast reload")
	}
}

// fileHandler serves the output root. HTML documents get the reload script;
// everything else goes through http.FileServer untouched.
func (s *Server) fileHandler() http.Handler {
	files := http.FileServer(http.Dir(s.root))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		urlPath := path.Clean("/" + r.URL.Path)
		name := filepath.Join(s.root, filepath.FromSlash(urlPath))

		info, err := os.Stat(name)
		if err == nil && info.IsDir() {
			if !strings.HasSuffix(r.URL.Path, "/") {
				files.ServeHTTP(w, r)
				return
			}
			name = filepath.Join(name, "index.html")
			info, err = os.Stat(name)
		}
		if err != nil || !strings.EqualFold(filepath.Ext(name), ".html") {
			files.ServeHTTP(w, r)
			return
		}

		content, err := os.ReadFile(name)
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		http.ServeContent(w, r, filepath.Base(name), info.ModTime(), bytes.NewReader(InjectReloadScript(content)))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "Request served",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

// InjectReloadScript inserts the live-reload script before the last
// </body>, or appends it when the document has none.
func InjectReloadScript(doc []byte) []byte {
	idx := bytes.LastIndex(bytes.ToLower(doc), []byte("</body>"))
	if idx < 0 {
		return append(append([]byte{}, doc...), reloadScript...)
	}

	out := make([]byte, 0, len(doc)+len(reloadScript))
	out = append(out, doc[:idx]...)
	out = append(out, reloadScript...)
	out = append(out, doc[idx:]...)
	return out
}
