package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/paraclete/paraclete/internal/signaling"
)

// Options configures the HTTP surface around the hub.
type Options struct {
	// AllowedOrigins lists browser origins allowed to open /ws. "*" allows all.
	AllowedOrigins []string

	// StaticDir, when set, is served as the web client.
	StaticDir string

	// DebugEndpoints exposes GET /rooms.
	DebugEndpoints bool

	// Gatherer backs GET /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// Client pages, keyed by route.
var pages = map[string]string{
	"/controller": "controller.html",
	"/receiver":   "receiver.html",
	"/sharer":     "receiver.html",
}

// NewRouter wires every route of the signaling server.
func NewRouter(hub *signaling.Hub, opts Options, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthCheckHandler)
	mux.HandleFunc("GET /ws", ServeWs(hub, NewUpgrader(opts.AllowedOrigins), logger))

	if opts.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	if opts.DebugEndpoints {
		mux.HandleFunc("GET /rooms", roomsHandler(hub, logger))
	}
	if opts.StaticDir != "" {
		mux.HandleFunc("GET /{$}", servePage(filepath.Join(opts.StaticDir, "index.html")))
		for route, page := range pages {
			mux.HandleFunc("GET "+route, servePage(filepath.Join(opts.StaticDir, page)))
		}
		mux.Handle("GET /", http.FileServer(http.Dir(opts.StaticDir)))
	}
	return mux
}

// Health Check endpoint
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Signaling server is healthy."))
}

func servePage(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, path)
	}
}

func roomsHandler(hub *signaling.Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms, err := hub.Rooms(r.Context())
		if err != nil {
			logger.Error("room snapshot failed", "error", err)
			http.Error(w, "rooms unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(rooms); err != nil {
			logger.Debug("writing rooms failed", "error", err)
		}
	}
}

// NewUpgrader configures the websocket upgrader with the origin policy.
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  64 * 1024, // 64 KB
		WriteBufferSize: 64 * 1024, // 64 KB
		CheckOrigin:     originChecker(allowedOrigins),
	}
}

// originChecker accepts non-browser clients (no Origin header), same-host
// pages, and anything on the allow-list.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(strings.ToLower(strings.TrimSpace(o)), "/")] = true
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || set["*"] {
			return true
		}
		if set[strings.TrimRight(strings.ToLower(origin), "/")] {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
}

// ServeWs returns an http.HandlerFunc that handles websocket requests.
// It takes the hub as a dependency.
func ServeWs(hub *signaling.Hub, upgrader *websocket.Upgrader, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("failed to upgrade connection", "remote", r.RemoteAddr, "origin", r.Header.Get("Origin"), "error", err)
			return
		}

		client := signaling.NewClient(hub, conn)
		if err := hub.Register(client); err != nil {
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			conn.Close()
			return
		}

		// These methods will handle the client's lifecycle
		go client.WritePump()
		go client.ReadPump()
	}
}
