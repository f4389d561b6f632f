package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

//go:embed web/index.html
var webFiles embed.FS

var indexPage = template.Must(template.ParseFS(webFiles, "web/index.html"))

type Server struct {
	config    *Config
	hub       *Hub
	gatherer  prometheus.Gatherer
	telemetry *telemetry
	log       zerolog.Logger
	upgrader  websocket.Upgrader

	sessions sync.WaitGroup
}

func newServer(config *Config, hub *Hub, gatherer prometheus.Gatherer, t *telemetry, log zerolog.Logger) *Server {
	if t == nil {
		t = newTelemetry(nil)
	}
	return &Server{
		config:    config,
		hub:       hub,
		gatherer:  gatherer,
		telemetry: t,
		log:       log.With().Str("component", "server").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.config.WSPath, s.handleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	if s.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	mux.HandleFunc("/", s.handleIndex)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexPage.Execute(w, struct{ WSPath string }{s.config.WSPath}); err != nil {
		s.log.Warn().Err(err).Msg("render index")
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Count the session before Upgrade hijacks the connection: from then on
	// http.Server.Shutdown no longer waits for it, Serve does.
	s.sessions.Add(1)
	defer s.sessions.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client.
		s.log.Debug().Err(err).Msg("ws upgrade")
		return
	}

	newViewerSession(conn, s.hub, s.config.WriteTimeout, s.log, s.telemetry).run(r.Context())
}

// Serve accepts connections on ln until ctx is cancelled, then shuts the HTTP
// server down and waits for open viewer sessions to finish. Request contexts
// derive from ctx, so sessions see the cancellation too.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpSrv := &http.Server{
		Handler:     s.Handler(),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		s.log.Warn().Err(err).Msg("http shutdown")
	}
	s.sessions.Wait()
	return nil
}
