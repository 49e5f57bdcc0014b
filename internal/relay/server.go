// Package relay is the answering side of the signaling protocol. It admits one
// streamer and one viewer over WebSocket, answers both offers and forwards the
// streamer's video to the viewer.
package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/1ureka/castlink/internal/transport"
)

// Server is the relay's HTTP server: /ws for signaling, /metrics for
// Prometheus.
type Server struct {
	opts    transport.Options
	room    *room
	metrics *metrics
	router  *mux.Router

	ctx    context.Context
	cancel context.CancelFunc

	listener net.Listener
	httpSrv  *http.Server
}

// NewServer creates a relay whose answering PeerConnections use opts.
func NewServer(opts transport.Options) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		opts:    opts,
		room:    newRoom(),
		metrics: newMetrics(),
		ctx:     ctx,
		cancel:  cancel,
	}

	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWS)
	r.Handle("/metrics", s.metrics.handler()).Methods(http.MethodGet)
	s.router = r

	return s
}

// Handler returns the HTTP handler serving /ws and /metrics.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening on addr (":0" picks a random port). Returns the
// assigned port number.
func (s *Server) Start(addr string) (int, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("failed to start relay server: %w", err)
	}
	s.listener = listener
	s.httpSrv = &http.Server{Handler: s.router}

	go func() {
		if err := s.httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.cancel()
		}
	}()

	return listener.Addr().(*net.TCPAddr).Port, nil
}

// Done is closed once the server is shut down.
func (s *Server) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Close stops accepting connections and ends every open session.
func (s *Server) Close() error {
	s.cancel()
	if s.httpSrv != nil {
		return s.httpSrv.Close()
	}
	return nil
}
