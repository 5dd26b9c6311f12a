package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const readHeaderTimeout = 10 * time.Second

type HttpServerParams struct {
	fx.In

	Config HttpConfig

	Handlers []*HttpHandler `group:"handlers"`
	Logger   *zap.Logger
}

// HttpServer serves the registered handlers on the admin address.
type HttpServer struct {
	addr     string
	server   *http.Server
	listener net.Listener
	done     chan struct{}
	log      *zap.Logger
}

func NewHttpServer(params HttpServerParams) *HttpServer {
	log := params.Logger.Named("http")

	mux := http.NewServeMux()

	// register in a stable order so that conflicting patterns fail the
	// same way on every start
	handlers := append([]*HttpHandler(nil), params.Handlers...)
	sort.Slice(handlers, func(i, j int) bool { return handlers[i].Name < handlers[j].Name })

	for _, handler := range handlers {
		log.Debug("registering handler", zap.String("pattern", handler.Name))
		mux.Handle(handler.Name, handler.Handler)
	}

	var handler http.Handler = mux
	if params.Config.H2c {
		handler = h2c.NewHandler(mux, &http2.Server{})
	}

	addr := fmt.Sprintf("%s:%d", params.Config.Host, params.Config.Port)

	return &HttpServer{
		addr: addr,
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
			ErrorLog:          zap.NewStdLog(log),
		},
		done: make(chan struct{}),
		log:  log,
	}
}

func NewLifecycleServer(params HttpServerParams, lc fx.Lifecycle) *HttpServer {
	server := NewHttpServer(params)
	lc.Append(fx.Hook{
		OnStart: server.Listen,
		OnStop:  server.Shutdown,
	})
	return server
}

// Listen binds the address and serves in the background. Binding errors
// fail the start.
func (s *HttpServer) Listen(ctx context.Context) error {
	var cfg net.ListenConfig

	listener, err := cfg.Listen(ctx, "tcp", s.addr)
	if err != nil {
		s.log.Error("failed to listen", zap.String("address", s.addr), zap.Error(err))
		return fmt.Errorf("error listening on %s: %w", s.addr, err)
	}

	s.listener = listener

	s.log.Info("listening", zap.String("address", listener.Addr().String()))

	go s.serve(listener)

	return nil
}

// Addr returns the bound address, nil before Listen.
func (s *HttpServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}

	return s.listener.Addr()
}

func (s *HttpServer) serve(listener net.Listener) {
	defer close(s.done)

	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Error("failed to serve", zap.Error(err))
	}
}

func (s *HttpServer) Shutdown(ctx context.Context) error {
	if s.listener == nil {
		return nil
	}

	if err := s.server.Shutdown(ctx); err != nil {
		s.log.Error("failed to shutdown", zap.Error(err))
		return err
	}

	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}
