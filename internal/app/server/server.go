// Package server hosts the protocol HTTP API with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/Theras-Labs/theras-boost-protocol/internal/api/httpapi"
	"github.com/Theras-Labs/theras-boost-protocol/internal/app"
	"github.com/Theras-Labs/theras-boost-protocol/internal/auth/mintgrant"
	"github.com/Theras-Labs/theras-boost-protocol/internal/platform/config"
	"github.com/Theras-Labs/theras-boost-protocol/internal/platform/otel"
	"github.com/Theras-Labs/theras-boost-protocol/internal/storage/sqlite"
)

type envConfig struct {
	DBPath string `env:"THERAS_BOOST_DB_PATH" envDefault:"theras-boost.db"`
}

// Server hosts the protocol service.
type Server struct {
	listener   net.Listener
	httpServer *http.Server
	store      *sqlite.Store
}

// New creates a configured server listening on the provided address.
func New(addr string) (*Server, error) {
	var cfg envConfig
	if err := config.ParseEnv(&cfg); err != nil {
		return nil, err
	}

	grants, err := mintgrant.LoadConfigFromEnv(nil)
	if err != nil {
		return nil, err
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	service, err := app.New(store, nil)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	httpapi.NewServer(service, grants).RegisterRoutes(mux)

	return &Server{
		listener:   listener,
		httpServer: &http.Server{Handler: mux},
		store:      store,
	}, nil
}

// Addr returns the listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a protocol server until the context ends.
func Run(ctx context.Context, addr string) error {
	server, err := New(addr)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the server and blocks until it stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	serverCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer func() {
		_ = s.store.Close()
	}()

	otelShutdown, err := otel.Setup(serverCtx, "theras-boost-protocol")
	if err != nil {
		log.Printf("telemetry setup: %v", err)
	}
	if otelShutdown != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	log.Printf("protocol server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	handleErr := func(err error) error {
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}

	shutdownHTTP := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
	}

	select {
	case <-ctx.Done():
		shutdownHTTP()
		return handleErr(<-serveErr)
	case err := <-serveErr:
		return handleErr(err)
	}
}
