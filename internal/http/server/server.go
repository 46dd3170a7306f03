// Package server serves live batch status while a run is in progress.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/phambaophuc/imgbatch/internal/http/handlers"
	"github.com/phambaophuc/imgbatch/internal/http/routes"
)

const (
	readTimeout     = 10 * time.Second
	writeTimeout    = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

type StatusServer struct {
	server   *http.Server
	listener net.Listener
	logger   *zap.Logger
	done     chan struct{}
}

// NewStatusServer binds addr immediately so a port conflict is reported
// before the batch starts.
func NewStatusServer(addr string, handler *handlers.StatusHandler, logger *zap.Logger) (*StatusServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	router := routes.NewRouter(handler, logger)
	return &StatusServer{
		server: &http.Server{
			Handler:      router.SetupRoutes(),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
		listener: listener,
		logger:   logger,
		done:     make(chan struct{}),
	}, nil
}

func (s *StatusServer) Addr() string {
	return s.listener.Addr().String()
}

func (s *StatusServer) Start() {
	go func() {
		defer close(s.done)
		s.logger.Info("Starting status server", zap.String("addr", s.Addr()))
		if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Status server failed", zap.Error(err))
		}
	}()
}

func (s *StatusServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("Status server forced to shutdown", zap.Error(err))
	}
	<-s.done
}
