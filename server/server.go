// Package server exposes the active data source as a JSON REST API.
//
// Handlers are thin: they parse query parameters into filter types, call
// the data source, and wrap the result in {data} or list envelopes. Errors
// are mapped to statuses by category; server-side failures are logged in
// full and answered with a generic message.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/pharmadex/app"
	"github.com/teranos/pharmadex/datasource"
	"github.com/teranos/pharmadex/errors"
	"github.com/teranos/pharmadex/logger"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP API over an app.Context.
type Server struct {
	app            *app.Context
	logger         *zap.SugaredLogger
	allowedOrigins []string
	dev            bool
	handler        http.Handler
	hub            *hub
	started        time.Time
}

// New builds the server and its routes.
func New(appCtx *app.Context) *Server {
	s := &Server{
		app:            appCtx,
		logger:         appCtx.Logger.Named("server"),
		allowedOrigins: appCtx.Config.Server.AllowedOrigins,
		dev:            appCtx.Config.Server.Dev,
		hub:            newHub(),
		started:        time.Now(),
	}
	s.handler = s.routes()
	return s
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler { return s.handler }

// withSource resolves the active data source per request, so switching the
// active source takes effect immediately.
func (s *Server) withSource(fn func(http.ResponseWriter, *http.Request, datasource.DataSource)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds, err := s.app.DataSource()
		if err != nil {
			s.fail(w, r, err)
			return
		}
		fn(w, r, ds)
	}
}

// Serve accepts connections on l until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	// hijacked event streams are not tracked by Shutdown
	srv.RegisterOnShutdown(s.hub.closeAll)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(l) }()

	fields := []interface{}{logger.FieldAddress, l.Addr().String()}
	if tcp, ok := l.Addr().(*net.TCPAddr); ok {
		fields = append(fields, logger.FieldPort, tcp.Port)
	}
	s.logger.Infow("HTTP server listening", fields...)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
	}

	s.logger.Infow("Initiating server shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	s.logger.Infow("Server stopped")
	return nil
}

// ListenAndServe listens on port (all interfaces) and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return errors.WithHint(errors.Wrapf(err, "listen on port %d", port), "set server.port or PHARMADEX_SERVER_PORT")
	}
	return s.Serve(ctx, l)
}
