package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/recruitly/screening-engine/internal/auth"
	"github.com/recruitly/screening-engine/internal/config"
	handlers "github.com/recruitly/screening-engine/internal/handlers/v1alpha1"
	"github.com/recruitly/screening-engine/pkg/metrics"
	"github.com/recruitly/screening-engine/pkg/middleware"
	"go.uber.org/zap"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg           *config.Config
	handler       *handlers.ServiceHandler
	authenticator auth.Authenticator
	listener      net.Listener
}

// New returns a new instance of the screening API server.
func New(
	cfg *config.Config,
	handler *handlers.ServiceHandler,
	authenticator auth.Authenticator,
	listener net.Listener,
) *Server {
	return &Server{
		cfg:           cfg,
		handler:       handler,
		authenticator: authenticator,
		listener:      listener,
	}
}

// Router builds the API router with its middleware chain.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server")
	metricMiddleware.MustRegisterDefault()

	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.Service.AllowedOrigins,
			AllowedMethods:   []string{"GET", "PUT", "POST", "DELETE", "HEAD", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		middleware.RequestID,
		middleware.Logger(),
		s.authenticator.Authenticator,
		chiMiddleware.Recoverer,
	)

	s.handler.Routes(router)
	return router
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: s.Router()}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
