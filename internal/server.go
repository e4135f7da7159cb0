package internal

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kazz187/pushrelay/internal/config"
	"github.com/kazz187/pushrelay/internal/pushnotification"
	"github.com/kazz187/pushrelay/pkg/cerr"
	"github.com/kazz187/pushrelay/pkg/clog"
)

const HealthMessage = "🚀 Push relay running"

type Server struct {
	mu                     sync.Mutex
	server                 *http.Server
	env                    *config.Env
	pushNotificationServer *pushnotification.Server
}

func NewServer(env *config.Env, pushNotificationServer *pushnotification.Server) *Server {
	return &Server{
		env:                    env,
		pushNotificationServer: pushNotificationServer,
	}
}

// Handler builds the full HTTP stack: JSON routes on chi, the grpc health
// service on the mux, CORS around both and h2c outermost.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		clog.SlogChiMiddleware(clog.WithChiFilter(clog.DefaultChiHealthCheckFilter)),
		cerr.NewJSONResponseChiMiddleware(),
	)
	hc := &HealthChecker{}
	r.Get("/", hc.ServeHTTP)
	r.Get("/health", hc.ServeHTTP)
	s.pushNotificationServer.Routes(r)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		cerr.SetNewJSONError(r.Context(), cerr.InvalidArgument, "method not allowed", nil)
	})

	mux := http.NewServeMux()
	mux.Handle(grpchealth.NewHandler(grpchealth.NewStaticChecker(), connect.WithInterceptors(s.interceptors()...)))
	mux.Handle("/", r)

	return h2c.NewHandler(cors.New(cors.Options{
		// echo the origin: browsers refuse "*" alongside credentials
		AllowOriginFunc:  func(string) bool { return true },
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(mux), &http2.Server{})
}

// ListenAndServe starts the HTTP server. Request contexts carry ctx's
// values but not its cancellation, so pushes in flight when ctx is
// cancelled are drained by Shutdown instead of aborted.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	srv := s.newHTTPServer(ctx, addr)
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()
	return srv.ListenAndServe()
}

func (s *Server) newHTTPServer(ctx context.Context, addr string) *http.Server {
	base := context.WithoutCancel(ctx)
	return &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		BaseContext: func(_ net.Listener) context.Context { return base },
	}
}

// Shutdown is a no-op when ListenAndServe was never reached.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

type HealthResponse struct {
	Message string `json:"message"`
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(_ http.ResponseWriter, r *http.Request) {
	cerr.SetJSONResponse(r.Context(), &HealthResponse{Message: HealthMessage})
}

func (s *Server) interceptors() []connect.Interceptor {
	return []connect.Interceptor{
		clog.NewSlogConnectUnaryInterceptor(clog.WithConnectFilter(clog.DefaultConnectHealthCheckUnaryFilter)),
		cerr.NewConvertConnectErrorInterceptor(),
	}
}
