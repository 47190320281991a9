package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yusufkecer/fit-tracker-backend/internal/config"
	"github.com/yusufkecer/fit-tracker-backend/internal/handler"
	"github.com/yusufkecer/fit-tracker-backend/internal/middleware"
	"github.com/yusufkecer/fit-tracker-backend/internal/service"
)

const maxBodyBytes = 1 << 20

// Services are the operations exposed over HTTP.
type Services struct {
	Auth     *service.AuthService
	Profiles *service.ProfileService
	Weights  *service.WeightService
	Metrics  *service.MetricService
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner   *http.Server
	limiter *middleware.RateLimiter
	log     *zap.Logger
}

// New wires up middleware and routes and returns a ready server.
func New(cfg *config.Config, svc Services, log *zap.Logger) *Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	limiter := middleware.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow, cfg.TrustProxyHeaders, log)

	r := newRouter(cfg, svc, limiter, reg, log)

	return &Server{
		inner: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		limiter: limiter,
		log:     log,
	}
}

func newRouter(cfg *config.Config, svc Services, limiter *middleware.RateLimiter, reg *prometheus.Registry, log *zap.Logger) *mux.Router {
	metrics := middleware.NewMetrics(reg)

	authHandler := handler.NewAuthHandler(svc.Auth, log)
	profileHandler := handler.NewProfileHandler(svc.Profiles, log)
	weightHandler := handler.NewWeightHandler(svc.Weights, log)
	metricHandler := handler.NewMetricHandler(svc.Metrics, log)

	r := mux.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(log))
	r.Use(metrics.Middleware)
	r.Use(middleware.CORS(cfg.Origins()))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(maxBodyBytes))

	r.Handle("/debug/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", handler.Health).Methods(http.MethodGet, http.MethodOptions)

	gated := api.NewRoute().Subrouter()
	gated.Use(middleware.APIKey(cfg.APIKey))

	gated.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost, http.MethodOptions)
	gated.Handle("/auth/login", limiter.Middleware(http.HandlerFunc(authHandler.Login))).Methods(http.MethodPost, http.MethodOptions)

	protected := gated.NewRoute().Subrouter()
	protected.Use(middleware.Auth(svc.Auth, log))

	protected.HandleFunc("/profile", profileHandler.Get).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/profile", profileHandler.Update).Methods(http.MethodPut, http.MethodOptions)
	protected.HandleFunc("/profile", profileHandler.Delete).Methods(http.MethodDelete, http.MethodOptions)

	protected.HandleFunc("/weights", weightHandler.Create).Methods(http.MethodPost, http.MethodOptions)
	protected.HandleFunc("/weights", weightHandler.List).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/weights/{id}", weightHandler.Get).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/weights/{id}", weightHandler.Update).Methods(http.MethodPut, http.MethodOptions)
	protected.HandleFunc("/weights/{id}", weightHandler.Delete).Methods(http.MethodDelete, http.MethodOptions)

	protected.HandleFunc("/metrics", metricHandler.Create).Methods(http.MethodPost, http.MethodOptions)
	protected.HandleFunc("/metrics", metricHandler.List).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/metrics/{id}", metricHandler.Get).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/metrics/{id}", metricHandler.Update).Methods(http.MethodPut, http.MethodOptions)
	protected.HandleFunc("/metrics/{id}", metricHandler.Delete).Methods(http.MethodDelete, http.MethodOptions)

	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.inner.Handler
}

// Start serves HTTP traffic until Shutdown. Idle rate limiter entries are
// pruned while serving.
func (s *Server) Start() error {
	stop := make(chan struct{})
	defer close(stop)
	go s.pruneLimiter(stop)

	s.log.Info("server starting", zap.String("addr", s.inner.Addr))
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}

func (s *Server) pruneLimiter(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.limiter.Cleanup()
		case <-stop:
			return
		}
	}
}
