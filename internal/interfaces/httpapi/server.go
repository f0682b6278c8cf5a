// Package httpapi exposes the application services over HTTP with echo.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gsanchezm/OmniPizza/internal/infrastructure/metrics"
	"github.com/gsanchezm/OmniPizza/internal/interfaces"
	"github.com/gsanchezm/OmniPizza/internal/usecase"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

const (
	AppName    = "OmniPizza QA Platform API"
	AppVersion = "1.0.0"
)

type Options struct {
	Logger      *slog.Logger
	Metrics     *metrics.ServerMetrics
	Environment string
	CORSOrigins []string
	// LoginRateLimit is the number of login attempts per second allowed per
	// client IP. Zero disables the limiter.
	LoginRateLimit float64

	// Collaborators of the debug endpoints.
	Clock   interfaces.Clock
	Random  interfaces.RandomSource
	Sleeper interfaces.Sleeper
}

type Server struct {
	echo    *echo.Echo
	svc     *usecase.Services
	logger  *slog.Logger
	metrics *metrics.ServerMetrics
	opts    Options
}

func New(svc *usecase.Services, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewServerMetrics("api")
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, svc: svc, logger: opts.Logger, metrics: opts.Metrics, opts: opts}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: opts.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization,
			echo.HeaderAcceptEncoding, "Accept-Language", HeaderCountryCode,
		},
	}))
	e.Use(RequestLogger(opts.Logger))
	e.Use(s.recordMetrics)

	s.routes()
	return s
}

func (s *Server) routes() {
	e := s.echo
	e.GET("/", s.root)
	e.GET("/health", s.health)

	authGroup := e.Group("/api/auth")
	authGroup.POST("/login", s.login, s.loginLimiter()...)
	authGroup.GET("/users", s.users)
	authGroup.GET("/profile", s.profile, s.requireSession)

	e.GET("/api/countries", s.countries)
	e.GET("/api/countries/:code", s.country)

	e.GET("/api/pizzas", s.pizzas, s.requireSession)
	e.POST("/api/cart/quote", s.quote, s.requireSession)
	e.POST("/api/checkout", s.checkout, s.requireSession)
	e.GET("/api/orders", s.orders, s.requireSession)
	e.GET("/api/orders/:id", s.order, s.requireSession)

	debug := e.Group("/api/debug")
	debug.GET("/latency-spike", s.latencySpike)
	debug.GET("/info", s.debugInfo)
	debug.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
}

func (s *Server) loginLimiter() []echo.MiddlewareFunc {
	if s.opts.LoginRateLimit <= 0 {
		return nil
	}
	burst := max(int(s.opts.LoginRateLimit), 1)
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(s.opts.LoginRateLimit),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})
	return []echo.MiddlewareFunc{middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "could not identify client")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts")
		},
	})}
}

// ServeHTTP makes the server usable with httptest and any http.Server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) now() time.Time {
	if s.opts.Clock != nil {
		return s.opts.Clock.Now()
	}
	return time.Now().UTC()
}
