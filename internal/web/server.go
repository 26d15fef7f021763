// Package web serves the browser front-end and the JSON API around
// pixelart.Stylizer.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"pixelgen/internal/pixelart"
)

//go:embed static/*
var staticFS embed.FS

type Stylizer interface {
	Stylize(ctx context.Context, in pixelart.Input) (pixelart.Result, error)
}

type Options struct {
	Stylizer       Stylizer
	Logger         *slog.Logger
	MaxUploadBytes int64
	// RequestTimeout bounds one stylization. Zero means no extra bound.
	RequestTimeout time.Duration
	// RateLimitPerMinute applies per client IP to POST /api/stylize.
	// Zero disables limiting.
	RateLimitPerMinute int
	RateLimitBurst     int
	Now                func() time.Time
}

type Server struct {
	echo           *echo.Echo
	stylizer       Stylizer
	logger         *slog.Logger
	maxUploadBytes int64
	requestTimeout time.Duration
	now            func() time.Time
}

type apiError struct {
	Error string `json:"error"`
}

// echoValidator plugs go-playground/validator into echo's c.Validate.
type echoValidator struct {
	v *validator.Validate
}

func (ev *echoValidator) Validate(i interface{}) error {
	if err := ev.v.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
	}
	return nil
}

func New(opts Options) (*Server, error) {
	if opts.Stylizer == nil {
		return nil, errors.New("stylizer is nil")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		echo:           echo.New(),
		stylizer:       opts.Stylizer,
		logger:         logger,
		maxUploadBytes: maxUpload,
		requestTimeout: opts.RequestTimeout,
		now:            now,
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &echoValidator{v: validator.New()}
	e.HTTPErrorHandler = s.handleHTTPError

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Int64("dur_ms", v.Latency.Milliseconds()),
				slog.String("request_id", v.RequestID),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				level = slog.LevelWarn
				attrs = append(attrs, slog.String("err", v.Error.Error()))
			}
			logger.LogAttrs(c.Request().Context(), level, "http", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.RemoveTrailingSlash())

	e.GET("/healthz", s.handleHealth)

	api := e.Group("/api")
	api.GET("/options", s.handleOptions)

	var limiter []echo.MiddlewareFunc
	if opts.RateLimitPerMinute > 0 {
		limiter = append(limiter, newRateLimiter(opts.RateLimitPerMinute, opts.RateLimitBurst))
	}
	api.POST("/stylize", s.handleStylize, limiter...)

	e.StaticFS("/", echo.MustSubFS(staticFS, "static"))

	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func newRateLimiter(perMinute, burst int) echo.MiddlewareFunc {
	if burst < 1 {
		burst = 1
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(perMinute) / 60),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, apiError{Error: "could not identify client"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, apiError{Error: "Too many requests. Please wait a moment and try again."})
		},
	})
}

func (s *Server) handleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := http.StatusText(status)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(status)
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, apiError{Error: message})
}
