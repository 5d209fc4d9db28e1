package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/lvivdigital/zvernennia/internal/appeal"
	"github.com/lvivdigital/zvernennia/internal/classify"
	"github.com/lvivdigital/zvernennia/internal/health"
	"github.com/lvivdigital/zvernennia/internal/orchestrator"
	"github.com/lvivdigital/zvernennia/internal/resolver"
	"github.com/lvivdigital/zvernennia/internal/voice"
)

// Solver runs the full complaint pipeline.
type Solver interface {
	Solve(ctx context.Context, text string) (*orchestrator.Solution, error)
}

// ComplaintResolver routes classified complaints.
type ComplaintResolver interface {
	Resolve(ctx context.Context, text, categoryID string, isUrgent bool) (*resolver.Resolution, error)
}

// LetterDrafter generates appeal letters.
type LetterDrafter interface {
	Draft(ctx context.Context, req appeal.Request) (*appeal.Letter, error)
}

// Transcriber turns audio uploads into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType, filename string) (*voice.Transcription, error)
}

// HealthChecker probes the pipeline's dependencies.
type HealthChecker interface {
	Check(ctx context.Context) *health.Report
}

// Config holds HTTP server configuration.
type Config struct {
	Host      string
	Port      int
	RateLimit float64
}

// Server provides HTTP endpoints for the complaint pipeline.
type Server struct {
	echo        *echo.Echo
	classifier  classify.Classifier
	resolver    ComplaintResolver
	drafter     LetterDrafter
	solver      Solver
	transcriber Transcriber
	checker     HealthChecker
	logger      *zap.Logger
	config      *Config
}

// NewServer creates the API server. transcriber and checker may be
// nil; their endpoints then answer 503 and a bare pong respectively.
func NewServer(
	classifier classify.Classifier,
	res ComplaintResolver,
	drafter LetterDrafter,
	solver Solver,
	transcriber Transcriber,
	checker HealthChecker,
	logger *zap.Logger,
	cfg *Config,
) (*Server, error) {
	if classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if res == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if drafter == nil {
		return nil, fmt.Errorf("drafter is required")
	}
	if solver == nil {
		return nil, fmt.Errorf("solver is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Host: "localhost", Port: 8080, RateLimit: 20}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimit))))
	}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:        e,
		classifier:  classifier,
		resolver:    res,
		drafter:     drafter,
		solver:      solver,
		transcriber: transcriber,
		checker:     checker,
		logger:      logger,
		config:      cfg,
	}

	s.registerRoutes()

	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health/ping", s.handlePing)
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/classify", s.handleClassify)
	v1.POST("/resolve", s.handleResolve)
	v1.POST("/appeal", s.handleAppeal)
	v1.POST("/solve", s.handleSolve)
	v1.POST("/voice/transcribe", s.handleTranscribe)
}

// Use installs extra middleware, e.g. API metrics.
func (s *Server) Use(mw echo.MiddlewareFunc) {
	s.echo.Use(mw)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

func (s *Server) handlePing(c echo.Context) error {
	return c.JSON(http.StatusOK, PingResponse{Status: "ok"})
}

func (s *Server) handleHealth(c echo.Context) error {
	if s.checker == nil {
		return c.JSON(http.StatusOK, PingResponse{Status: "ok"})
	}

	report := s.checker.Check(c.Request().Context())
	status := http.StatusOK
	if report.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, report)
}

func (s *Server) handleClassify(c echo.Context) error {
	text, err := bindComplaint(c)
	if err != nil {
		return err
	}

	result, err := s.classifier.Classify(c.Request().Context(), text)
	if err != nil {
		s.logger.Error("classification failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "classification failed")
	}

	return c.JSON(http.StatusOK, ClassifyResponse{Result: result})
}

func (s *Server) handleResolve(c echo.Context) error {
	text, err := bindComplaint(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	classification, err := s.classifier.Classify(ctx, text)
	if err != nil {
		s.logger.Error("classification failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "classification failed")
	}

	resp := ResolveResponse{Classification: classification}
	if classification.IsRelevant {
		resolution, err := s.resolver.Resolve(ctx, text, classification.CategoryID, classification.IsUrgent)
		if err != nil {
			s.logger.Error("routing failed", zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "routing failed")
		}
		resp.Resolution = resolution
	}

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleAppeal(c echo.Context) error {
	var req AppealRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validateComplaintText(req.ProblemText); err != nil {
		return err
	}

	letter, err := s.drafter.Draft(c.Request().Context(), appeal.Request{
		Complaint:    req.ProblemText,
		ServiceName:  req.ServiceName,
		CategoryName: req.CategoryName,
		Address:      req.Address,
	})
	if err != nil {
		s.logger.Error("appeal draft failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "appeal draft failed")
	}

	return c.JSON(http.StatusOK, AppealResponse{Letter: letter})
}

func (s *Server) handleSolve(c echo.Context) error {
	text, err := bindComplaint(c)
	if err != nil {
		return err
	}

	solution, err := s.solver.Solve(c.Request().Context(), text)
	if err != nil {
		s.logger.Error("solve failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "solve failed")
	}

	return c.JSON(http.StatusOK, SolveResponse{Solution: solution})
}

func (s *Server) handleTranscribe(c echo.Context) error {
	if s.transcriber == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "voice transcription is not configured")
	}

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "audio file is required")
	}
	if fileHeader.Size > voice.MaxAudioSize {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "audio file is too large")
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if !voice.SupportedMIMEType(mimeType) {
		return echo.NewHTTPError(http.StatusUnsupportedMediaType,
			fmt.Sprintf("unsupported audio format %q", mimeType))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read audio file")
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, voice.MaxAudioSize+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read audio file")
	}
	if len(audio) > voice.MaxAudioSize {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "audio file is too large")
	}

	result, err := s.transcriber.Transcribe(c.Request().Context(), audio, mimeType, fileHeader.Filename)
	if err != nil {
		s.logger.Error("transcription failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "transcription failed")
	}

	return c.JSON(http.StatusOK, TranscribeResponse{Text: result.Text, Filename: result.Filename})
}

// bindComplaint extracts and validates the complaint text from a
// ComplaintRequest body.
func bindComplaint(c echo.Context) (string, error) {
	var req ComplaintRequest
	if err := c.Bind(&req); err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validateComplaintText(req.ProblemText); err != nil {
		return "", err
	}
	return req.ProblemText, nil
}

func validateComplaintText(text string) error {
	if len([]rune(strings.TrimSpace(text))) < MinComplaintRunes {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("problem_text must be at least %d characters", MinComplaintRunes))
	}
	return nil
}
