// Zvernennia is the complaint-routing service for municipal utilities.
//
// The daemon classifies citizen complaints, routes them to the
// responsible service, and drafts appeal letters. Configuration comes
// from environment variables; see internal/config for the full list.
//
// Usage:
//
//	# Start with defaults (chromem index, hybrid classifier)
//	LLM_API_KEY=... zvernennia
//
//	# Point at qdrant and enable eventing
//	VECTORSTORE_BACKEND=qdrant VECTORSTORE_URL=localhost:6334 \
//	EVENTS_ENABLED=true zvernennia
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lvivdigital/zvernennia/internal/appeal"
	"github.com/lvivdigital/zvernennia/internal/catalog"
	"github.com/lvivdigital/zvernennia/internal/classify"
	"github.com/lvivdigital/zvernennia/internal/config"
	"github.com/lvivdigital/zvernennia/internal/embeddings"
	"github.com/lvivdigital/zvernennia/internal/events"
	"github.com/lvivdigital/zvernennia/internal/gemini"
	"github.com/lvivdigital/zvernennia/internal/health"
	httpserver "github.com/lvivdigital/zvernennia/internal/http"
	"github.com/lvivdigital/zvernennia/internal/logging"
	"github.com/lvivdigital/zvernennia/internal/orchestrator"
	"github.com/lvivdigital/zvernennia/internal/resolver"
	"github.com/lvivdigital/zvernennia/internal/telemetry"
	"github.com/lvivdigital/zvernennia/internal/vectorstore"
	"github.com/lvivdigital/zvernennia/internal/voice"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var configPath string

func main() {
	flag.StringVar(&configPath, "config", "", "path to YAML config file (default ~/.config/zvernennia/config.yaml)")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  zvernennia           Start the complaint service\n")
			fmt.Fprintf(os.Stderr, "  zvernennia version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("zvernennia\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run wires the pipeline and blocks until ctx is cancelled.
func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	tel, err := initTelemetry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		_ = tel.Shutdown(context.Background())
	}()

	logger, err := initLogger(cfg, tel)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zlog := logger.Underlying()

	logger.Info(ctx, "starting zvernennia",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("classifier_mode", cfg.Classifier.Mode),
		zap.String("vectorstore_backend", cfg.VectorStore.Backend),
	)

	cat, err := catalog.New(catalog.Config{
		Path: cfg.Catalog.Path,
		City: cfg.Catalog.City,
	}, zlog)
	if err != nil {
		return fmt.Errorf("opening service registry: %w", err)
	}
	defer cat.Close()

	embedder, err := embeddings.NewProvider(embeddings.ProviderConfig{
		Provider: cfg.Embedding.Provider,
		Model:    cfg.Embedding.Model,
		BaseURL:  cfg.Embedding.BaseURL,
		APIKey:   cfg.Embedding.APIKey.Value(),
		CacheDir: cfg.Embedding.CacheDir,
	})
	if err != nil {
		return fmt.Errorf("initializing embeddings: %w", err)
	}
	defer embedder.Close()

	instrumented := embeddings.Instrument(embedder, cfg.Embedding.Model, embeddings.NewMetrics(zlog))

	store, err := vectorstore.NewStore(cfg, embedder.Dimension(), instrumented, zlog)
	if err != nil {
		return fmt.Errorf("initializing example index: %w", err)
	}
	defer store.Close()

	llm, err := gemini.NewGenerator(ctx, cfg.LLM.APIKey.Value(), cfg.LLM.Model, float32(cfg.LLM.Temperature))
	if err != nil {
		return fmt.Errorf("initializing llm client: %w", err)
	}

	classifier, err := classify.New(cfg, store, llm, cat, zlog)
	if err != nil {
		return fmt.Errorf("initializing classifier: %w", err)
	}

	res := resolver.New(cat, zlog)
	drafter := appeal.NewDrafter(llm, cfg.Catalog.City, float32(cfg.LLM.LetterTemperature), zlog)
	transcriber := voice.NewTranscriber(llm, zlog)

	publisher, err := initPublisher(cfg, zlog)
	if err != nil {
		return err
	}
	defer publisher.Close()

	orch := orchestrator.New(classifier, res, drafter, publisher, zlog)

	checker := newHealthChecker(cfg, cat, store, instrumented, zlog)

	srv, err := httpserver.NewServer(
		classifier, res, drafter, orch, transcriber, checker,
		zlog,
		&httpserver.Config{
			Host:      cfg.Server.Host,
			Port:      cfg.Server.Port,
			RateLimit: cfg.Server.RateLimit,
		},
	)
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}
	srv.Use(httpserver.NewHTTPMetrics(zlog).MetricsMiddleware())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// loadConfig prefers the YAML file when one is given or present at the
// default location; plain env loading otherwise.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if configPath != "" {
		loaded, err := config.LoadWithFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		cfg = loaded
	} else {
		cfg = config.Load()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func initTelemetry(ctx context.Context, cfg *config.Config) (*telemetry.Telemetry, error) {
	tcfg := telemetry.NewDefaultConfig()
	tcfg.Enabled = cfg.Telemetry.Enabled
	tcfg.ServiceName = cfg.Telemetry.ServiceName
	tcfg.ServiceVersion = version
	tcfg.Endpoint = cfg.Telemetry.Endpoint
	return telemetry.New(ctx, tcfg)
}

func initLogger(cfg *config.Config, tel *telemetry.Telemetry) (*logging.Logger, error) {
	lcfg := logging.NewDefaultConfig()
	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Logging.Level, err)
	}
	lcfg.Level = level
	lcfg.Format = cfg.Logging.Format
	if tel.IsEnabled() {
		lcfg.Output.OTEL = true
	}
	return logging.NewLogger(lcfg, tel.LoggerProvider())
}

func initPublisher(cfg *config.Config, logger *zap.Logger) (events.Publisher, error) {
	if !cfg.Events.Enabled {
		return events.NopPublisher{}, nil
	}
	publisher, err := events.NewNATSPublisher(cfg.Events.URL, cfg.Events.SubjectPrefix, logger)
	if err != nil {
		return nil, fmt.Errorf("connecting event stream: %w", err)
	}
	return publisher, nil
}

// newHealthChecker wires the readiness probes. The registry and the
// example index are required; a broken LLM key only degrades since
// k-NN classification keeps working.
func newHealthChecker(cfg *config.Config, cat *catalog.Catalog, store vectorstore.Store, embedder vectorstore.Embedder, logger *zap.Logger) *health.Checker {
	checks := []health.Check{
		{
			Name:     "catalog",
			Required: true,
			Probe:    cat.Ping,
		},
		{
			Name:     "vectorstore",
			Required: true,
			Probe: func(ctx context.Context) error {
				_, err := store.Count(ctx)
				return err
			},
		},
		{
			Name: "embeddings",
			Probe: func(ctx context.Context) error {
				_, err := embedder.EmbedQuery(ctx, "тест")
				return err
			},
		},
		{
			Name: "llm",
			Probe: func(ctx context.Context) error {
				if !cfg.LLM.APIKey.IsSet() {
					return errors.New("llm api key is not configured")
				}
				return nil
			},
		},
	}
	return health.NewChecker(checks, 0, logger)
}
