package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/fees"
	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/notification"
	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/platform/aws"
	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/platform/cache"
	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/platform/config"
	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/platform/observability"
	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/quote"
	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/scanner"
	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/solana"
	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/tokens"
)

const serviceName = "triarb-scanner"

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	// Create root context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	log.Println("Loading configuration...")
	cfg := config.MustLoad(*configPath)

	// Setup observability (foundational - must be first)
	log.Println("Setting up observability...")
	logger := observability.NewLogger(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

	metrics, err := observability.NewMetrics(serviceName, cfg.Observability.Metrics.Enabled)
	if err != nil {
		log.Fatalf("Failed to create metrics: %v", err)
	}

	tracerProvider, err := observability.NewTracerProvider(ctx, serviceName, cfg.Observability.Tracing.Endpoint, cfg.Observability.Tracing.Enabled)
	if err != nil {
		log.Fatalf("Failed to create tracer: %v", err)
	}
	defer tracerProvider.Shutdown(ctx)

	tracer := observability.NewTracer(serviceName)

	logger.Info("observability setup complete")

	// Setup infrastructure
	logger.Info("setting up infrastructure...")

	// Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.LogError(ctx, "failed to create Redis cache", err)
		log.Fatalf("Failed to create Redis cache: %v", err)
	}
	defer redisCache.Close()

	// Memory cache
	memCache := cache.NewMemoryCache(cfg.Cache.L1MaxSize)
	defer memCache.Close()

	// Layered cache
	layeredCache := cache.NewLayeredCache(memCache, redisCache)

	// AWS configuration
	awsCfg, err := aws.LoadAWSConfig(ctx, aws.Config{Region: cfg.AWS.Region})
	if err != nil {
		logger.LogError(ctx, "failed to load AWS config", err)
		log.Fatalf("Failed to load AWS config: %v", err)
	}

	// SNS client
	snsClient := aws.NewSNSClient(aws.SNSClientConfig{
		AWSConfig: awsCfg,
		Endpoint:  cfg.AWS.Endpoint,
		Logger:    logger,
		Metrics:   metrics,
	})

	// Solana RPC endpoint pool
	logger.Info("connecting to Solana...")
	rpcPool, err := solana.NewPool(solana.PoolConfig{
		Endpoints:      cfg.Solana.RPCEndpoints,
		Logger:         logger,
		Metrics:        metrics,
		HealthCheckTTL: cfg.Solana.HealthCheckInterval,
	})
	if err != nil {
		logger.LogError(ctx, "failed to create RPC pool", err)
		log.Fatalf("Failed to create RPC pool: %v", err)
	}
	defer rpcPool.Close()

	// Network fee estimation: static fallback, RPC-backed refresher when
	// enabled
	var feeSource scanner.FeeEstimator = fees.NewStatic(cfg.Scanner.EstimatedFeeUnits)
	var feeRefresher *fees.Refresher
	if cfg.Solana.Fees.Enabled {
		estimator, err := fees.NewRPCEstimator(fees.RPCEstimatorConfig{
			Pool:   rpcPool,
			Logger: logger,
		})
		if err != nil {
			logger.LogError(ctx, "failed to create fee estimator", err)
			log.Fatalf("Failed to create fee estimator: %v", err)
		}

		feeRefresher = fees.NewRefresher(fees.RefresherConfig{
			Estimator: estimator,
			Fallback:  cfg.Scanner.EstimatedFeeUnits,
			Interval:  cfg.Solana.Fees.RefreshInterval,
			Logger:    logger,
			Metrics:   metrics,
		})
		feeRefresher.Start()
		defer feeRefresher.Stop()

		feeSource = feeRefresher
	}

	// Token universe: registry first, Jupiter catalog for the rest
	logger.Info("resolving token universe...", "tokens", cfg.Scanner.Tokens)
	catalog := tokens.NewCatalog(tokens.CatalogConfig{
		ListURL: cfg.Jupiter.TokenListURL,
		Cache:   layeredCache,
		Logger:  logger,
		Metrics: metrics,
	})

	universe, err := tokens.NewResolver(catalog).Resolve(ctx, cfg.Scanner.Tokens)
	if err != nil {
		logger.LogError(ctx, "failed to resolve token universe", err)
		log.Fatalf("Failed to resolve token universe: %v", err)
	}

	// Jupiter quote client
	logger.Info("creating quote client...")
	quoteClient, err := quote.NewClient(quote.ClientConfig{
		BaseURL:        cfg.Jupiter.BaseURL,
		RateLimitRPM:   cfg.Jupiter.RateLimit.RequestsPerMinute,
		RateLimitBurst: cfg.Jupiter.RateLimit.Burst,
		Timeout:        cfg.Jupiter.Timeout,
		Logger:         logger,
		Metrics:        metrics,
	})
	if err != nil {
		logger.LogError(ctx, "failed to create quote client", err)
		log.Fatalf("Failed to create quote client: %v", err)
	}

	// Cycle evaluator
	evaluator, err := scanner.NewEvaluator(scanner.EvaluatorConfig{
		Quotes:  quoteClient,
		Fees:    feeSource,
		Logger:  logger,
		Metrics: metrics,
		Tracer:  tracer,
	})
	if err != nil {
		logger.LogError(ctx, "failed to create evaluator", err)
		log.Fatalf("Failed to create evaluator: %v", err)
	}

	// Scanner
	logger.Info("creating scanner...", "universe_size", len(universe))
	scan, err := scanner.NewScanner(scanner.ScannerConfig{
		Evaluator: evaluator,
		Universe:  universe,
		Settings:  scanner.SettingsFromConfig(&cfg.Scanner),
		Logger:    logger,
		Metrics:   metrics,
		Tracer:    tracer,
	})
	if err != nil {
		logger.LogError(ctx, "failed to create scanner", err)
		log.Fatalf("Failed to create scanner: %v", err)
	}
	defer scan.Destroy()

	// Notification sinks, dispatched in registration order: console
	// banner first, then SNS. An empty topic ARN means SNS is disabled
	// (local development) and opportunities are only logged.
	scan.RegisterCallback(notification.NewConsoleNotifier(nil).Callback())

	if cfg.AWS.SNSTopicARN != "" {
		publisher, err := notification.NewSNSPublisher(notification.SNSPublisherConfig{
			Client:   snsClient,
			TopicARN: cfg.AWS.SNSTopicARN,
			Logger:   logger,
		})
		if err != nil {
			logger.LogError(ctx, "failed to create SNS publisher", err)
			log.Fatalf("Failed to create SNS publisher: %v", err)
		}
		scan.RegisterCallback(publisher.Callback())
	} else {
		scan.RegisterCallback(notification.NewNoOpPublisher(logger).Callback())
	}

	// Start scanning
	if err := scan.Start(); err != nil {
		logger.LogError(ctx, "failed to start scanner", err)
		log.Fatalf("Failed to start scanner: %v", err)
	}
	logger.Info("scanner running",
		"universe_size", len(universe),
		"polling_interval", scan.Settings().PollingInterval.String(),
	)

	// HTTP server: health, readiness, metrics, and the runtime config
	// surface
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: newMux(scan, quoteClient, rpcPool, metrics),
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		select {
		case sig := <-sigCh:
			logger.Info("shutdown signal received, gracefully stopping...", "signal", sig.String())
		case <-gctx.Done():
		}

		scan.Destroy()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.LogError(ctx, "HTTP server shutdown failed", err)
		}

		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.LogError(ctx, "service error", err)
		log.Fatalf("Service error: %v", err)
	}

	logger.Info("application stopped")
}

// settingsDTO is the wire form of the runtime scanner settings. The
// start amount is in human-readable units of each cycle's first token.
type settingsDTO struct {
	StartAmount        float64 `json:"start_amount"`
	MinProfitThreshold float64 `json:"min_profit_threshold"`
	MaxSlippage        float64 `json:"max_slippage"`
	MinConfidence      float64 `json:"min_confidence"`
	PollingIntervalMs  int64   `json:"polling_interval_ms"`
	BatchSize          int     `json:"batch_size"`
	SlippageBps        int     `json:"slippage_bps"`
	QuoteTimeoutMs     int64   `json:"quote_timeout_ms"`
}

func settingsToDTO(s scanner.Settings) settingsDTO {
	return settingsDTO{
		StartAmount:        s.StartAmount,
		MinProfitThreshold: s.MinProfitThreshold,
		MaxSlippage:        s.MaxSlippage,
		MinConfidence:      s.MinConfidence,
		PollingIntervalMs:  s.PollingInterval.Milliseconds(),
		BatchSize:          s.BatchSize,
		SlippageBps:        s.SlippageBps,
		QuoteTimeoutMs:     s.QuoteTimeout.Milliseconds(),
	}
}

func settingsFromDTO(dto settingsDTO) scanner.Settings {
	return scanner.Settings{
		StartAmount:        dto.StartAmount,
		MinProfitThreshold: dto.MinProfitThreshold,
		MaxSlippage:        dto.MaxSlippage,
		MinConfidence:      dto.MinConfidence,
		PollingInterval:    time.Duration(dto.PollingIntervalMs) * time.Millisecond,
		BatchSize:          dto.BatchSize,
		SlippageBps:        dto.SlippageBps,
		QuoteTimeout:       time.Duration(dto.QuoteTimeoutMs) * time.Millisecond,
	}
}

// newMux builds the HTTP surface.
func newMux(scan *scanner.Scanner, quoteClient *quote.Client, rpcPool *solana.Pool, metrics *observability.Metrics) *http.ServeMux {
	mux := http.NewServeMux()

	// Health check: scanner state plus provider and RPC health
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		health := quoteClient.Health()

		status := http.StatusOK
		healthy := rpcPool.HealthyEndpointCount() > 0
		if !healthy {
			status = http.StatusServiceUnavailable
		}

		body := map[string]interface{}{
			"status":        map[bool]string{true: "healthy", false: "unhealthy"}[healthy],
			"scanner_state": scan.State().String(),
			"quote_provider": map[string]interface{}{
				"provider":             health.Provider,
				"circuit_state":        health.CircuitState,
				"consecutive_failures": health.ConsecutiveFailures,
			},
			"rpc_endpoints": rpcPool.EndpointStatus(),
		}

		// Best effort: a slow or failing RPC should not fail the check
		slotCtx, slotCancel := context.WithTimeout(r.Context(), 2*time.Second)
		if slot, err := rpcPool.CurrentSlot(slotCtx); err == nil {
			body["current_slot"] = slot
		}
		slotCancel()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	})

	// Readiness check
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	})

	// Metrics endpoint
	mux.Handle("/metrics", metrics.Handler())

	// Runtime scanner settings: read with GET, replace with PUT. Invalid
	// settings are rejected and never reach the scan loop.
	mux.HandleFunc("/config", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(settingsToDTO(scan.Settings()))

		case http.MethodPut:
			var dto settingsDTO
			if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"error": fmt.Sprintf("invalid body: %v", err)})
				return
			}

			if err := scan.UpdateSettings(settingsFromDTO(dto)); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
				return
			}

			json.NewEncoder(w).Encode(settingsToDTO(scan.Settings()))

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	return mux
}
