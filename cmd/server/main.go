package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/rebuttal/api/internal/client"
	"github.com/rebuttal/api/internal/config"
	"github.com/rebuttal/api/internal/handler"
	"github.com/rebuttal/api/internal/middleware"
	"github.com/rebuttal/api/internal/notify"
	"github.com/rebuttal/api/internal/service"
	"github.com/rebuttal/api/internal/speech"
	"github.com/rebuttal/api/internal/transcoder"
	ws "github.com/rebuttal/api/internal/websocket"
	"github.com/rebuttal/api/internal/worker"
	"github.com/rebuttal/api/pkg/executor"
	"github.com/rebuttal/api/pkg/response"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Redis client (optional - tracker and rate limits fall back)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	redisAvailable := true
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
		redisAvailable = false
	}

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Transcoder
	tc := transcoder.NewFFmpeg(executor.New(), cfg.Pipeline.FFmpegPath, cfg.Pipeline.FFprobePath, cfg.Pipeline.FontFile)

	// Object storage
	store, gcsClient := newObjectStore(ctx, cfg)
	if gcsClient != nil {
		defer gcsClient.Close()
	}

	// Downloader; gs:// ingress needs the GCS client
	var opener client.ObjectOpener
	if gcsClient != nil {
		opener = gcsClient
	}
	downloader := client.NewDownloader(opener, 0)

	// Model backends
	groqClient := client.NewGroqClient(&cfg.Groq)
	generator, generatorName := newGenerator(ctx, cfg, groqClient)
	transcriber, transcriberName := newTranscriber(cfg, groqClient)
	synthesizer, synthesizerName := newSynthesizer(cfg, groqClient, tc)

	// Artifact tracking
	var tracker service.ArtifactTracker
	if redisAvailable {
		tracker = service.NewRedisTracker(redisClient)
	} else {
		log.Println("Info: Tracking temp artifacts in memory")
		tracker = service.NewMemoryTracker()
	}

	// Initialize services
	debateService := service.NewDebateService(service.Deps{
		WorkDir:       cfg.Pipeline.WorkDir,
		MaxConcurrent: cfg.Pipeline.MaxConcurrent,
		Fetcher:       downloader,
		Transcoder:    tc,
		Transcriber:   transcriber,
		Generator:     generator,
		Synthesizer:   synthesizer,
		Store:         store,
		Notifier:      notify.NewNotifier(&cfg.Notify),
		Tracker:       tracker,
		Progress:      hub,
	})

	// Initialize handlers
	validate := handler.NewValidator()
	debateHandler := handler.NewDebateHandler(debateService, validate)
	healthHandler := handler.NewHealthHandler(map[string]string{
		"generator":   generatorName,
		"transcriber": transcriberName,
		"synthesizer": synthesizerName,
		"storage":     cfg.Storage.Provider,
		"redis":       availability(redisAvailable),
	})

	var rateLimiter *middleware.RateLimiter
	if redisAvailable {
		rateLimiter = middleware.NewRateLimiter(redisClient)
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    50 * 1024 * 1024, // 50MB
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	isDebug := strings.EqualFold(cfg.Server.LogLevel, "debug")
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path} ${respHeader:X-Request-ID}\n"
	if isDebug {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${reqHeaders} ${respHeader:X-Request-ID}\n"
		log.Println("Debug logging enabled")
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.Health)
	app.Post("/processDebateVideo", rateLimiter.ProcessLimit(cfg.RateLimit.ProcessPerHour), debateHandler.Process)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/jobs/:fileId", websocket.New(func(c *websocket.Conn) {
		hub.HandleConnection(c, c.Params("fileId"))
	}))

	// Orphaned artifact sweep
	sweepWorker := worker.NewSweepWorker(tracker, cfg.Sweep.MaxAge)
	if redisAvailable {
		go startWorkerServer(cfg, sweepWorker)
		go startScheduler(cfg)
	} else {
		go sweepWorker.RunTicker(ctx, tickerInterval(cfg.Sweep.Interval))
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		cancel()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s (env=%s)", addr, cfg.Server.Env)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func newObjectStore(ctx context.Context, cfg *config.Config) (client.ObjectStore, *client.GCSClient) {
	switch cfg.Storage.Provider {
	case "gcs":
		gcsClient, err := client.NewGCSClient(ctx, &cfg.Storage)
		if err == nil {
			return gcsClient, gcsClient
		}
		log.Printf("Warning: GCS client not initialized: %v", err)
	case "s3":
		if cfg.S3.AccessKeyID != "" && cfg.S3.SecretAccessKey != "" {
			s3Client, err := client.NewS3Client(ctx, &cfg.Storage, &cfg.S3)
			if err == nil {
				return s3Client, nil
			}
			log.Printf("Warning: S3 client not initialized: %v", err)
		} else {
			log.Println("Info: S3 credentials not configured")
		}
	case "local":
		root := cfg.Storage.LocalRoot
		if root == "" {
			root = "./data"
		}
		return client.NewLocalStore(root, cfg.Storage.Bucket, cfg.Storage.PublicHost), nil
	default:
		log.Printf("Warning: unknown storage provider %q", cfg.Storage.Provider)
	}

	log.Println("Info: Using in-memory storage, published videos will not persist")
	return client.NewMemoryStore(cfg.Storage.Bucket, cfg.Storage.PublicHost), nil
}

func newGenerator(ctx context.Context, cfg *config.Config, groqClient *client.GroqClient) (client.TextGenerator, string) {
	switch cfg.Pipeline.Generator {
	case "groq":
		if groqClient.IsConfigured() {
			return groqClient, "groq"
		}
		log.Println("Info: Groq API key not configured")
	default:
		if cfg.Gemini.APIKey != "" {
			gemini, err := client.NewGeminiClient(ctx, &cfg.Gemini)
			if err == nil {
				return gemini, "gemini"
			}
			log.Printf("Warning: Gemini client not initialized: %v", err)
		} else {
			log.Println("Info: Gemini API key not configured")
		}
	}

	log.Println("Info: Using static response generator")
	return client.StaticGenerator{}, "static"
}

func newTranscriber(cfg *config.Config, groqClient *client.GroqClient) (speech.Transcriber, string) {
	if cfg.Pipeline.Transcriber == "groq" {
		if groqClient.IsConfigured() {
			return speech.NewGroqTranscriber(groqClient), "groq"
		}
		log.Println("Info: Groq API key not configured, using placeholder transcription")
	}
	return speech.PlaceholderTranscriber{}, "placeholder"
}

func newSynthesizer(cfg *config.Config, groqClient *client.GroqClient, tc transcoder.Transcoder) (speech.Synthesizer, string) {
	if cfg.Pipeline.Synthesizer == "groq" {
		if groqClient.IsConfigured() {
			return speech.NewGroqSynthesizer(groqClient), "groq"
		}
		log.Println("Info: Groq API key not configured, using silent narration")
	}
	d := time.Duration(cfg.Pipeline.SilenceSeconds) * time.Second
	return speech.NewSilentSynthesizer(tc, d), "silent"
}

func availability(ok bool) string {
	if ok {
		return "available"
	}
	return "unavailable"
}

func redisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
}

func asynqLogLevel(level string) asynq.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return asynq.DebugLevel
	case "warn":
		return asynq.WarnLevel
	case "error":
		return asynq.ErrorLevel
	default:
		return asynq.InfoLevel
	}
}

func startWorkerServer(cfg *config.Config, sweepWorker *worker.SweepWorker) {
	srv := asynq.NewServer(
		redisOpt(cfg),
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				"maintenance": 1,
			},
			LogLevel: asynqLogLevel(cfg.Server.LogLevel),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(worker.TaskTypeSweep, sweepWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
	}
}

func startScheduler(cfg *config.Config) {
	scheduler := asynq.NewScheduler(redisOpt(cfg), &asynq.SchedulerOpts{
		LogLevel: asynqLogLevel(cfg.Server.LogLevel),
	})

	task, err := worker.NewSweepTask()
	if err != nil {
		log.Printf("Failed to create sweep task: %v", err)
		return
	}
	if _, err := scheduler.Register(cfg.Sweep.Interval, task,
		asynq.Queue("maintenance"),
		asynq.MaxRetry(0),
		asynq.Unique(time.Minute),
	); err != nil {
		log.Printf("Failed to schedule sweep: %v", err)
		return
	}

	if err := scheduler.Run(); err != nil {
		log.Printf("Asynq scheduler error: %v", err)
	}
}

// tickerInterval turns an "@every <duration>" schedule into a duration
func tickerInterval(schedule string) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(strings.TrimPrefix(schedule, "@every"))); err == nil && d > 0 {
		return d
	}
	return 15 * time.Minute
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return response.Error(c, code, response.CodeServiceError, message, nil)
}
