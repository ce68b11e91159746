package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Pipeline  PipelineConfig
	Gemini    GeminiConfig
	Groq      GroqConfig
	Storage   StorageConfig
	S3        S3Config
	Notify    NotifyConfig
	Sweep     SweepConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	ProcessPerHour int // 0 disables
}

type PipelineConfig struct {
	WorkDir        string
	FFmpegPath     string
	FFprobePath    string
	FontFile       string
	SilenceSeconds int
	MaxConcurrent  int    // 0 means unlimited
	Generator      string // gemini | groq
	Transcriber    string // placeholder | groq
	Synthesizer    string // silent | groq
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type GroqConfig struct {
	APIKey             string
	BaseURL            string
	Model              string
	TranscriptionModel string
	SpeechModel        string
	Voice              string
}

type StorageConfig struct {
	Provider        string // gcs | s3 | local
	Bucket          string
	PublicHost      string
	CredentialsFile string
	LocalRoot       string
}

type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

type NotifyConfig struct {
	WebhookURL string
	Timeout    int // seconds
}

type SweepConfig struct {
	Interval string // asynq cron schedule
	MaxAge   time.Duration
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("GEMINI_API_KEY")
	readSecret("GROQ_API_KEY")
	readSecret("S3_ACCESS_KEY_ID")
	readSecret("S3_SECRET_ACCESS_KEY")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables
	v.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = v.BindEnv("server.port", "SERVER_PORT", "PORT")
	_ = v.BindEnv("server.env", "SERVER_ENV", "ENVIRONMENT")
	_ = v.BindEnv("server.log_level", "LOG_LEVEL")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")
	_ = v.BindEnv("ratelimit.process_per_hour", "RATELIMIT_PROCESS_PER_HOUR")
	_ = v.BindEnv("pipeline.work_dir", "PIPELINE_WORK_DIR")
	_ = v.BindEnv("pipeline.ffmpeg_path", "FFMPEG_PATH")
	_ = v.BindEnv("pipeline.ffprobe_path", "FFPROBE_PATH")
	_ = v.BindEnv("pipeline.font_file", "CAPTION_FONT_FILE")
	_ = v.BindEnv("pipeline.silence_seconds", "PIPELINE_SILENCE_SECONDS")
	_ = v.BindEnv("pipeline.max_concurrent", "PIPELINE_MAX_CONCURRENT")
	_ = v.BindEnv("pipeline.generator", "PIPELINE_GENERATOR")
	_ = v.BindEnv("pipeline.transcriber", "PIPELINE_TRANSCRIBER")
	_ = v.BindEnv("pipeline.synthesizer", "PIPELINE_SYNTHESIZER")
	_ = v.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	_ = v.BindEnv("gemini.model", "GEMINI_MODEL")
	_ = v.BindEnv("groq.api_key", "GROQ_API_KEY")
	_ = v.BindEnv("groq.base_url", "GROQ_BASE_URL")
	_ = v.BindEnv("groq.model", "GROQ_MODEL")
	_ = v.BindEnv("groq.transcription_model", "GROQ_TRANSCRIPTION_MODEL")
	_ = v.BindEnv("groq.speech_model", "GROQ_SPEECH_MODEL")
	_ = v.BindEnv("groq.voice", "GROQ_VOICE")
	_ = v.BindEnv("storage.provider", "STORAGE_PROVIDER")
	_ = v.BindEnv("storage.bucket", "STORAGE_BUCKET", "BUCKET_NAME")
	_ = v.BindEnv("storage.public_host", "STORAGE_PUBLIC_HOST")
	_ = v.BindEnv("storage.credentials_file", "GOOGLE_APPLICATION_CREDENTIALS")
	_ = v.BindEnv("storage.local_root", "STORAGE_LOCAL_ROOT")
	_ = v.BindEnv("s3.endpoint", "S3_ENDPOINT")
	_ = v.BindEnv("s3.region", "S3_REGION")
	_ = v.BindEnv("s3.access_key_id", "S3_ACCESS_KEY_ID")
	_ = v.BindEnv("s3.secret_access_key", "S3_SECRET_ACCESS_KEY")
	_ = v.BindEnv("notify.webhook_url", "NOTIFY_WEBHOOK_URL")
	_ = v.BindEnv("notify.timeout", "NOTIFY_TIMEOUT")
	_ = v.BindEnv("sweep.interval", "SWEEP_INTERVAL")
	_ = v.BindEnv("sweep.max_age", "SWEEP_MAX_AGE")

	// Defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("ratelimit.process_per_hour", 0)

	// Pipeline defaults
	v.SetDefault("pipeline.work_dir", os.TempDir())
	v.SetDefault("pipeline.ffmpeg_path", "ffmpeg")
	v.SetDefault("pipeline.ffprobe_path", "ffprobe")
	v.SetDefault("pipeline.silence_seconds", 10)
	v.SetDefault("pipeline.max_concurrent", 0)
	v.SetDefault("pipeline.generator", "gemini")
	v.SetDefault("pipeline.transcriber", "placeholder")
	v.SetDefault("pipeline.synthesizer", "silent")

	// Gemini defaults
	v.SetDefault("gemini.model", "gemini-1.5-flash")

	// Groq defaults
	v.SetDefault("groq.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("groq.model", "llama-3.3-70b-versatile")
	v.SetDefault("groq.transcription_model", "whisper-large-v3")
	v.SetDefault("groq.speech_model", "playai-tts")
	v.SetDefault("groq.voice", "Fritz-PlayAI")

	// Storage defaults
	v.SetDefault("storage.provider", "gcs")
	v.SetDefault("storage.bucket", "debate-responses")
	v.SetDefault("storage.public_host", "storage.googleapis.com")
	v.SetDefault("s3.region", "auto")

	// Notification and sweep defaults
	v.SetDefault("notify.timeout", 10)
	v.SetDefault("sweep.interval", "@every 15m")
	v.SetDefault("sweep.max_age", time.Hour)

	// Try to read config file (optional)
	_ = v.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:     v.GetString("server.port"),
			Env:      v.GetString("server.env"),
			LogLevel: v.GetString("server.log_level"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		RateLimit: RateLimitConfig{
			ProcessPerHour: v.GetInt("ratelimit.process_per_hour"),
		},
		Pipeline: PipelineConfig{
			WorkDir:        v.GetString("pipeline.work_dir"),
			FFmpegPath:     v.GetString("pipeline.ffmpeg_path"),
			FFprobePath:    v.GetString("pipeline.ffprobe_path"),
			FontFile:       v.GetString("pipeline.font_file"),
			SilenceSeconds: v.GetInt("pipeline.silence_seconds"),
			MaxConcurrent:  v.GetInt("pipeline.max_concurrent"),
			Generator:      strings.ToLower(v.GetString("pipeline.generator")),
			Transcriber:    strings.ToLower(v.GetString("pipeline.transcriber")),
			Synthesizer:    strings.ToLower(v.GetString("pipeline.synthesizer")),
		},
		Gemini: GeminiConfig{
			APIKey: v.GetString("gemini.api_key"),
			Model:  v.GetString("gemini.model"),
		},
		Groq: GroqConfig{
			APIKey:             v.GetString("groq.api_key"),
			BaseURL:            v.GetString("groq.base_url"),
			Model:              v.GetString("groq.model"),
			TranscriptionModel: v.GetString("groq.transcription_model"),
			SpeechModel:        v.GetString("groq.speech_model"),
			Voice:              v.GetString("groq.voice"),
		},
		Storage: StorageConfig{
			Provider:        strings.ToLower(v.GetString("storage.provider")),
			Bucket:          v.GetString("storage.bucket"),
			PublicHost:      v.GetString("storage.public_host"),
			CredentialsFile: v.GetString("storage.credentials_file"),
			LocalRoot:       v.GetString("storage.local_root"),
		},
		S3: S3Config{
			Endpoint:        v.GetString("s3.endpoint"),
			Region:          v.GetString("s3.region"),
			AccessKeyID:     v.GetString("s3.access_key_id"),
			SecretAccessKey: v.GetString("s3.secret_access_key"),
		},
		Notify: NotifyConfig{
			WebhookURL: v.GetString("notify.webhook_url"),
			Timeout:    v.GetInt("notify.timeout"),
		},
		Sweep: SweepConfig{
			Interval: v.GetString("sweep.interval"),
			MaxAge:   v.GetDuration("sweep.max_age"),
		},
	}

	return cfg, nil
}
