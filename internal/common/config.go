package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	OCR        OCRConfig
	Raster     RasterConfig
	Classifier ClassifierConfig
	Evaluator  EvaluatorConfig
	Output     OutputConfig
	Watch      WatchConfig
	Journal    JournalConfig
	Server     ServerConfig
	LLM        LLMConfig
	Log        LogConfig
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Engine        string // "cli" | "tessapi"
	Tesseract     string
	TesseractLang string
	TessdataDir   string
	PoolSize      int
	ArtifactDir   string
}

// RasterConfig holds PDF rasterization configuration
type RasterConfig struct {
	PopplerPath string // directory holding pdftoppm; empty -> $PATH
	DPI         int
	MaxPages    int // 0 renders every page
}

// ClassifierConfig holds page classifier configuration
type ClassifierConfig struct {
	Backend     string // "tfserving" | "openai" | "header"
	URL         string
	Threshold   float32
	InputWidth  int
	InputHeight int
	Timeout     time.Duration
}

// EvaluatorConfig holds page evaluation thresholds
type EvaluatorConfig struct {
	BlankTextThreshold int
	HeaderCropFraction float64
	PresetsFile        string
}

// OutputConfig holds materializer settings
type OutputConfig struct {
	JPEGQuality int
}

// WatchConfig holds watch-mode and worker settings
type WatchConfig struct {
	Cooldown       time.Duration
	Workers        int
	QueueSize      int
	SessionTimeout time.Duration
	InitialScan    bool // process PDFs already in the directory when watching starts
}

// JournalConfig holds session journal database settings
type JournalConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HealthAddr string
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		OCR: OCRConfig{
			Engine:        getEnv("OCR_ENGINE", "cli"),
			Tesseract:     getEnv("TESSERACT_CMD", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			PoolSize:      getEnvAsInt("OCR_POOL_SIZE", 2),
			ArtifactDir:   getEnv("ARTIFACT_CACHE_DIR", ""),
		},
		Raster: RasterConfig{
			PopplerPath: getEnv("POPPLER_PATH", ""),
			DPI:         getEnvAsInt("RASTER_DPI", 200),
			MaxPages:    getEnvAsInt("RASTER_MAX_PAGES", 0),
		},
		Classifier: ClassifierConfig{
			Backend:     getEnv("CLASSIFIER", "tfserving"),
			URL:         getEnv("CLASSIFIER_URL", "http://localhost:8501/v1/models/wz:predict"),
			Threshold:   getEnvAsFloat32("CLASSIFIER_THRESHOLD", 0.5),
			InputWidth:  getEnvAsInt("MODEL_INPUT_WIDTH", 620),
			InputHeight: getEnvAsInt("MODEL_INPUT_HEIGHT", 219),
			Timeout:     getEnvAsDuration("CLASSIFIER_TIMEOUT", 30*time.Second),
		},
		Evaluator: EvaluatorConfig{
			BlankTextThreshold: getEnvAsInt("BLANK_TEXT_THRESHOLD", 100),
			HeaderCropFraction: getEnvAsFloat64("HEADER_CROP_FRACTION", 0.3),
			PresetsFile:        getEnv("PRESETS_FILE", ""),
		},
		Output: OutputConfig{
			JPEGQuality: getEnvAsInt("OUTPUT_JPEG_QUALITY", 85),
		},
		Watch: WatchConfig{
			Cooldown:       getEnvAsDuration("WATCHER_COOLDOWN", 5*time.Second),
			Workers:        getEnvAsInt("WORKERS", 1),
			QueueSize:      getEnvAsInt("QUEUE_SIZE", 64),
			SessionTimeout: getEnvAsDuration("SESSION_TIMEOUT", 0),
			InitialScan:    getEnvAsBool("WATCH_INITIAL_SCAN", true),
		},
		Journal: JournalConfig{
			DSN:             getEnv("JOURNAL_DSN", ""),
			MaxConns:        getEnvAsInt32("JOURNAL_MAX_CONNS", 5),
			MinConns:        getEnvAsInt32("JOURNAL_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("JOURNAL_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("JOURNAL_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("JOURNAL_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			HealthAddr: getEnv("HEALTH_ADDR", ""),
		},
		LLM: LLMConfig{
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// plain integers are seconds, like the old WATCHER_COOLDOWN=5
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("OCR_ENGINE", c.OCR.Engine, Required, OneOf("cli", "tessapi"))
	v.Field("TESSERACT_LANG", c.OCR.TesseractLang, Required)
	v.Field("OCR_POOL_SIZE", c.OCR.PoolSize, Positive)
	v.Field("RASTER_DPI", c.Raster.DPI, Positive)
	v.Field("RASTER_MAX_PAGES", c.Raster.MaxPages, Between(0, 10000))
	v.Field("CLASSIFIER", c.Classifier.Backend, Required, OneOf("tfserving", "openai", "header"))
	v.Field("CLASSIFIER_THRESHOLD", c.Classifier.Threshold, Between(0, 1))
	v.Field("MODEL_INPUT_WIDTH", c.Classifier.InputWidth, Positive)
	v.Field("MODEL_INPUT_HEIGHT", c.Classifier.InputHeight, Positive)
	v.Field("BLANK_TEXT_THRESHOLD", c.Evaluator.BlankTextThreshold, Positive)
	v.Field("HEADER_CROP_FRACTION", c.Evaluator.HeaderCropFraction, Between(0.05, 1))
	v.Field("OUTPUT_JPEG_QUALITY", c.Output.JPEGQuality, Between(1, 100))
	v.Field("WATCHER_COOLDOWN", float64(c.Watch.Cooldown), Positive)
	v.Field("WORKERS", c.Watch.Workers, Positive)
	v.Field("LOG_FORMAT", c.Log.Format, OneOf("text", "json"))

	switch c.Classifier.Backend {
	case "tfserving":
		v.Field("CLASSIFIER_URL", c.Classifier.URL, Required)
	case "openai":
		v.Field("OPENAI_API_KEY", c.LLM.APIKey, Required)
	}
	return v.Error()
}

// IsPostgresDSN reports whether the journal DSN points at Postgres.
func (c JournalConfig) IsPostgresDSN() bool {
	return strings.HasPrefix(c.DSN, "postgres://") || strings.HasPrefix(c.DSN, "postgresql://")
}
