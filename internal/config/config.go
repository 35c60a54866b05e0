package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"

	ProviderDeepFace    = "deepface"
	ProviderRekognition = "rekognition"
	ProviderMock        = "mock"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Storage
	StoreBackend string `envconfig:"STORE_BACKEND" default:"file"`
	StorePath    string `envconfig:"STORE_PATH" default:"face_database.json"`
	DatabaseURL  string `envconfig:"DATABASE_URL"`
	AutoMigrate  bool   `envconfig:"AUTO_MIGRATE" default:"true"`

	// Matching
	MatchThreshold     float64 `envconfig:"MATCH_THRESHOLD" default:"0.9"`
	EmbeddingDimension int     `envconfig:"EMBEDDING_DIMENSION" default:"128"`

	// Providers
	Detector      string `envconfig:"DETECTOR" default:"deepface"`
	Embedder      string `envconfig:"EMBEDDER" default:"deepface"`
	FaceInputSize int    `envconfig:"FACE_INPUT_SIZE" default:"96"`

	DeepFaceURL              string        `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	DeepFaceModel            string        `envconfig:"DEEPFACE_MODEL" default:"OpenFace"`
	DeepFaceDetector         string        `envconfig:"DEEPFACE_DETECTOR" default:"opencv"`
	DeepFaceFallbackDetector string        `envconfig:"DEEPFACE_FALLBACK_DETECTOR" default:"retinaface"`
	DeepFaceTimeout          time.Duration `envconfig:"DEEPFACE_TIMEOUT" default:"30s"`

	AWSRegion string `envconfig:"AWS_REGION" default:"us-east-1"`

	// Webhook notifications, disabled when WEBHOOK_URL is empty
	WebhookURL         string   `envconfig:"WEBHOOK_URL"`
	WebhookSecret      string   `envconfig:"WEBHOOK_SECRET"`
	WebhookEvents      []string `envconfig:"WEBHOOK_EVENTS"`
	WebhookMaxAttempts int      `envconfig:"WEBHOOK_MAX_ATTEMPTS" default:"3"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints envconfig can't express.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendFile:
		if c.StorePath == "" {
			return errors.New("invalid config: STORE_PATH is required for the file backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("invalid config: DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("invalid config: unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.Detector {
	case ProviderDeepFace, ProviderRekognition, ProviderMock:
	default:
		return fmt.Errorf("invalid config: unknown DETECTOR %q", c.Detector)
	}

	switch c.Embedder {
	case ProviderDeepFace, ProviderMock:
	default:
		return fmt.Errorf("invalid config: unknown EMBEDDER %q", c.Embedder)
	}

	if c.MatchThreshold <= 0 {
		return fmt.Errorf("invalid config: MATCH_THRESHOLD must be > 0, got %v", c.MatchThreshold)
	}
	if c.EmbeddingDimension < 0 {
		return fmt.Errorf("invalid config: EMBEDDING_DIMENSION must be >= 0, got %d", c.EmbeddingDimension)
	}
	if c.FaceInputSize <= 0 {
		return fmt.Errorf("invalid config: FACE_INPUT_SIZE must be > 0, got %d", c.FaceInputSize)
	}
	if c.DeepFaceTimeout <= 0 {
		return fmt.Errorf("invalid config: DEEPFACE_TIMEOUT must be > 0, got %s", c.DeepFaceTimeout)
	}

	return nil
}

// CropFaces reports whether the pipeline must crop the detected face itself.
// The DeepFace embedder detects on its own when it is also the detector.
func (c *Config) CropFaces() bool {
	return !(c.Detector == ProviderDeepFace && c.Embedder == ProviderDeepFace)
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
