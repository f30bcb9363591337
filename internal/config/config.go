package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database  *dbConfig
	Service   *svcConfig
	Screening *screeningConfig
	Scoring   *scoringConfig
	Storage   *storageConfig
	Cache     *cacheConfig
	Events    *eventsConfig
	Auth      *AuthConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"screening"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address         string   `envconfig:"SCREENING_ADDRESS" default:":3443"`
	MetricsAddress  string   `envconfig:"SCREENING_METRICS_ADDRESS" default:":8080"`
	LogLevel        string   `envconfig:"SCREENING_LOG_LEVEL" default:"info"`
	MigrationFolder string   `envconfig:"SCREENING_MIGRATIONS_FOLDER" default:""`
	AllowedOrigins  []string `envconfig:"SCREENING_ALLOWED_ORIGINS" default:"*"`
}

type screeningConfig struct {
	Workers            int           `envconfig:"SCREENING_WORKERS" default:"4"`
	ScoringTimeout     time.Duration `envconfig:"SCREENING_SCORING_TIMEOUT" default:"30s"`
	PassThreshold      float64       `envconfig:"SCREENING_PASS_THRESHOLD" default:"60"`
	FitStrong          float64       `envconfig:"SCREENING_FIT_STRONG" default:"80"`
	FitModerate        float64       `envconfig:"SCREENING_FIT_MODERATE" default:"60"`
	FitWeak            float64       `envconfig:"SCREENING_FIT_WEAK" default:"40"`
	JobCodeMaxAttempts int           `envconfig:"SCREENING_JOB_CODE_MAX_ATTEMPTS" default:"10"`
	ExclusiveRuns      bool          `envconfig:"SCREENING_EXCLUSIVE_RUNS" default:"false"`
	StaleRunAfter      time.Duration `envconfig:"SCREENING_STALE_RUN_AFTER" default:"30m"`
	ReaperInterval     time.Duration `envconfig:"SCREENING_REAPER_INTERVAL" default:"5m"`
}

type scoringConfig struct {
	// Provider is one of gemini or keyword.
	Provider string `envconfig:"SCORING_PROVIDER" default:"gemini"`
	APIKey   string `envconfig:"GEMINI_API_KEY" default:""`
	Model    string `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
}

type storageConfig struct {
	Endpoint       string `envconfig:"RESUME_STORAGE_ENDPOINT" default:""`
	Bucket         string `envconfig:"RESUME_STORAGE_BUCKET" default:"resumes"`
	AccessKey      string `envconfig:"RESUME_STORAGE_ACCESS_KEY" default:""`
	SecretKey      string `envconfig:"RESUME_STORAGE_SECRET_KEY" default:""`
	UseSSL         bool   `envconfig:"RESUME_STORAGE_USE_SSL" default:"true"`
	PDFLicenseKey  string `envconfig:"UNIDOC_LICENSE_API_KEY" default:""`
	MaxObjectBytes int64  `envconfig:"RESUME_STORAGE_MAX_OBJECT_BYTES" default:"10485760"`
}

type cacheConfig struct {
	RedisAddress  string        `envconfig:"REDIS_ADDRESS" default:""`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	TTL           time.Duration `envconfig:"RESUME_TEXT_CACHE_TTL" default:"24h"`
}

type AuthConfig struct {
	// Type is one of none or jwt.
	Type       string `envconfig:"SCREENING_AUTH" default:"none"`
	JwkCertURL string `envconfig:"SCREENING_AUTH_JWK_URL" default:""`
}

type eventsConfig struct {
	AMQPURL string `envconfig:"EVENTS_AMQP_URL" default:""`
	Queue   string `envconfig:"EVENTS_QUEUE" default:"screening.events"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
		if err := singleConfig.Validate(); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

// NewDefault returns a configuration backed by a local sqlite database with
// the default screening settings. It ignores the environment.
func NewDefault() *Config {
	return &Config{
		Database: &dbConfig{
			Type: "sqlite",
			Name: "file::memory:?cache=shared",
		},
		Service: &svcConfig{
			Address:        ":3443",
			MetricsAddress: ":8080",
			LogLevel:       "info",
			AllowedOrigins: []string{"*"},
		},
		Screening: &screeningConfig{
			Workers:            4,
			ScoringTimeout:     30 * time.Second,
			PassThreshold:      60,
			FitStrong:          80,
			FitModerate:        60,
			FitWeak:            40,
			JobCodeMaxAttempts: 10,
			StaleRunAfter:      30 * time.Minute,
			ReaperInterval:     5 * time.Minute,
		},
		Scoring: &scoringConfig{Provider: "keyword", Model: "gemini-2.5-flash"},
		Storage: &storageConfig{Bucket: "resumes", UseSSL: true, MaxObjectBytes: 10 << 20},
		Cache:   &cacheConfig{TTL: 24 * time.Hour},
		Events:  &eventsConfig{Queue: "screening.events"},
		Auth:    &AuthConfig{Type: "none"},
	}
}

func (c *Config) Validate() error {
	s := c.Screening
	if s.Workers < 1 {
		return fmt.Errorf("SCREENING_WORKERS must be at least 1, got %d", s.Workers)
	}
	if s.JobCodeMaxAttempts < 1 {
		return fmt.Errorf("SCREENING_JOB_CODE_MAX_ATTEMPTS must be at least 1, got %d", s.JobCodeMaxAttempts)
	}
	if s.ScoringTimeout <= 0 {
		return fmt.Errorf("SCREENING_SCORING_TIMEOUT must be positive")
	}
	return nil
}
