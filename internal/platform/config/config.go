package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full process configuration. Values resolve in order:
// defaults, then the YAML file named by SAFEDESK_CONFIG, then environment.
type Config struct {
	Server    Server          `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Auth      AuthConfig      `yaml:"auth"`
	Case      CaseConfig      `yaml:"case"`
	Evidence  EvidenceConfig  `yaml:"evidence"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Assist    AssistConfig    `yaml:"assist"`
	Alert     AlertConfig     `yaml:"alert"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string        `yaml:"addr"`
	AdminToken     string        `yaml:"admin_token"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig selects Postgres persistence. An empty URL runs every store in memory.
type DatabaseConfig struct {
	URL          string        `yaml:"url"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	ConnMaxIdle  time.Duration `yaml:"conn_max_idle"`
}

type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type KafkaConfig struct {
	Brokers    []string `yaml:"brokers"`
	AuditTopic string   `yaml:"audit_topic"`
}

type AuthConfig struct {
	JWTSigningKey string        `yaml:"jwt_signing_key"`
	Issuer        string        `yaml:"issuer"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
}

type CaseConfig struct {
	Prefix               string        `yaml:"prefix"`
	PINHashCost          int           `yaml:"pin_hash_cost"`
	StrictTransitions    bool          `yaml:"strict_transitions"`
	ReviewerClosedWrites bool          `yaml:"reviewer_closed_writes"`
	MaxMessageLength     int           `yaml:"max_message_length"`
	SubmissionsPerWindow int           `yaml:"submissions_per_window"`
	SubmissionWindow     time.Duration `yaml:"submission_window"`
}

type EvidenceConfig struct {
	MaxFileSizeMB     int           `yaml:"max_file_size_mb"`
	UploadDir         string        `yaml:"upload_dir"`
	PublicBaseURL     string        `yaml:"public_base_url"`
	S3Bucket          string        `yaml:"s3_bucket"`
	S3Endpoint        string        `yaml:"s3_endpoint"`
	S3Region          string        `yaml:"s3_region"`
	S3AccessKeyID     string        `yaml:"s3_access_key_id"`
	S3SecretAccessKey string        `yaml:"s3_secret_access_key"`
	ClassifierURL     string        `yaml:"classifier_url"`
	ClassifierAPIKey  string        `yaml:"classifier_api_key"`
	ClassifierTimeout time.Duration `yaml:"classifier_timeout"`
	Workers           int           `yaml:"workers"`
	QueueSize         int           `yaml:"queue_size"`
	UploadsPerMinute  int           `yaml:"uploads_per_minute"`
}

type RateLimitConfig struct {
	Disabled          bool `yaml:"disabled"`
	ImprovePerMinute  int  `yaml:"improve_per_minute"`
	GuidancePerMinute int  `yaml:"guidance_per_minute"`
	LoginPerMinute    int  `yaml:"login_per_minute"`
	SOSPerMinute      int  `yaml:"sos_per_minute"`
	MessagesPerMinute int  `yaml:"messages_per_minute"`
}

type AssistConfig struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

type AlertConfig struct {
	URL        string        `yaml:"url"`
	AccountSID string        `yaml:"account_sid"`
	AuthToken  string        `yaml:"auth_token"`
	From       string        `yaml:"from"`
	Timeout    time.Duration `yaml:"timeout"`
}

// devSigningKey is used only when JWT_SIGNING_KEY is unset.
const devSigningKey = "dev-secret-key-change-in-production"

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: Server{
			Addr:           ":8080",
			RequestTimeout: 30 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Database: DatabaseConfig{
			MaxOpenConns: 20,
			MaxIdleConns: 5,
			ConnMaxIdle:  5 * time.Minute,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{AuditTopic: "safedesk.audit"},
		Auth: AuthConfig{
			JWTSigningKey: devSigningKey,
			Issuer:        "safedesk",
			TokenTTL:      7 * 24 * time.Hour,
		},
		Case: CaseConfig{
			Prefix:               "SD",
			PINHashCost:          12,
			ReviewerClosedWrites: true,
			MaxMessageLength:     5000,
			SubmissionsPerWindow: 5,
			SubmissionWindow:     15 * time.Minute,
		},
		Evidence: EvidenceConfig{
			MaxFileSizeMB:     10,
			UploadDir:         "uploads",
			PublicBaseURL:     "/uploads",
			S3Region:          "auto",
			ClassifierTimeout: 20 * time.Second,
			Workers:           2,
			QueueSize:         64,
			UploadsPerMinute:  20,
		},
		RateLimit: RateLimitConfig{
			ImprovePerMinute:  10,
			GuidancePerMinute: 20,
			LoginPerMinute:    10,
			SOSPerMinute:      5,
			MessagesPerMinute: 30,
		},
		Assist: AssistConfig{Timeout: 30 * time.Second},
		Alert:  AlertConfig{Timeout: 10 * time.Second},
	}
}

// Load builds the configuration from .env, an optional YAML file and the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("SAFEDESK_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the services cannot run with.
func (c Config) Validate() error {
	if c.Case.PINHashCost < 4 || c.Case.PINHashCost > 31 {
		return fmt.Errorf("case.pin_hash_cost must be between 4 and 31, got %d", c.Case.PINHashCost)
	}
	if c.Case.Prefix == "" || strings.Contains(c.Case.Prefix, "-") {
		return fmt.Errorf("case.prefix must be non-empty and must not contain '-'")
	}
	if c.Evidence.MaxFileSizeMB <= 0 {
		return fmt.Errorf("evidence.max_file_size_mb must be positive")
	}
	if c.Evidence.Workers <= 0 || c.Evidence.QueueSize <= 0 {
		return fmt.Errorf("evidence.workers and evidence.queue_size must be positive")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	return nil
}

// UsesDevSigningKey reports whether tokens are signed with the built-in key.
func (c Config) UsesDevSigningKey() bool {
	return c.Auth.JWTSigningKey == devSigningKey
}

// MaxFileSizeBytes is the evidence upload ceiling.
func (c EvidenceConfig) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) << 20
}

func applyEnv(cfg *Config) {
	envString("SAFEDESK_ADDR", &cfg.Server.Addr)
	envString("ADMIN_API_TOKEN", &cfg.Server.AdminToken)
	envDuration("REQUEST_TIMEOUT", &cfg.Server.RequestTimeout)

	envString("LOG_LEVEL", &cfg.Log.Level)
	envString("LOG_FORMAT", &cfg.Log.Format)

	envString("DATABASE_URL", &cfg.Database.URL)
	envInt("DATABASE_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns)
	envInt("DATABASE_MAX_IDLE_CONNS", &cfg.Database.MaxIdleConns)

	envString("REDIS_URL", &cfg.Redis.URL)
	envInt("REDIS_POOL_SIZE", &cfg.Redis.PoolSize)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = splitList(brokers)
	}
	envString("KAFKA_AUDIT_TOPIC", &cfg.Kafka.AuditTopic)

	envString("JWT_SIGNING_KEY", &cfg.Auth.JWTSigningKey)
	envString("JWT_ISSUER", &cfg.Auth.Issuer)
	envDuration("JWT_TTL", &cfg.Auth.TokenTTL)

	envString("CASE_PREFIX", &cfg.Case.Prefix)
	envInt("PIN_HASH_COST", &cfg.Case.PINHashCost)
	envBool("CASE_STRICT_TRANSITIONS", &cfg.Case.StrictTransitions)
	envBool("CASE_REVIEWER_CLOSED_WRITES", &cfg.Case.ReviewerClosedWrites)

	envInt("MAX_FILE_SIZE_MB", &cfg.Evidence.MaxFileSizeMB)
	envString("UPLOAD_DIR", &cfg.Evidence.UploadDir)
	envString("UPLOAD_PUBLIC_BASE_URL", &cfg.Evidence.PublicBaseURL)
	envString("S3_BUCKET", &cfg.Evidence.S3Bucket)
	envString("S3_ENDPOINT", &cfg.Evidence.S3Endpoint)
	envString("S3_REGION", &cfg.Evidence.S3Region)
	envString("S3_ACCESS_KEY_ID", &cfg.Evidence.S3AccessKeyID)
	envString("S3_SECRET_ACCESS_KEY", &cfg.Evidence.S3SecretAccessKey)
	envString("CLASSIFIER_URL", &cfg.Evidence.ClassifierURL)
	envString("CLASSIFIER_API_KEY", &cfg.Evidence.ClassifierAPIKey)
	envDuration("CLASSIFIER_TIMEOUT", &cfg.Evidence.ClassifierTimeout)
	envInt("EVIDENCE_WORKERS", &cfg.Evidence.Workers)
	envInt("EVIDENCE_QUEUE_SIZE", &cfg.Evidence.QueueSize)

	envBool("DISABLE_RATE_LIMITING", &cfg.RateLimit.Disabled)
	envInt("MESSAGES_RATE_LIMIT_PER_MINUTE", &cfg.RateLimit.MessagesPerMinute)

	envString("ASSIST_URL", &cfg.Assist.URL)
	envString("ASSIST_API_KEY", &cfg.Assist.APIKey)

	envString("SMS_GATEWAY_URL", &cfg.Alert.URL)
	envString("SMS_ACCOUNT_SID", &cfg.Alert.AccountSID)
	envString("SMS_AUTH_TOKEN", &cfg.Alert.AuthToken)
	envString("SMS_FROM", &cfg.Alert.From)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
