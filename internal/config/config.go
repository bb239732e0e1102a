package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config はサーバーの設定です。環境変数と .env、任意の YAML ファイルから読み込みます。
type Config struct {
	Addr      string `yaml:"addr"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// CredentialFile は保存済み API キーのパスです。空ならユーザー設定ディレクトリを使います。
	CredentialFile string `yaml:"credential_file"`

	FastImageModel         string `yaml:"fast_image_model"`
	HighFidelityImageModel string `yaml:"high_fidelity_image_model"`
	VideoModel             string `yaml:"video_model"`

	HTTPTimeout    time.Duration `yaml:"http_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// VideoRequestTimeout は動画 API だけに適用する上限です。0 なら無制限。
	VideoRequestTimeout time.Duration `yaml:"video_request_timeout"`

	PollInterval    time.Duration `yaml:"poll_interval"`
	PollMaxAttempts int           `yaml:"poll_max_attempts"`
	PollBackoff     float64       `yaml:"poll_backoff"`
	PollMaxInterval time.Duration `yaml:"poll_max_interval"`

	BatchConcurrency int `yaml:"batch_concurrency"`
	BatchMaxCount    int `yaml:"batch_max_count"`

	// AttachmentMaxBytes を超える添付画像は JPEG に再圧縮されます。
	AttachmentMaxBytes int  `yaml:"attachment_max_bytes"`
	AllowLocalFiles    bool `yaml:"allow_local_files"`
	EnableGCS          bool `yaml:"enable_gcs"`
}

// Load は .env を読み込んだうえで設定を組み立てます。
// CONFIG_FILE が指定されていれば、その YAML の値で上書きします。
func Load() (Config, error) {
	// ファイルが無くてもエラーにしない
	_ = godotenv.Load(".env", ".env.local")

	cfg := Config{
		Addr:                   getEnv("ADDR", ":8080"),
		LogLevel:               strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:              strings.ToLower(getEnv("LOG_FORMAT", "text")),
		CredentialFile:         getEnv("CREDENTIAL_FILE", ""),
		FastImageModel:         getEnv("FAST_IMAGE_MODEL", ""),
		HighFidelityImageModel: getEnv("HIGH_FIDELITY_IMAGE_MODEL", ""),
		VideoModel:             getEnv("VIDEO_MODEL", ""),
		HTTPTimeout:            getEnvDuration("HTTP_TIMEOUT", 60*time.Second),
		RequestTimeout:         getEnvDuration("REQUEST_TIMEOUT", 15*time.Minute),
		VideoRequestTimeout:    getEnvDuration("VIDEO_REQUEST_TIMEOUT", 0),
		PollInterval:           getEnvDuration("POLL_INTERVAL", 10*time.Second),
		PollMaxAttempts:        getEnvInt("POLL_MAX_ATTEMPTS", 0),
		PollBackoff:            getEnvFloat("POLL_BACKOFF", 1),
		PollMaxInterval:        getEnvDuration("POLL_MAX_INTERVAL", 0),
		BatchConcurrency:       getEnvInt("BATCH_CONCURRENCY", 1),
		BatchMaxCount:          getEnvInt("BATCH_MAX_COUNT", 8),
		AttachmentMaxBytes:     getEnvInt("ATTACHMENT_MAX_BYTES", 4<<20),
		AllowLocalFiles:        getEnvBool("ALLOW_LOCAL_FILES", false),
		EnableGCS:              getEnvBool("ENABLE_GCS", false),
	}

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.overlay(path); err != nil {
			return Config{}, err
		}
	}

	cfg.normalize()
	return cfg, nil
}

// overlay は YAML ファイルに書かれた項目だけを上書きします。
func (c *Config) overlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("設定ファイルを読み込めませんでした: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("設定ファイルの形式が不正です (%s): %w", path, err)
	}
	return nil
}

func (c *Config) normalize() {
	if c.BatchConcurrency < 1 {
		c.BatchConcurrency = 1
	}
	if c.BatchMaxCount < 1 {
		c.BatchMaxCount = 1
	}
	if c.PollMaxAttempts < 0 {
		c.PollMaxAttempts = 0
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 60 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 10 * time.Second
	}
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// getEnvDuration は "90s" のような Duration 表記と、秒数だけの整数表記の両方を受け付けます。
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
