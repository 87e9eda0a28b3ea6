package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is built once in main and passed by reference to every component.
// Nothing below the router reads the environment directly.
type Config struct {
	Env  string
	Port string

	MongoURI     string
	DatabaseName string

	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration

	CookieDomain   string
	AllowedOrigins []string

	Media MediaConfig
}

// MediaConfig selects and credentials the object-store backend.
// Provider is "gcs" or "r2".
type MediaConfig struct {
	Provider string

	GCSBucket          string
	GCSCredentialsFile string

	R2Bucket       string
	R2AccessKeyID  string
	R2SecretKey    string
	R2Endpoint     string
	R2PublicDomain string

	MaxUploadBytes int64
	AllowedExts    []string
	AllowedMimes   []string
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:  getEnv("APP_ENV", "development"),
		Port: getEnv("PORT", "8080"),

		MongoURI:     os.Getenv("MONGODB_URI"),
		DatabaseName: getEnv("DATABASE_NAME", "vidtube"),

		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		AccessTokenTTL:     time.Duration(getEnvAsInt("ACCESS_TOKEN_TTL_MINUTES", 15)) * time.Minute,
		RefreshTokenTTL:    time.Duration(getEnvAsInt("REFRESH_TOKEN_TTL_DAYS", 14)) * 24 * time.Hour,

		CookieDomain:   os.Getenv("COOKIE_DOMAIN"),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),

		Media: MediaConfig{
			Provider: getEnv("MEDIA_PROVIDER", "gcs"),

			GCSBucket:          os.Getenv("GCS_BUCKET"),
			GCSCredentialsFile: os.Getenv("CREDENTIALS_FILE_LOCATION"),

			R2Bucket:       os.Getenv("R2_BUCKET"),
			R2AccessKeyID:  os.Getenv("R2_ACCESS_KEY_ID"),
			R2SecretKey:    os.Getenv("R2_SECRET_ACCESS_KEY"),
			R2Endpoint:     os.Getenv("R2_ENDPOINT"),
			R2PublicDomain: strings.TrimRight(os.Getenv("R2_PUBLIC_DOMAIN"), "/"),

			MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_SIZE_MB", 5)) << 20,
			AllowedExts:    splitListDefault(os.Getenv("ALLOWED_FILE_EXTENSIONS"), []string{".jpg", ".jpeg", ".png", ".webp"}),
			AllowedMimes:   splitListDefault(os.Getenv("ALLOWED_FILE_MIME_TYPES"), []string{"image/jpeg", "image/png", "image/webp"}),
		},
	}

	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("missing MONGODB_URI")
	}
	if cfg.AccessTokenSecret == "" || cfg.RefreshTokenSecret == "" {
		return nil, fmt.Errorf("missing ACCESS_TOKEN_SECRET or REFRESH_TOKEN_SECRET")
	}
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return nil, fmt.Errorf("access and refresh token secrets must differ")
	}

	switch cfg.Media.Provider {
	case "gcs":
		if cfg.Media.GCSBucket == "" {
			return nil, fmt.Errorf("missing GCS_BUCKET")
		}
	case "r2":
		if cfg.Media.R2Bucket == "" || cfg.Media.R2AccessKeyID == "" ||
			cfg.Media.R2SecretKey == "" || cfg.Media.R2Endpoint == "" {
			return nil, fmt.Errorf("missing R2 env vars (R2_BUCKET, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY, R2_ENDPOINT)")
		}
	default:
		return nil, fmt.Errorf("unknown MEDIA_PROVIDER %q (want gcs or r2)", cfg.Media.Provider)
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func splitList(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func splitListDefault(raw string, def []string) []string {
	list := splitList(strings.ToLower(raw))
	if len(list) == 0 {
		return def
	}
	return list
}
