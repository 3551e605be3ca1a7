package app

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is assembled from environment variables. Every knob has a sane
// default for local development; production deployments set them explicitly.
type Config struct {
	HTTPAddr string

	DBPath    string
	RedisAddr string

	PepperFile    string
	CipherKeyFile string

	JWTIssuer  string
	JWTKeyID   string
	SessionTTL time.Duration

	LinkSecretTTL time.Duration
	LinkBizKey    string

	CredentialQuota int

	// BootstrapToken guards first-admin provisioning; empty disables it.
	BootstrapToken string

	LogLevel  string
	LogFormat string
	Env       string
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (Config, error) {
	cfg := Config{
		HTTPAddr:       envOr("HTTP_ADDR", ":8080"),
		DBPath:         envOr("DB_PATH", "tenauth.db"),
		RedisAddr:      envOr("REDIS_ADDR", "localhost:6379"),
		PepperFile:     envOr("PEPPER_FILE", "data/pepper"),
		CipherKeyFile:  envOr("CIPHER_KEY_FILE", "data/cipher.key"),
		JWTIssuer:      envOr("JWT_ISSUER", "tenauth"),
		JWTKeyID:       envOr("JWT_KEY_ID", "tenauth-1"),
		LinkBizKey:     envOr("LINK_BIZ_KEY", "signin"),
		BootstrapToken: os.Getenv("BOOTSTRAP_TOKEN"),
		LogLevel:       envOr("LOG_LEVEL", "info"),
		LogFormat:      envOr("LOG_FORMAT", "json"),
		Env:            envOr("ENV", "dev"),
	}

	var err error
	if cfg.SessionTTL, err = envDuration("SESSION_TTL", 30*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.LinkSecretTTL, err = envDuration("LINK_SECRET_TTL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.CredentialQuota, err = envInt("CRED_QUOTA_PER_TENANT", 3); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}
