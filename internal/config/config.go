package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port         int
	MasterSecret string
	GinMode      string
	TLSCertFile  string
	TLSKeyFile   string
	TokenExpiry  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// StoreTimeout bounds every call into redis and the user directory.
	StoreTimeout time.Duration
	OTPTTL       time.Duration

	LogLevel  string
	LogFormat string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

type Env interface {
	Getenv(key string) string
}

type osEnv struct{}

func (osEnv) Getenv(key string) string { return os.Getenv(key) }

func LoadConfig() (Config, error) {
	return LoadConfigFromEnv(osEnv{})
}

func LoadConfigFromEnv(env Env) (Config, error) {
	cfg := Config{
		Port:         3000,
		GinMode:      "release",
		TokenExpiry:  7 * 24 * time.Hour,
		RedisAddr:    "localhost:6379",
		StoreTimeout: 2 * time.Second,
		OTPTTL:       5 * time.Minute,
		SMTPPort:     587,
	}

	if raw := env.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("invalid PORT")
		}
		cfg.Port = port
	}

	cfg.MasterSecret = env.Getenv("MASTER_SECRET")
	if cfg.MasterSecret == "" {
		return Config{}, fmt.Errorf("MASTER_SECRET is required")
	}

	if raw := env.Getenv("GIN_MODE"); raw != "" {
		cfg.GinMode = raw
	}

	cfg.TLSCertFile = env.Getenv("TLS_CERT_FILE")
	cfg.TLSKeyFile = env.Getenv("TLS_KEY_FILE")

	if raw := env.Getenv("TOKEN_EXPIRY_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("invalid TOKEN_EXPIRY_SECONDS")
		}
		cfg.TokenExpiry = time.Duration(seconds) * time.Second
	}

	if raw := env.Getenv("REDIS_ADDR"); raw != "" {
		cfg.RedisAddr = raw
	}
	cfg.RedisPassword = env.Getenv("REDIS_PASSWORD")
	if raw := env.Getenv("REDIS_DB"); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil || db < 0 {
			return Config{}, fmt.Errorf("invalid REDIS_DB")
		}
		cfg.RedisDB = db
	}

	if raw := env.Getenv("STORE_TIMEOUT_MS"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms <= 0 {
			return Config{}, fmt.Errorf("invalid STORE_TIMEOUT_MS")
		}
		cfg.StoreTimeout = time.Duration(ms) * time.Millisecond
	}

	if raw := env.Getenv("OTP_TTL_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("invalid OTP_TTL_SECONDS")
		}
		cfg.OTPTTL = time.Duration(seconds) * time.Second
	}

	cfg.LogLevel = env.Getenv("LOG_LEVEL")
	cfg.LogFormat = env.Getenv("LOG_FORMAT")

	cfg.SMTPHost = env.Getenv("SMTP_HOST")
	if raw := env.Getenv("SMTP_PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("invalid SMTP_PORT")
		}
		cfg.SMTPPort = port
	}
	cfg.SMTPUsername = env.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = env.Getenv("SMTP_PASSWORD")
	cfg.SMTPFrom = env.Getenv("SMTP_FROM")

	return cfg, nil
}
