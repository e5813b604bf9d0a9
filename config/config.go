package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	WebRTC     WebRTCConfig
	AWS        AWSConfig
	Engagement EngagementConfig
	Health     HealthConfig
	Wallet     WalletConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// WebRTCConfig holds STUN/TURN ICE server URLs for WebRTC.
type WebRTCConfig struct {
	ICEUrls []string // e.g. stun:stun.l.google.com:19302 (comma-separated in env)
}

// AWSConfig holds AWS credentials and the gift icon bucket.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	GiftIconsBucket      string
	PresignExpireMinutes int
}

// EngagementConfig tunes the synthetic engagement generator. The exact
// distribution is demo tuning, so everything lives in the environment.
type EngagementConfig struct {
	MinIntervalMS  int
	MaxIntervalMS  int
	ChatWeight     int
	FollowWeight   int
	GiftWeight     int
	PollVoteWeight int
	TranscriptCap  int
	TopGifters     int
	Seed           int64 // 0 = time-seeded; set for reproducible demo runs
}

// HealthConfig bounds the synthetic stream telemetry jitter.
type HealthConfig struct {
	BitrateMin int
	BitrateMax int
	FPSMin     int
	FPSMax     int
}

// WalletConfig holds the coin wallet defaults.
type WalletConfig struct {
	StartingBalance int64
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	readTimeout, _ := strconv.Atoi(getEnv("READ_TIMEOUT_SEC", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("WRITE_TIMEOUT_SEC", "30"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	jwtExpire, _ := strconv.Atoi(getEnv("JWT_EXPIRE_HOURS", "24"))
	seed, _ := strconv.ParseInt(getEnv("ENGAGEMENT_SEED", "0"), 10, 64)
	startingBalance, _ := strconv.ParseInt(getEnv("WALLET_STARTING_BALANCE", "500"), 10, 64)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        readTimeout,
			WriteTimeout:       writeTimeout,
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", "postgres://localhost:5432/vidora?sslmode=disable"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "vidora"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: jwtExpire,
		},
		WebRTC: WebRTCConfig{
			ICEUrls: splitTrim(getEnv("WEBRTC_ICE_URLS", "stun:stun.l.google.com:19302"), ","),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", ""),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			GiftIconsBucket:      getEnv("AWS_S3_GIFT_ICONS_BUCKET", "vidora-gift-icons"),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		Engagement: EngagementConfig{
			MinIntervalMS:  getEnvInt("ENGAGEMENT_MIN_INTERVAL_MS", 3500),
			MaxIntervalMS:  getEnvInt("ENGAGEMENT_MAX_INTERVAL_MS", 5500),
			ChatWeight:     getEnvInt("ENGAGEMENT_CHAT_WEIGHT", 70),
			FollowWeight:   getEnvInt("ENGAGEMENT_FOLLOW_WEIGHT", 10),
			GiftWeight:     getEnvInt("ENGAGEMENT_GIFT_WEIGHT", 10),
			PollVoteWeight: getEnvInt("ENGAGEMENT_POLL_VOTE_WEIGHT", 10),
			TranscriptCap:  getEnvInt("ENGAGEMENT_TRANSCRIPT_CAP", 18),
			TopGifters:     getEnvInt("ENGAGEMENT_TOP_GIFTERS", 3),
			Seed:           seed,
		},
		Health: HealthConfig{
			BitrateMin: getEnvInt("HEALTH_BITRATE_MIN", 2700),
			BitrateMax: getEnvInt("HEALTH_BITRATE_MAX", 3000),
			FPSMin:     getEnvInt("HEALTH_FPS_MIN", 58),
			FPSMax:     getEnvInt("HEALTH_FPS_MAX", 60),
		},
		Wallet: WalletConfig{
			StartingBalance: startingBalance,
		},
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, sep) {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
