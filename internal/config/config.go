package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config centraliza a configuração carregada do ambiente.
type Config struct {
	Port                 int
	RedisURL             string
	BackendOrigin        string
	PublicOrigin         string
	DashboardOrigin      string
	UploadAllowedOrigins []string
	UploadTimeout        time.Duration
	ProxyTimeout         time.Duration
	UploadMaxBytes       int64
	ProxyMaxBytes        int64
	SessionCookie        string
	SessionTTL           time.Duration
	AllowOrigins         []string
	RateLimitPublic      RateLimitConfig
	RateLimitAuth        RateLimitConfig
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load carrega variáveis de ambiente e aplica defaults seguros.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválida")
	}
	cfg.Port = port

	cfg.RedisURL = getEnv("REDIS_URL", "")
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL obrigatório")
	}

	if err := loadOrigins(cfg); err != nil {
		return nil, err
	}

	if cfg.UploadMaxBytes, err = parseBytesEnv("UPLOAD_MAX_BYTES", 100<<20); err != nil {
		return nil, err
	}
	if cfg.ProxyMaxBytes, err = parseBytesEnv("PROXY_MAX_BYTES", 10<<20); err != nil {
		return nil, err
	}

	cfg.SessionCookie = strings.TrimSpace(getEnv("SESSION_COOKIE", "painel_session"))
	if cfg.SessionCookie == "" {
		cfg.SessionCookie = "painel_session"
	}
	if cfg.SessionTTL, err = parseDurationEnv("SESSION_TTL", 12*time.Hour); err != nil {
		return nil, err
	}

	cfg.AllowOrigins = splitList(getEnv("ALLOW_ORIGINS", ""))

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 10, Burst: 20}
	cfg.RateLimitAuth = RateLimitConfig{RequestsPerSecond: 20, Burst: 60}

	return cfg, nil
}

// LoadClient carrega apenas origens e timeouts, para ferramentas que não abrem sessões.
func LoadClient() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := loadOrigins(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadOrigins(cfg *Config) error {
	var err error
	if cfg.BackendOrigin, err = parseOriginEnv("BACKEND_ORIGIN"); err != nil {
		return err
	}
	if cfg.PublicOrigin, err = parseOriginEnv("PUBLIC_ORIGIN"); err != nil {
		return err
	}

	// opcional no servidor; clientes externos usam como base do modo relayed
	if getEnv("DASHBOARD_ORIGIN", "") != "" {
		if cfg.DashboardOrigin, err = parseOriginEnv("DASHBOARD_ORIGIN"); err != nil {
			return err
		}
	}

	cfg.UploadAllowedOrigins = []string{cfg.BackendOrigin, cfg.PublicOrigin}
	if cfg.DashboardOrigin != "" {
		cfg.UploadAllowedOrigins = append(cfg.UploadAllowedOrigins, cfg.DashboardOrigin)
	}
	for _, origin := range splitList(getEnv("UPLOAD_ALLOWED_ORIGINS", "")) {
		cfg.UploadAllowedOrigins = append(cfg.UploadAllowedOrigins, strings.TrimRight(origin, "/"))
	}

	if cfg.UploadTimeout, err = parseDurationEnv("UPLOAD_TIMEOUT", 2*time.Minute); err != nil {
		return err
	}
	if cfg.ProxyTimeout, err = parseDurationEnv("PROXY_TIMEOUT", 30*time.Second); err != nil {
		return err
	}
	return nil
}

// DevCookies indica ambiente local (cookies sem Secure).
func (c *Config) DevCookies() bool {
	for _, origin := range c.AllowOrigins {
		if strings.Contains(origin, "localhost") {
			return true
		}
	}
	return false
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseOriginEnv(key string) (string, error) {
	val := strings.TrimSpace(getEnv(key, ""))
	if val == "" {
		return "", errors.New(key + " obrigatório")
	}
	u, err := url.Parse(val)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", errors.New(key + " deve ser uma URL http/https")
	}
	return strings.TrimRight(val, "/"), nil
}

func parseBytesEnv(key string, def int64) (int64, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil || n <= 0 {
		return 0, errors.New(key + " inválido")
	}
	return n, nil
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil || dur <= 0 {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}
