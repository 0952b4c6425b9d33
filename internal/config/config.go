package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Content
	ContentDir          string
	PublicDir           string
	GlossaryPath        string
	GlossaryAnchorsPath string

	// Site access gate
	SitePassword   string
	SessionKeys    []string
	AuthCookieName string
	AuthMaxAge     time.Duration
	CookieSecure   bool

	// Admin API (manuscript import, stats)
	AdminAPIKey string

	// Teaching assistant
	AnthropicAPIKey   string
	AnthropicModel    string
	ChatMaxTokens     int
	ChatContextTokens int

	// Contact form
	ResendAPIKey      string
	ContactFrom       string
	ContactRecipients []string

	// Rate limiting for auth, chat and contact
	RateLimitInterval time.Duration
	RateLimitBurst    int
	TrustProxyHeaders bool

	RenderCacheSize int

	// Import worker pool
	WorkerCount    int
	MaxQueueSize   int
	MaxUploadBytes int64
	JobTTL         time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "3000"),

		ContentDir:          envOr("CONTENT_DIR", "content/chapters"),
		PublicDir:           envOr("PUBLIC_DIR", "public"),
		GlossaryPath:        envOr("GLOSSARY_PATH", "content/glossary.json"),
		GlossaryAnchorsPath: envOr("GLOSSARY_ANCHORS_PATH", "content/glossary-anchors.json"),

		SitePassword:   os.Getenv("SITE_PASSWORD"),
		SessionKeys:    envList("SESSION_KEYS"),
		AuthCookieName: envOr("AUTH_COOKIE_NAME", "hdistro_auth"),
		AuthMaxAge:     envDuration("AUTH_MAX_AGE", 30*24*time.Hour),
		CookieSecure:   envBool("COOKIE_SECURE", false),

		AdminAPIKey: os.Getenv("ADMIN_API_KEY"),

		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:    envOr("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		ChatMaxTokens:     envInt("CHAT_MAX_TOKENS", 1024),
		ChatContextTokens: envInt("CHAT_CONTEXT_TOKENS", 60000),

		ResendAPIKey:      os.Getenv("RESEND_API_KEY"),
		ContactFrom:       envOr("CONTACT_FROM", "Hotel Distribution <noreply@hoteldistro.com>"),
		ContactRecipients: envList("CONTACT_RECIPIENTS"),

		RateLimitInterval: envDuration("RATE_LIMIT_INTERVAL", 3*time.Second),
		RateLimitBurst:    envInt("RATE_LIMIT_BURST", 10),
		TrustProxyHeaders: envBool("TRUST_PROXY_HEADERS", false),

		RenderCacheSize: envInt("RENDER_CACHE_SIZE", 64),

		WorkerCount:    envInt("WORKER_COUNT", 2),
		MaxQueueSize:   envInt("MAX_QUEUE_SIZE", 20),
		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB
		JobTTL:         envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.AuthMaxAge <= 0 {
		cfg.AuthMaxAge = 30 * 24 * time.Hour
	}
	if cfg.ChatMaxTokens <= 0 {
		cfg.ChatMaxTokens = 1024
	}
	if cfg.ChatContextTokens < 0 {
		cfg.ChatContextTokens = 0
	}
	if cfg.RateLimitInterval <= 0 {
		cfg.RateLimitInterval = 3 * time.Second
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 10
	}
	if cfg.RenderCacheSize <= 0 {
		cfg.RenderCacheSize = 64
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 20
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.ContentDir == "" {
		return fmt.Errorf("CONTENT_DIR is required")
	}
	if info, err := os.Stat(c.ContentDir); err != nil || !info.IsDir() {
		return fmt.Errorf("CONTENT_DIR %q is not a directory", c.ContentDir)
	}
	if c.AdminAPIKey != "" && len(c.AdminAPIKey) < 16 {
		return fmt.Errorf("ADMIN_API_KEY must be at least 16 characters")
	}
	for _, k := range c.SessionKeys {
		if len(k) < 32 {
			return fmt.Errorf("SESSION_KEYS entries must be at least 32 characters")
		}
	}
	return nil
}

// ChatEnabled reports whether the teaching assistant can reach its provider.
func (c Config) ChatEnabled() bool {
	return c.AnthropicAPIKey != ""
}

// AdminEnabled reports whether the admin API is mounted.
func (c Config) AdminEnabled() bool {
	return c.AdminAPIKey != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList splits a comma-separated variable, dropping blank entries.
func envList(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
