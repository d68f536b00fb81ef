package config

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // TIPS_TIMEZONE must resolve in slim images

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// Everything is read from the environment; a local .env file is loaded first outside release mode.
type Config struct {
	Port                             string        `mapstructure:"PORT"`
	GinMode                          string        `mapstructure:"GIN_MODE"`
	FirebaseProjectID                string        `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string        `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string        `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	ClientURL                        string        `mapstructure:"CLIENT_URL"`
	RequestTimeout                   time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	// Razorpay. Plan ids and the webhook secret are optional at startup; the operations that need
	// them fail with an invalid-config error when they are absent.
	RazorpayKeyID         string `mapstructure:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret     string `mapstructure:"RAZORPAY_KEY_SECRET"`
	RazorpayPlanMonthly   string `mapstructure:"RAZORPAY_PLAN_MONTHLY"`
	RazorpayPlanYearly    string `mapstructure:"RAZORPAY_PLAN_YEARLY"`
	RazorpayWebhookSecret string `mapstructure:"RAZORPAY_WEBHOOK_SECRET"`

	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel  string `mapstructure:"GEMINI_MODEL"`

	// Redis backs webhook duplicate-delivery detection. Empty address disables it.
	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int           `mapstructure:"REDIS_DB"`
	WebhookDedupTTL time.Duration `mapstructure:"WEBHOOK_DEDUP_TTL"`

	TipsTotalDays int    `mapstructure:"TIPS_TOTAL_DAYS"`
	TipsCron      string `mapstructure:"TIPS_CRON"`
	TipsTimezone  string `mapstructure:"TIPS_TIMEZONE"`
	TipsTopic     string `mapstructure:"TIPS_TOPIC"`

	ChatNotificationTitle string `mapstructure:"CHAT_NOTIFICATION_TITLE"`
}

var envKeys = []string{
	"PORT",
	"GIN_MODE",
	"FIREBASE_PROJECT_ID",
	"GOOGLE_APPLICATION_CREDENTIALS",
	"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
	"CLIENT_URL",
	"REQUEST_TIMEOUT",
	"RAZORPAY_KEY_ID",
	"RAZORPAY_KEY_SECRET",
	"RAZORPAY_PLAN_MONTHLY",
	"RAZORPAY_PLAN_YEARLY",
	"RAZORPAY_WEBHOOK_SECRET",
	"GEMINI_API_KEY",
	"GEMINI_MODEL",
	"REDIS_ADDR",
	"REDIS_PASSWORD",
	"REDIS_DB",
	"WEBHOOK_DEDUP_TTL",
	"TIPS_TOTAL_DAYS",
	"TIPS_CRON",
	"TIPS_TIMEZONE",
	"TIPS_TOPIC",
	"CHAT_NOTIFICATION_TITLE",
}

// LoadConfig loads configuration from environment variables using Viper.
func LoadConfig() (*Config, error) {
	v := viper.New()
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("GIN_MODE")), "release") {
		// A missing .env is normal in CI and containers.
		if err := godotenv.Load(); err != nil {
			log.Printf("config: no .env file loaded: %v", err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("WEBHOOK_DEDUP_TTL", "24h")
	v.SetDefault("TIPS_TOTAL_DAYS", 30)
	v.SetDefault("TIPS_CRON", "0 9 * * *")
	v.SetDefault("TIPS_TIMEZONE", "Asia/Kolkata")
	v.SetDefault("TIPS_TOPIC", "daily_tips")
	v.SetDefault("CHAT_NOTIFICATION_TITLE", "✅ Reply by Dr.Kanhaiya for you")

	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, errors.New("failed to bind env " + key + ": " + err.Error())
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields every binary needs to start.
func (c *Config) Validate() error {
	if c.FirebaseProjectID == "" {
		return errors.New("FIREBASE_PROJECT_ID is required")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	if c.TipsTotalDays < 1 {
		return errors.New("TIPS_TOTAL_DAYS must be at least 1")
	}
	if c.WebhookDedupTTL <= 0 {
		return errors.New("WEBHOOK_DEDUP_TTL must be positive")
	}
	if _, err := time.LoadLocation(c.TipsTimezone); err != nil {
		return errors.New("TIPS_TIMEZONE is not a valid IANA zone: " + err.Error())
	}
	return nil
}

// IsRelease reports whether gin should run in release mode.
func (c *Config) IsRelease() bool {
	return strings.EqualFold(c.GinMode, "release")
}
