package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr       string `mapstructure:"REDIS_ADDR"`
	RedisPassword   string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB    int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB    int    `mapstructure:"REDIS_QUEUE_DB"`
	RedisWaitListDB int    `mapstructure:"REDIS_WAITLIST_DB"`

	// Stripe card rail.
	StripeKey string `mapstructure:"STRIPE_KEY"`

	// Rate schedule.
	Currency                string  `mapstructure:"CURRENCY"`
	RateStandardHours       float64 `mapstructure:"RATE_STANDARD_HOURS"`
	RateAfterHours          float64 `mapstructure:"RATE_AFTER_HOURS"`
	RateWorkingDay          float64 `mapstructure:"RATE_WORKING_DAY"`
	AfterHoursStartMinute   int     `mapstructure:"AFTER_HOURS_START_MINUTE"`
	WorkingDayStartMinute   int     `mapstructure:"WORKING_DAY_START_MINUTE"`
	BillingIncrementMinutes int     `mapstructure:"BILLING_INCREMENT_MINUTES"`
	NextDayQualifier        string  `mapstructure:"NEXT_DAY_QUALIFIER"`
	PlatformFeeRate         float64 `mapstructure:"PLATFORM_FEE_RATE"`

	// Payment engine.
	ProviderTimeoutSeconds int     `mapstructure:"PROVIDER_TIMEOUT_SECONDS"`
	MaxTransientRetries    int     `mapstructure:"MAX_TRANSIENT_RETRIES"`
	MaxCancelAttempts      int     `mapstructure:"MAX_CANCEL_ATTEMPTS"`
	CaptureConcurrency     int     `mapstructure:"CAPTURE_CONCURRENCY"`
	TransferFeeTolerance   float64 `mapstructure:"TRANSFER_FEE_TOLERANCE"`

	// Wait-list retry coordinator.
	MaxPaymentAttempts     int    `mapstructure:"MAX_PAYMENT_ATTEMPTS"`
	ShortSlotThresholdMins int    `mapstructure:"SHORT_SLOT_THRESHOLD_MINUTES"`
	WaitListScanSchedule   string `mapstructure:"WAITLIST_SCAN_SCHEDULE"`

	// Worker queue.
	WorkerConcurrency int  `mapstructure:"WORKER_CONCURRENCY"`
	QueueEnabled      bool `mapstructure:"QUEUE_ENABLED"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("REDIS_WAITLIST_DB", 2)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("STRIPE_KEY", "")
	viper.SetDefault("CURRENCY", "EUR")
	viper.SetDefault("RATE_STANDARD_HOURS", 1.50)
	viper.SetDefault("RATE_AFTER_HOURS", 2.25)
	viper.SetDefault("RATE_WORKING_DAY", 1.80)
	viper.SetDefault("AFTER_HOURS_START_MINUTE", 22*60)
	viper.SetDefault("WORKING_DAY_START_MINUTE", 8*60)
	viper.SetDefault("BILLING_INCREMENT_MINUTES", 15)
	viper.SetDefault("NEXT_DAY_QUALIFIER", "WORKING_DAY")
	viper.SetDefault("PLATFORM_FEE_RATE", 0.15)
	viper.SetDefault("PROVIDER_TIMEOUT_SECONDS", 15)
	viper.SetDefault("MAX_TRANSIENT_RETRIES", 3)
	viper.SetDefault("MAX_CANCEL_ATTEMPTS", 3)
	viper.SetDefault("CAPTURE_CONCURRENCY", 4)
	viper.SetDefault("TRANSFER_FEE_TOLERANCE", 0.05)
	viper.SetDefault("MAX_PAYMENT_ATTEMPTS", 5)
	viper.SetDefault("SHORT_SLOT_THRESHOLD_MINUTES", 120)
	viper.SetDefault("WAITLIST_SCAN_SCHEDULE", "@every 1m")
	viper.SetDefault("WORKER_CONCURRENCY", 10)
	viper.SetDefault("QUEUE_ENABLED", true)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return AppConfig.Env == "production"
}
