package config

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type (
	// Config represents an application configuration.
	Config struct {
		// The data source name (DSN) for connecting to the database.
		DSN string `yaml:"dsn" env:"DATABASE_URI"`
		// Subconfigs.
		HTTPServer HTTPServer `yaml:"http_server"`
		JWT        JWT        `yaml:"jwt"`
		Logger     Logger     `yaml:"logger"`
		Telegram   Telegram   `yaml:"telegram"`
		Finance    Finance    `yaml:"finance"`
		Export     Export     `yaml:"export"`
		// Cost of the password to hash. Must be greater than 3.
		PasswordHashCost int `yaml:"password_hash_cost" env-default:"14"`
	}
	// Config for HTTP server.
	HTTPServer struct {
		// The server startup address.
		Address string `yaml:"run_address" env:"RUN_ADDRESS" env-default:"127.0.0.1:8080"`
		// Read header timeout.
		Timeout time.Duration `yaml:"timeout" env-default:"5s"`
		// Idle timeout.
		IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
		// Shutdown timeout.
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"30s"`
	}
	// Config for application's logger.
	Logger struct {
		// Path to store log files.
		Path string `yaml:"path" env:"LOG_PATH"`
		// Application logging level.
		Level string `yaml:"level" env:"LOG_LEVEL"`
		// Log files details.
		MaxSizeMB  int `yaml:"max_size_mb"`
		MaxBackups int `yaml:"max_backups"`
		MaxAgeDays int `yaml:"max_age_days"`
	}
	// Config for JWT.
	JWT struct {
		// JWT signing key.
		SigningKey string `yaml:"signing_key" env:"JWT_SIGNING_KEY"`
		// JWT expiration.
		Expiration time.Duration `yaml:"expiration" env:"JWT_EXPIRATION" env-default:"24h"`
	}
	// Config for outbound Telegram notifications.
	Telegram struct {
		// Bot token. Empty disables delivery.
		BotToken string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
		// Bot API base URL.
		APIBase string `yaml:"api_base" env:"TELEGRAM_API_BASE" env-default:"https://api.telegram.org"`
		// Bot username, shown in referral links.
		BotUsername string `yaml:"bot_username" env:"TELEGRAM_BOT_USERNAME"`
		// Per-request timeout.
		Timeout time.Duration `yaml:"timeout" env-default:"5s"`
		// Minimal interval between outbound messages.
		SendInterval time.Duration `yaml:"send_interval" env-default:"50ms"`
		// Burst size for the outbound rate limiter.
		Burst int `yaml:"burst" env-default:"20"`
	}
	// Config for the financial policy.
	Finance struct {
		// Minimal withdrawal amount in whole currency units.
		MinWithdraw int64 `yaml:"min_withdraw" env:"MIN_WITHDRAW" env-default:"20000"`
	}
	// Config for the CSV export worker.
	Export struct {
		// Directory to write export files into.
		Dir string `yaml:"dir" env:"EXPORT_DIR" env-default:"./exports"`
		// Poll interval for pending jobs.
		Interval time.Duration `yaml:"interval" env-default:"10s"`
	}
)

// MustLoad returns an application configuration which is populated
// from the given configuration file and environment variables.
func MustLoad() *Config {
	// Configuration yaml file path.
	configPath := flag.String("config", "./config/local.yml", "path to the config file")
	flag.Parse()

	var cfg Config

	// Load from YAML cfg file if it exists.
	if _, err := os.Stat(*configPath); err == nil {
		f, err := os.Open(*configPath)
		if err != nil {
			log.Fatalf("failed to open config file: %s", *configPath)
		}
		defer f.Close()
		if err = cleanenv.ParseYAML(f, &cfg); err != nil {
			log.Fatalf("failed to parse config file: %s", *configPath)
		}
	}

	// Read environment variables.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("failed to read environment variables: %v", err)
	}

	return &cfg
}
