package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"butterfly/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	API        APIConfig        `yaml:"api"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Bookings   BookingsConfig   `yaml:"bookings"`
	Menu       MenuConfig       `yaml:"menu"`
	Notify     NotifyConfig     `yaml:"notify"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Events     EventsConfig     `yaml:"events"`
	Google     GoogleConfig     `yaml:"google"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type APIConfig struct {
	HTTP        APIHTTPConfig      `yaml:"http"`
	GRPC        APIGRPCConfig      `yaml:"grpc"`
	Auth        APIAuthConfig      `yaml:"auth"`
	RateLimit   APIRateLimitConfig `yaml:"rate_limit"`
	CORS        APICORSConfig      `yaml:"cors"`
	PingMessage string             `yaml:"ping_message"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIGRPCConfig struct {
	Enabled bool         `yaml:"enabled"`
	Port    int          `yaml:"port"`
	TLS     APITLSConfig `yaml:"tls"`
}

type APITLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type APICORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig selects the store backend: an empty Path keeps everything in memory.
type DatabaseConfig struct {
	Path   string       `yaml:"path"`
	Backup BackupConfig `yaml:"backup"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Interval      string `yaml:"interval"`
	StoragePath   string `yaml:"storage_path"`
	RetentionDays int    `yaml:"retention_days"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BookingsConfig struct {
	StrictTransitions bool `yaml:"strict_transitions"`
	SubmissionLimit   int  `yaml:"submission_limit"`
	SubmissionWindow  int  `yaml:"submission_window"`
}

func (b BookingsConfig) Window() time.Duration {
	return time.Duration(b.SubmissionWindow) * time.Second
}

type MenuConfig struct {
	SeedPath string `yaml:"seed_path"`
}

type NotifyConfig struct {
	RestaurantName     string `yaml:"restaurant_name"`
	ContactPhone       string `yaml:"contact_phone"`
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
	Workers            int    `yaml:"workers"`
	QueueSize          int    `yaml:"queue_size"`
	SMSWebhookURL      string `yaml:"sms_webhook_url"`
	WhatsAppWebhookURL string `yaml:"whatsapp_webhook_url"`
	WebhookToken       string `yaml:"webhook_token"`
}

func (n NotifyConfig) Timeout() time.Duration {
	return time.Duration(n.TimeoutSeconds) * time.Second
}

type TelegramConfig struct {
	BotToken       string  `yaml:"bot_token"`
	ManagerChatIDs []int64 `yaml:"manager_chat_ids"`
	ManagerBot     bool    `yaml:"manager_bot"`
	Debug          bool    `yaml:"debug"`
}

type EventsConfig struct {
	AMQPURL  string `yaml:"amqp_url"`
	Exchange string `yaml:"exchange"`
}

type GoogleConfig struct {
	GoogleCredentialsFile string `yaml:"credentials_file"`
	BookingSpreadSheetID  string `yaml:"bookings_spreadsheet_id"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

func Load(configPath string) (*Config, error) {
	// .env необязателен: в контейнере переменные приходят из окружения
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.API.HTTP.Port < 0 || c.API.HTTP.Port > 65535 {
		return fmt.Errorf("invalid api.http.port %d", c.API.HTTP.Port)
	}

	if c.API.Auth.Enabled {
		if len(c.API.Auth.APIKeys) == 0 {
			return errors.New("api.auth.enabled requires at least one api key")
		}
		for _, k := range c.API.Auth.APIKeys {
			if k.Key == "" || k.Extra == "" {
				return fmt.Errorf("api key %q must define key and extra", k.Name)
			}
		}
	}

	if c.API.GRPC.TLS.Enabled && (c.API.GRPC.TLS.CertFile == "" || c.API.GRPC.TLS.KeyFile == "") {
		return errors.New("grpc tls enabled but cert_file/key_file not set")
	}

	if c.Database.Backup.Enabled {
		if c.Database.Path == "" {
			return errors.New("database.backup requires database.path")
		}
		if _, err := time.ParseDuration(c.Database.Backup.Interval); err != nil {
			return fmt.Errorf("invalid database.backup.interval: %w", err)
		}
	}

	if c.Telegram.ManagerBot && (c.Telegram.BotToken == "" || len(c.Telegram.ManagerChatIDs) == 0) {
		return errors.New("telegram.manager_bot requires bot_token and manager_chat_ids")
	}

	if c.Bookings.SubmissionLimit < 0 {
		return errors.New("bookings.submission_limit must not be negative")
	}

	if (c.Google.GoogleCredentialsFile == "") != (c.Google.BookingSpreadSheetID == "") {
		return errors.New("google.credentials_file and google.bookings_spreadsheet_id must be set together")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "butterfly"
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.GRPC.Enabled && c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 8081
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}
	if len(c.API.CORS.AllowedOrigins) == 0 {
		c.API.CORS.AllowedOrigins = []string{"*"}
	}
	if c.API.PingMessage == "" {
		c.API.PingMessage = "ping"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Database.Backup.Interval == "" {
		c.Database.Backup.Interval = "24h"
	}
	if c.Database.Backup.StoragePath == "" {
		c.Database.Backup.StoragePath = "backups"
	}

	if c.Bookings.SubmissionWindow == 0 {
		c.Bookings.SubmissionWindow = models.DefaultSubmissionWindow
	}
	if c.Menu.SeedPath == "" {
		c.Menu.SeedPath = "configs/menu.yaml"
	}

	// Notify defaults
	if c.Notify.RestaurantName == "" {
		c.Notify.RestaurantName = models.DefaultRestaurantName
	}
	if c.Notify.ContactPhone == "" {
		c.Notify.ContactPhone = models.DefaultContactPhone
	}
	if c.Notify.TimeoutSeconds == 0 {
		c.Notify.TimeoutSeconds = models.DefaultNotifyTimeout
	}
	if c.Notify.Workers == 0 {
		c.Notify.Workers = 2
	}
	if c.Notify.QueueSize == 0 {
		c.Notify.QueueSize = models.WorkerQueueSize
	}

	if c.Events.Exchange == "" {
		c.Events.Exchange = "butterfly"
	}
}

// ValidateMenu checks a menu seed before it is loaded into the store.
func ValidateMenu(items []models.MenuItem) error {
	names := make(map[string]bool)
	for i, item := range items {
		if item.Name == "" || item.Description == "" || item.Category == "" || item.Price == 0 {
			return fmt.Errorf("menu item #%d (%q) must define name, description, price and category", i+1, item.Name)
		}
		if names[item.Name] {
			return fmt.Errorf("duplicate menu item name: %s", item.Name)
		}
		names[item.Name] = true
	}
	return nil
}
