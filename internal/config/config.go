// Package config описывает настройки приложения и загружает их из YAML-файла
// с переопределением через переменные окружения.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/magabrotheeeer/course-membership/internal/models"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	HTTPServer              `yaml:"http_server"`
	RedisConnection         `yaml:"redis_connection"`
	JWTToken                `yaml:"jwttoken"`
	IPN                     `yaml:"ipn"`
	NOWPayments             `yaml:"nowpayments"`
	NewsAPI                 `yaml:"newsapi"`
	Course                  `yaml:"course"`
	RabbitMQ                `yaml:"rabbitmq"`
	SMTP                    `yaml:"smtp"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP    string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP    time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps" env-default:"5"`
	RateLimitBurst int           `yaml:"rate_limit_burst" env-default:"10"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis  string        `yaml:"addressredis" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	PasswordRedis string        `yaml:"password" env:"REDIS_PASSWORD"`
	UserRedis     string        `yaml:"user"`
	DB            int           `yaml:"db"`
	MaxRetries    int           `yaml:"max_retries" env-default:"3"`
	DialTimeout   time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis  time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY" env-required:"true"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// IPN настройки приёма уведомлений от платёжного провайдера.
type IPN struct {
	IPNSecret       string `yaml:"secret" env:"IPN_SECRET"`
	SignatureHeader string `yaml:"signature_header" env-default:"x-nowpayments-sig"`
	CallbackURL     string `yaml:"callback_url" env:"IPN_CALLBACK_URL"`
}

// NOWPayments настройки клиента платёжного провайдера.
type NOWPayments struct {
	PaymentsAPIKey  string        `yaml:"api_key" env:"NOWPAYMENTS_API_KEY"`
	PaymentsBaseURL string        `yaml:"base_url" env-default:"https://api.nowpayments.io"`
	SuccessURL      string        `yaml:"success_url"`
	CancelURL       string        `yaml:"cancel_url"`
	PaymentsTimeout time.Duration `yaml:"timeout" env-default:"10s"`
}

// NewsAPI настройки ленты новостей.
type NewsAPI struct {
	NewsAPIKey  string        `yaml:"api_key" env:"NEWSAPI_KEY"`
	NewsBaseURL string        `yaml:"base_url" env-default:"https://newsapi.org"`
	NewsQuery   string        `yaml:"query" env-default:"forex currency market"`
	NewsTTL     time.Duration `yaml:"ttl" env-default:"1h"`
	NewsTimeout time.Duration `yaml:"timeout" env-default:"10s"`
}

// Course ссылки на видео курса по тарифам.
type Course struct {
	VideoURLs map[string]string `yaml:"video_urls"`
}

// RabbitMQ настройки брокера сообщений.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// SMTP настройки почтового сервера для отправки уведомлений.
type SMTP struct {
	SMTPHost string `yaml:"host" env:"SMTP_HOST"`
	SMTPPort string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser string `yaml:"user" env:"SMTP_USER"`
	SMTPPass string `yaml:"pass" env:"SMTP_PASS"`
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load читает конфиг из файла, применяет переменные окружения и значения по умолчанию.
func Load(configPath string) (*Config, error) {
	const op = "config.Load"
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// CourseVideos возвращает ссылки на видео для допустимых тарифов.
// Ключи с неизвестным тарифом пропускаются.
func (c *Config) CourseVideos() map[models.Plan]string {
	videos := make(map[models.Plan]string, len(c.VideoURLs))
	for code, url := range c.VideoURLs {
		if plan, ok := models.ParsePlan(code); ok {
			videos[plan] = url
		}
	}
	return videos
}

// String печатает конфиг без секретов.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Redis:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"IPN:\n"+
			"  SecretSet: %t\n"+
			"  SignatureHeader: %s\n"+
			"  CallbackURL: %s\n"+
			"NOWPayments:\n"+
			"  BaseURL: %s\n"+
			"NewsAPI:\n"+
			"  BaseURL: %s\n"+
			"  TTL: %s\n"+
			"RabbitMQ:\n"+
			"  Enabled: %t\n",
		c.Env,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.AddressRedis,
		c.DB,
		c.IPNSecret != "",
		c.SignatureHeader,
		c.CallbackURL,
		c.PaymentsBaseURL,
		c.NewsBaseURL,
		c.NewsTTL,
		c.RabbitMQURL != "",
	)
}
