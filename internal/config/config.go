package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN       string `env:"DATABASE_DSN,required=true"`
	RedisURL          string `env:"REDIS_URL,required=true"`
	MailAPIURL        string `env:"MAIL_API_URL,required=true"`
	MailFrom          string `env:"MAIL_FROM,required=true"`
	BaseURL           string `env:"BASE_URL,required=true"`
	LabName           string `env:"LAB_NAME,default=Lab Manager"`
	LabTimezone       string `env:"LAB_TIMEZONE,default=Asia/Kolkata"`
	MailRatePerSec    int    `env:"MAIL_RATE_PER_SEC,default=10"`
	DispatchQueueSize int    `env:"DISPATCH_QUEUE_SIZE,default=1024"`
	APIPort           int    `env:"API_PORT,default=8080"`
	LogLevel          string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
