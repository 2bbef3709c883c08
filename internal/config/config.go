package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env           string `yaml:"env" env:"ENV" env-default:"local"`
	StoragePath   string `yaml:"storage_path" env:"STORAGE_PATH" env-required:"true"`
	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	HTTPServer    `yaml:"http_server"`
	SlotLimits    `yaml:"slot_limits"`
	BusinessHours `yaml:"business_hours"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env-default:"localhost:8080"`
	Timeout         time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
}

// SlotLimits are the fallback capacity ceilings used when the settings
// store has no values configured.
type SlotLimits struct {
	Staff  int `yaml:"staff" env-default:"3"`
	Portal int `yaml:"portal" env-default:"1"`
}

// BusinessHours describes which start times are offered at all. The last
// slot starts so that it ends at or before Close.
type BusinessHours struct {
	Open            string `yaml:"open" env-default:"09:00"`
	Close           string `yaml:"close" env-default:"18:00"`
	IntervalMinutes int    `yaml:"interval_minutes" env-default:"30"`
}

func MustLoad() *Config {
	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("Config file does not exist: %s", configPath)
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}

	return &cfg
}
