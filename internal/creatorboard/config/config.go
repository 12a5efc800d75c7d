package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	HttpPort   string        `yaml:"http_port" env:"HTTP_PORT" env-default:"8080"`
	LogLevel   string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	JWTSecret  string        `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"creatorboard-dev-secret"`
	SessionTTL time.Duration `yaml:"session_ttl" env:"SESSION_TTL" env-default:"72h"`

	Storage StorageConfig `yaml:"storage"`
	Admin   AdminConfig   `yaml:"admin"`
}

// StorageConfig selects the snapshot backend. Mode "redis" keeps collection
// snapshots in redis, "memory" keeps them in process only.
type StorageConfig struct {
	Mode          string `yaml:"mode" env:"STORAGE_MODE" env-default:"redis"`
	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD" env-default:""`
	RedisDB       int    `yaml:"redis_db" env:"REDIS_DB" env-default:"0"`
}

// AdminConfig is the bootstrap admin credential pair. Login with this pair
// always succeeds and reinstalls the admin record if storage lost it.
type AdminConfig struct {
	Name     string `yaml:"name" env:"ADMIN_NAME" env-default:"System Admin"`
	Email    string `yaml:"email" env:"ADMIN_EMAIL" env-default:"admin@agency.com"`
	Password string `yaml:"password" env:"ADMIN_PASSWORD" env-default:"admin123"`
}

func MustLoad() *Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	cfg := &Config{}
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			panic(err)
		}
		return cfg
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		panic(err)
	}
	return cfg
}
