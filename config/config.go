package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type (
	APP struct {
		Name        string
		Host        string
		Port        string
		Env         string
		CORSOrigins []string
	}
	Security struct {
		JWTSecret     string
		JWTIssuer     string
		InternalToken string // base64, compared against X-Internal-Token
	}
	DB struct {
		User     string
		Password string
		Name     string
		Host     string
		Port     string
		SSLMode  string
		MaxConns int32
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
		UserTTL  time.Duration
	}
	MQ struct {
		User         string
		Password     string
		Vhost        string
		Host         string
		AmqpPort     string
		Exchange     string
		ExchangeType string
		QueueName    string
	}
	Hasher struct {
		BcryptCost int
	}

	Config struct {
		App      APP
		Security Security
		DB       DB
		Redis    Redis
		MQ       MQ
		Hasher   Hasher
	}
)

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return def
	}
	return d
}

func getEnvList(key string) []string {
	var out []string
	for _, s := range strings.Split(getEnv(key, ""), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func Load() Config {
	app := APP{
		Name:        getEnv("SERVICE_NAME", "userssvc"),
		Host:        getEnv("SERVICE_HOST", ""),
		Port:        getEnv("SERVICE_PORT", "8080"),
		Env:         getEnv("SERVICE_ENV", ""),
		CORSOrigins: getEnvList("SERVICE_CORS_ORIGINS"),
	}
	sec := Security{
		JWTSecret:     getEnv("SERVICE_JWT_SECRET", ""),
		JWTIssuer:     getEnv("SERVICE_JWT_ISSUER", ""),
		InternalToken: getEnv("SERVICE_INTERNAL_TOKEN", ""),
	}
	db := DB{
		User:     getEnv("POSTGRES_USER", ""),
		Password: getEnv("POSTGRES_PASSWORD", ""),
		Name:     getEnv("POSTGRES_DB", ""),
		Host:     getEnv("POSTGRES_HOST", ""),
		Port:     getEnv("POSTGRES_PORT", ""),
		SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		MaxConns: int32(getEnvInt("POSTGRES_MAX_CONNS", 10)),
	}
	redis := Redis{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
		UserTTL:  getEnvDuration("REDIS_USER_TTL", 5*time.Minute),
	}
	mq := MQ{
		User:         getEnv("RABBITMQ_USER", ""),
		Password:     getEnv("RABBITMQ_PASSWORD", ""),
		Vhost:        getEnv("RABBITMQ_VHOST", ""),
		Host:         getEnv("RABBITMQ_HOST", ""),
		AmqpPort:     getEnv("RABBITMQ_AMQP_PORT", ""),
		Exchange:     getEnv("RABBITMQ_EXCHANGE", "users"),
		ExchangeType: getEnv("RABBITMQ_EXCHANGE_TYPE", "direct"),
		QueueName:    getEnv("RABBITMQ_QUEUE_NAME", "users.events"),
	}
	hasher := Hasher{
		BcryptCost: getEnvInt("BCRYPT_COST", 10),
	}

	return Config{
		App:      app,
		Security: sec,
		DB:       db,
		Redis:    redis,
		MQ:       mq,
		Hasher:   hasher,
	}
}

// Validate rejects settings the service must not start with.
func (c Config) Validate() error {
	if c.Security.JWTSecret == "" {
		return errors.New("SERVICE_JWT_SECRET is required")
	}
	if c.Security.InternalToken != "" {
		if b, err := base64.StdEncoding.DecodeString(c.Security.InternalToken); err != nil || len(b) == 0 {
			return errors.New("SERVICE_INTERNAL_TOKEN must be base64")
		}
	}
	return nil
}

func (c Config) DBDSN() (string, error) {
	if c.DB.User == "" || c.DB.Name == "" || c.DB.Host == "" || c.DB.Port == "" {
		return "", fmt.Errorf("incomplete DB config")
	}
	return fmt.Sprintf(
		"postgres://%s@%s:%s/%s?sslmode=%s",
		url.UserPassword(c.DB.User, c.DB.Password).String(),
		c.DB.Host,
		c.DB.Port,
		c.DB.Name,
		url.QueryEscape(c.DB.SSLMode),
	), nil
}

func (c Config) AMQPDSN() (string, error) {
	if c.MQ.User == "" || c.MQ.Host == "" || c.MQ.AmqpPort == "" {
		return "", fmt.Errorf("invalid MQ config: user, host and amqp port are required")
	}

	return fmt.Sprintf(
		"%s://%s@%s:%s/%s",
		"amqp",
		url.UserPassword(c.MQ.User, c.MQ.Password).String(),
		c.MQ.Host,
		c.MQ.AmqpPort,
		url.PathEscape(c.MQ.Vhost),
	), nil
}

func (c Config) RedisEnabled() bool { return c.Redis.Addr != "" }
