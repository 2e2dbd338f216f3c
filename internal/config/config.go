package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// EmptyTextPolicy controls what happens when a text message arrives with
// an empty body: forward it to intent detection anyway, or skip the event.
type EmptyTextPolicy string

const (
	EmptyTextForward EmptyTextPolicy = "forward"
	EmptyTextSkip    EmptyTextPolicy = "skip"
)

// Dedup backends.
const (
	DedupMemory = "memory"
	DedupRedis  = "redis"
)

type (
	AppCfg struct {
		Name string `mapstructure:"name"`
		Env  string `mapstructure:"env"`
	}
	ServerCfg struct {
		Port         int           `mapstructure:"port"`
		ReadTimeout  time.Duration `mapstructure:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
		IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	}
	WebhookCfg struct {
		VerifyToken  string          `mapstructure:"verify_token"`
		MaxBodyBytes int64           `mapstructure:"max_body_bytes"`
		OnEmptyText  EmptyTextPolicy `mapstructure:"on_empty_text"`
	}
	IntentCfg struct {
		Endpoint string        `mapstructure:"endpoint"`
		Project  string        `mapstructure:"project"`
		Language string        `mapstructure:"language"`
		Timeout  time.Duration `mapstructure:"timeout"`
	}
	DeliveryCfg struct {
		Endpoint      string        `mapstructure:"endpoint"`
		PhoneNumberID string        `mapstructure:"phone_number_id"`
		Token         string        `mapstructure:"token"`
		Timeout       time.Duration `mapstructure:"timeout"`
	}
	DedupCfg struct {
		Backend  string        `mapstructure:"backend"`
		Capacity int           `mapstructure:"capacity"`
		TTL      time.Duration `mapstructure:"ttl"`
	}
	RedisCfg struct {
		Addr string `mapstructure:"addr"`
		DB   int    `mapstructure:"db"`
	}
	Config struct {
		App      AppCfg      `mapstructure:"app"`
		Server   ServerCfg   `mapstructure:"server"`
		Webhook  WebhookCfg  `mapstructure:"webhook"`
		Intent   IntentCfg   `mapstructure:"intent"`
		Delivery DeliveryCfg `mapstructure:"delivery"`
		Dedup    DedupCfg    `mapstructure:"dedup"`
		Redis    RedisCfg    `mapstructure:"redis"`
	}
)

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if p := os.Getenv("APP_CONFIG_PATH"); p != "" {
		v.SetConfigFile(p)
	}

	v.SetEnvPrefix("APP")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("app.name", "whatsapi")
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "5s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("webhook.max_body_bytes", 1<<20)
	v.SetDefault("webhook.on_empty_text", string(EmptyTextSkip))
	v.SetDefault("intent.language", "pt-BR")
	v.SetDefault("intent.timeout", "5s")
	v.SetDefault("delivery.timeout", "5s")
	v.SetDefault("dedup.backend", DedupMemory)
	v.SetDefault("dedup.capacity", 1000)
	v.SetDefault("dedup.ttl", "24h")
	v.SetDefault("redis.db", 0)

	if err := v.ReadInConfig(); err != nil {
		// continue with env/defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the relay must not start with. A process
// running without credentials would accept webhooks it can never answer.
func (c *Config) Validate() error {
	var errs []error
	required := []struct {
		key, val string
	}{
		{"webhook.verify_token", c.Webhook.VerifyToken},
		{"intent.endpoint", c.Intent.Endpoint},
		{"intent.project", c.Intent.Project},
		{"delivery.endpoint", c.Delivery.Endpoint},
		{"delivery.phone_number_id", c.Delivery.PhoneNumberID},
		{"delivery.token", c.Delivery.Token},
	}
	for _, r := range required {
		if r.val == "" {
			errs = append(errs, fmt.Errorf("missing required config %q", r.key))
		}
	}

	switch c.Dedup.Backend {
	case DedupMemory:
		if c.Dedup.Capacity <= 0 {
			errs = append(errs, fmt.Errorf("dedup.capacity must be positive, got %d", c.Dedup.Capacity))
		}
	case DedupRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New(`missing required config "redis.addr" for dedup.backend "redis"`))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown dedup.backend %q", c.Dedup.Backend))
	}

	switch c.Webhook.OnEmptyText {
	case EmptyTextForward, EmptyTextSkip:
	default:
		errs = append(errs, fmt.Errorf("unknown webhook.on_empty_text %q", c.Webhook.OnEmptyText))
	}

	return errors.Join(errs...)
}
