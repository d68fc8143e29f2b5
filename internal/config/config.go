package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"microforge/pulse/internal/domain"

	"github.com/spf13/viper"
)

type Config struct {
	Env       string          `mapstructure:"env"`
	Server    ServerConfig    `mapstructure:"server"`
	Health    HealthConfig    `mapstructure:"health"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Store     StoreConfig     `mapstructure:"store"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type HealthConfig struct {
	ProbeTimeoutMs  int                    `mapstructure:"probe_timeout_ms"`
	IntervalSeconds int                    `mapstructure:"interval_seconds"`
	Targets         []domain.ServiceTarget `mapstructure:"targets"`
}

type ProvidersConfig struct {
	SendTimeoutSeconds int         `mapstructure:"send_timeout_seconds"`
	Email              EmailConfig `mapstructure:"email"`
	ChatWebhookURL     string      `mapstructure:"chat_webhook_url"`
}

type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type KafkaConfig struct {
	Brokers []string    `mapstructure:"brokers"`
	Topics  KafkaTopics `mapstructure:"topics"`
}

type KafkaTopics struct {
	Deliveries string `mapstructure:"deliveries"`
	Health     string `mapstructure:"health"`
}

type StoreConfig struct {
	// Path to the sqlite database file. Empty selects the in-memory store.
	Path string `mapstructure:"path"`
}

// ConfigError reports configuration problems that must prevent the service
// from accepting traffic. It lists every problem, not just the first.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("local")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(cfg.Health.Targets) == 0 {
		cfg.Health.Targets = defaultTargets()
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("server.port", "8083")

	v.SetDefault("health.probe_timeout_ms", 5000)
	v.SetDefault("health.interval_seconds", 30)

	v.SetDefault("providers.send_timeout_seconds", 10)
	v.SetDefault("providers.email.port", 587)
	v.SetDefault("providers.email.from", "no-reply@microforge.local")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topics.deliveries", "notification-deliveries")
	v.SetDefault("kafka.topics.health", "health-cycles")

	v.SetDefault("store.path", "pulse.db")
}

// defaultTargets mirrors the stock MicroForge deployment so a bare start
// probes something real.
func defaultTargets() []domain.ServiceTarget {
	return []domain.ServiceTarget{
		{Name: "Frontend", HealthURL: "http://localhost:3000", Port: 3000, Technology: "React"},
		{Name: "Login Service", HealthURL: "http://localhost:8081/actuator/health", Port: 8081, Technology: "Spring Boot"},
		{Name: "Auth Service", HealthURL: "http://localhost:8082/api/health", Port: 8082, Technology: "Go"},
		{Name: "Notification Service", HealthURL: "http://localhost:8083/api/health", Port: 8083, Technology: "Node.js"},
		{Name: "Metadata Service", HealthURL: "http://localhost:8084/api/health", Port: 8084, Technology: "Python"},
	}
}

// Validate enforces the startup-fatal configuration contract: a missing or
// malformed probe target is a configuration error, not a runtime probe
// failure.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port == "" {
		problems = append(problems, "server.port is required")
	}

	if len(c.Health.Targets) == 0 {
		problems = append(problems, "health.targets must not be empty")
	}

	seen := make(map[string]bool, len(c.Health.Targets))
	for i, t := range c.Health.Targets {
		if t.Name == "" {
			problems = append(problems, fmt.Sprintf("health.targets[%d].name is required", i))
		} else if seen[t.Name] {
			problems = append(problems, fmt.Sprintf("health.targets[%d].name %q is duplicated", i, t.Name))
		} else {
			seen[t.Name] = true
		}

		if t.HealthURL == "" {
			problems = append(problems, fmt.Sprintf("health.targets[%d].health_url is required", i))
			continue
		}
		parsed, err := url.Parse(t.HealthURL)
		if err != nil || !parsed.IsAbs() || parsed.Host == "" {
			problems = append(problems, fmt.Sprintf("health.targets[%d].health_url %q is not an absolute URL", i, t.HealthURL))
		}
	}

	if c.Health.ProbeTimeoutMs <= 0 {
		problems = append(problems, "health.probe_timeout_ms must be positive")
	}
	if c.Health.IntervalSeconds <= 0 {
		problems = append(problems, "health.interval_seconds must be positive")
	}

	if len(problems) > 0 {
		return &ConfigError{Problems: problems}
	}

	return nil
}

func (c *Config) GetProbeTimeout() time.Duration {
	return time.Duration(c.Health.ProbeTimeoutMs) * time.Millisecond
}

func (c *Config) GetCycleInterval() time.Duration {
	return time.Duration(c.Health.IntervalSeconds) * time.Second
}

func (c *Config) GetSendTimeout() time.Duration {
	return time.Duration(c.Providers.SendTimeoutSeconds) * time.Second
}
