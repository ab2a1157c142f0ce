package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// MinStartTimeout is the lowest lifecycle start/stop timeout a caller may
// configure; the remote service routinely needs tens of seconds to converge.
const MinStartTimeout = 30 * time.Second

type Config struct {
	API struct {
		BaseURL    string        `yaml:"base_url"`
		APIVersion string        `yaml:"api_version"`
		AccessKey  string        `yaml:"access_key"`
		// RESTKey may be stored XOR-obfuscated with the pkg/signing "obf:"
		// marker; the transport deobfuscates marked keys before use.
		RESTKey    string        `yaml:"rest_key"`
		HMACAuth   bool          `yaml:"hmac_auth"`
		Timeout    time.Duration `yaml:"timeout"`

		RateLimit struct {
			Enabled           bool    `yaml:"enabled"`
			RequestsPerSecond float64 `yaml:"requests_per_second"`
			Burst             int     `yaml:"burst"`
		} `yaml:"rate_limit"`

		CircuitBreaker struct {
			Enabled          bool          `yaml:"enabled"`
			FailureThreshold int           `yaml:"failure_threshold"`
			SuccessThreshold int           `yaml:"success_threshold"`
			OpenTimeout      time.Duration `yaml:"open_timeout"`
		} `yaml:"circuit_breaker"`
	} `yaml:"api"`

	Lifecycle struct {
		StartTimeout time.Duration `yaml:"start_timeout"`
		StopTimeout  time.Duration `yaml:"stop_timeout"`
		PollInterval time.Duration `yaml:"poll_interval"`
	} `yaml:"lifecycle"`

	Pool struct {
		StartingSize     int `yaml:"starting_size"`
		ThresholdPercent int `yaml:"threshold_percent"`
	} `yaml:"pool"`

	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Auth struct {
		Enabled   bool          `yaml:"enabled"`
		JWTSecret string        `yaml:"jwt_secret"`
		TokenTTL  time.Duration `yaml:"token_ttl"`
	} `yaml:"auth"`

	RateLimiting struct {
		Enabled           bool    `yaml:"enabled"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rate_limiting"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
	} `yaml:"monitoring"`

	Logging struct {
		Level   string `yaml:"level"`
		Format  string `yaml:"format"`
		Verbose bool   `yaml:"verbose"`
	} `yaml:"logging"`

	Diagnostics struct {
		Enabled  bool   `yaml:"enabled"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Key      string `yaml:"key"`
		MaxLines int    `yaml:"max_lines"`
	} `yaml:"diagnostics"`

	Tracing struct {
		Enabled     bool    `yaml:"enabled"`
		ServiceName string  `yaml:"service_name"`
		JaegerURL   string  `yaml:"jaeger_url"`
		SampleRate  float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	// API
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}
	if c.API.AccessKey == "" {
		return fmt.Errorf("api.access_key must not be empty")
	}
	if c.API.RESTKey == "" {
		return fmt.Errorf("api.rest_key must not be empty")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be > 0")
	}
	if c.API.RateLimit.Enabled {
		if c.API.RateLimit.RequestsPerSecond <= 0 {
			return fmt.Errorf("api.rate_limit.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.API.RateLimit.Burst <= 0 {
			return fmt.Errorf("api.rate_limit.burst must be > 0 when rate limiting is enabled")
		}
	}
	if c.API.CircuitBreaker.Enabled {
		if c.API.CircuitBreaker.FailureThreshold <= 0 {
			return fmt.Errorf("api.circuit_breaker.failure_threshold must be > 0 when the breaker is enabled")
		}
		if c.API.CircuitBreaker.OpenTimeout <= 0 {
			return fmt.Errorf("api.circuit_breaker.open_timeout must be > 0 when the breaker is enabled")
		}
	}

	// Lifecycle
	if c.Lifecycle.StartTimeout < MinStartTimeout {
		return fmt.Errorf("lifecycle.start_timeout must be >= %s", MinStartTimeout)
	}
	if c.Lifecycle.StopTimeout < MinStartTimeout {
		return fmt.Errorf("lifecycle.stop_timeout must be >= %s", MinStartTimeout)
	}
	if c.Lifecycle.PollInterval <= 0 {
		return fmt.Errorf("lifecycle.poll_interval must be > 0")
	}

	// Pool
	if c.Pool.StartingSize < 0 {
		return fmt.Errorf("pool.starting_size must be >= 0")
	}
	if c.Pool.ThresholdPercent < 0 || c.Pool.ThresholdPercent > 100 {
		return fmt.Errorf("pool.threshold_percent must be between 0 and 100")
	}

	// Server
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}

	// Auth
	if c.Auth.Enabled {
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret must not be empty when auth.enabled=true")
		}
		if c.Auth.TokenTTL <= 0 {
			return fmt.Errorf("auth.token_ttl must be > 0 when auth.enabled=true")
		}
	}

	// Rate limiting (daemon side)
	if c.RateLimiting.Enabled {
		if c.RateLimiting.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.Burst <= 0 {
			return fmt.Errorf("rate_limiting.burst must be > 0 when rate limiting is enabled")
		}
	}

	// Logging
	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	// Diagnostics
	if c.Diagnostics.Enabled {
		if c.Diagnostics.Address == "" {
			return fmt.Errorf("diagnostics.address must not be empty when diagnostics.enabled=true")
		}
		if c.Diagnostics.MaxLines <= 0 {
			return fmt.Errorf("diagnostics.max_lines must be > 0 when diagnostics.enabled=true")
		}
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	// If file does not exist, fall back to defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.API.BaseURL = "https://api.cloud.wowza.com"
	cfg.API.APIVersion = "/api/v1.3/"
	cfg.API.Timeout = 30 * time.Second
	cfg.API.HMACAuth = false
	cfg.API.RateLimit.Enabled = true
	cfg.API.RateLimit.RequestsPerSecond = 5
	cfg.API.RateLimit.Burst = 10
	cfg.API.CircuitBreaker.Enabled = false
	cfg.API.CircuitBreaker.FailureThreshold = 5
	cfg.API.CircuitBreaker.SuccessThreshold = 2
	cfg.API.CircuitBreaker.OpenTimeout = 30 * time.Second

	cfg.Lifecycle.StartTimeout = 120 * time.Second
	cfg.Lifecycle.StopTimeout = 120 * time.Second
	cfg.Lifecycle.PollInterval = 2 * time.Second

	cfg.Pool.StartingSize = 3
	cfg.Pool.ThresholdPercent = 70

	cfg.Server.Address = ":8080"
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.ShutdownTimeout = 30 * time.Second

	cfg.Auth.Enabled = false
	cfg.Auth.JWTSecret = ""
	cfg.Auth.TokenTTL = 15 * time.Minute

	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.RequestsPerSecond = 50
	cfg.RateLimiting.Burst = 100

	cfg.Monitoring.PrometheusEnabled = true

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"
	cfg.Logging.Verbose = false

	cfg.Diagnostics.Enabled = false
	cfg.Diagnostics.Address = "localhost:6379"
	cfg.Diagnostics.DB = 0
	cfg.Diagnostics.Key = "streampool:diagnostics"
	cfg.Diagnostics.MaxLines = 500

	cfg.Tracing.Enabled = false
	cfg.Tracing.ServiceName = "streampool"
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.SampleRate = 1.0

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("STREAMPOOL_API_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("STREAMPOOL_ACCESS_KEY"); v != "" {
		c.API.AccessKey = v
	}
	if v := os.Getenv("STREAMPOOL_REST_KEY"); v != "" {
		c.API.RESTKey = v
	}
	if v := os.Getenv("STREAMPOOL_HMAC_AUTH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.API.HMACAuth = b
		}
	}
	if v := os.Getenv("STREAMPOOL_SERVER_ADDRESS"); v != "" {
		c.Server.Address = v
	}
	if v := os.Getenv("STREAMPOOL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("STREAMPOOL_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
}
