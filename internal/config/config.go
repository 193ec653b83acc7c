package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"certer/internal/utils"
)

func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("config file path is required (use --config or -c)")
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvironmentOverrides(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

var (
	EnvAuthUsername     = "CERTER_AUTH_USERNAME"
	EnvAuthPasswordHash = "CERTER_AUTH_PASSWORD_HASH"
	EnvCAHost           = "CERTER_CA_HOST"
	EnvCAUsername       = "CERTER_CA_USERNAME"
	EnvCAPassword       = "CERTER_CA_PASSWORD"
	EnvRedisPassword    = "CERTER_REDIS_PASSWORD"
	EnvRedisUsername    = "CERTER_REDIS_USERNAME"
)

func applyEnvironmentOverrides(config *Config) {
	if username := os.Getenv(EnvAuthUsername); username != "" {
		config.Auth.Username = username
	}

	if hash := os.Getenv(EnvAuthPasswordHash); hash != "" {
		config.Auth.PasswordHash = hash
	}

	if host := os.Getenv(EnvCAHost); host != "" {
		config.CA.Host = host
	}

	if username := os.Getenv(EnvCAUsername); username != "" {
		config.CA.Username = username
	}

	if password := os.Getenv(EnvCAPassword); password != "" {
		config.CA.Password = password
	}

	if redisPassword := os.Getenv(EnvRedisPassword); redisPassword != "" {
		if config.Redis == nil {
			config.Redis = &RedisConfig{}
		}
		config.Redis.Password = redisPassword
	}

	if redisUsername := os.Getenv(EnvRedisUsername); redisUsername != "" {
		if config.Redis == nil {
			config.Redis = &RedisConfig{}
		}
		config.Redis.Username = redisUsername
	}
}

func validateConfig(config *Config) error {
	validators := []func() error{
		config.validateServerConfig,
		config.validateLogConfig,
		config.validateCORSConfig,
		config.validateSessionConfig,
		config.validateAuthConfig,
		config.validateCertificatesConfig,
		config.validateHostConfigConfig,
		config.validateCAConfig,
	}

	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}

	if config.Sessions.Store == "redis" {
		if err := config.validateRedisConfig(); err != nil {
			return err
		}
	}

	return nil
}

func (c *Config) validateServerConfig() error {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerConfig.Port
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.StaticDir == "" {
		c.Server.StaticDir = DefaultServerConfig.StaticDir
	}

	if c.Server.Debug != nil && c.Server.Debug.Enabled {
		if c.Server.Debug.Host == "" {
			c.Server.Debug.Host = DefaultDebugConfig.Host
		}
		if c.Server.Debug.Port <= 0 || c.Server.Debug.Port >= 65535 {
			c.Server.Debug.Port = DefaultDebugConfig.Port
		}
	}

	return nil
}

var logLevels = []string{"debug", "info", "warn", "error"}

func (c *Config) validateLogConfig() error {
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogConfig.Format
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s, options are text or json", c.Log.Format)
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogConfig.Level
	}

	if !utils.IsStringInSlice(c.Log.Level, logLevels) {
		return fmt.Errorf("invalid log level: %s, options are %s", c.Log.Level, strings.Join(logLevels, ", "))
	}

	return nil
}

func (c *Config) validateCORSConfig() error {
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = DefaultCORSConfig.AllowedOrigins
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = DefaultCORSConfig.AllowedMethods
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = DefaultCORSConfig.AllowedHeaders
	}
	if c.CORS.MaxAgeSeconds == 0 {
		c.CORS.MaxAgeSeconds = DefaultCORSConfig.MaxAgeSeconds
	}

	return nil
}

func (c *Config) validateSessionConfig() error {
	if c.Sessions.Store == "" {
		c.Sessions.Store = DefaultSessionConfig.Store
	}

	switch c.Sessions.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid session store: %s, options are 'memory' or 'redis'", c.Sessions.Store)
	}

	if c.Sessions.Name == "" {
		c.Sessions.Name = DefaultSessionConfig.Name
	}

	if c.Sessions.Lifetime == 0 {
		c.Sessions.Lifetime = DefaultSessionConfig.Lifetime
	}

	if c.Sessions.IdleTimeout == 0 {
		c.Sessions.IdleTimeout = DefaultSessionConfig.IdleTimeout
	}

	if c.Sessions.IdleTimeout < 0 || c.Sessions.Lifetime < 0 {
		return fmt.Errorf("sessions.lifetime and sessions.idle_timeout must be positive")
	}

	return nil
}

func (c *Config) validateRedisConfig() error {
	if c.Redis == nil {
		return fmt.Errorf("redis configuration must be set to use redis for sessions")
	}

	if c.Redis.Sentinel != nil {
		if c.Redis.Sentinel.MasterName == "" {
			return fmt.Errorf("sentinel master_name is required")
		}
		if len(c.Redis.Sentinel.SentinelAddresses) == 0 {
			return fmt.Errorf("at least one sentinel address is required")
		}
	} else {
		if c.Redis.Address == "" {
			return fmt.Errorf("redis address is required")
		}

		if _, _, err := net.SplitHostPort(c.Redis.Address); err != nil {
			return fmt.Errorf("invalid redis address format (expected host:port): %w", err)
		}
	}

	const maxRedisDB = 15
	if c.Redis.SessionIndex < 0 || c.Redis.SessionIndex > maxRedisDB {
		return fmt.Errorf("redis session_index must be between 0 and %d, got %d", maxRedisDB, c.Redis.SessionIndex)
	}

	return nil
}

func (c *Config) validateAuthConfig() error {
	if c.Auth.Username == "" {
		return fmt.Errorf("auth.username is required")
	}

	if c.Auth.PasswordHash == "" {
		return fmt.Errorf("auth.password_hash is required")
	}

	if !strings.HasPrefix(c.Auth.PasswordHash, "$argon2") {
		return fmt.Errorf("auth.password_hash must be an argon2 digest (see `certer hash-password`)")
	}

	return nil
}

func (c *Config) validateCertificatesConfig() error {
	if c.Certificates.Directory == "" {
		c.Certificates.Directory = DefaultCertificatesConfig.Directory
	}

	if c.Certificates.KeyBits == 0 {
		c.Certificates.KeyBits = DefaultCertificatesConfig.KeyBits
	}

	switch c.Certificates.KeyBits {
	case 2048, 3072, 4096:
	default:
		return fmt.Errorf("certificates.key_bits must be 2048, 3072 or 4096, got %d", c.Certificates.KeyBits)
	}

	if len([]rune(c.Certificates.Defaults.Country)) > 2 {
		return fmt.Errorf("certificates.defaults.country must be at most 2 characters")
	}

	if c.Certificates.TempSweepInterval == 0 {
		c.Certificates.TempSweepInterval = DefaultCertificatesConfig.TempSweepInterval
	}

	if c.Certificates.TempMaxAge == 0 {
		c.Certificates.TempMaxAge = DefaultCertificatesConfig.TempMaxAge
	}

	if c.Certificates.TempSweepInterval < time.Minute || c.Certificates.TempMaxAge < time.Minute {
		return fmt.Errorf("certificates.temp_sweep_interval and certificates.temp_max_age must be at least 1m")
	}

	return nil
}

func (c *Config) validateHostConfigConfig() error {
	if c.HostConfig.Backend == "" {
		c.HostConfig.Backend = DefaultHostConfigConfig.Backend
	}

	switch c.HostConfig.Backend {
	case "file":
	case "bolt":
		if c.HostConfig.BoltPath == "" {
			c.HostConfig.BoltPath = DefaultHostConfigConfig.BoltPath
		}
	default:
		return fmt.Errorf("invalid hostconfig backend: %s, options are 'file' or 'bolt'", c.HostConfig.Backend)
	}

	return nil
}

func (c *Config) validateCAConfig() error {
	if c.CA.Host == "" {
		return fmt.Errorf("ca.host is required")
	}

	if strings.Contains(c.CA.Host, "/") {
		return fmt.Errorf("ca.host must be a host name (optionally with port), not a URL: %s", c.CA.Host)
	}

	if c.CA.Username == "" {
		return fmt.Errorf("ca.username is required")
	}

	if c.CA.Password == "" {
		return fmt.Errorf("ca.password is required")
	}

	if c.CA.Template == "" {
		c.CA.Template = DefaultCAConfig.Template
	}

	if c.CA.Timeout == 0 {
		c.CA.Timeout = DefaultCAConfig.Timeout
	} else if c.CA.Timeout < time.Second {
		return fmt.Errorf("ca.timeout cannot be less than 1s")
	}

	if c.CA.UserAgent == "" {
		c.CA.UserAgent = DefaultCAConfig.UserAgent
	}

	if c.CA.TLS.RootCAFile != "" && !c.CA.TLS.Verify {
		return fmt.Errorf("ca.tls.root_ca_file is set but ca.tls.verify is false")
	}

	if c.CA.Verifier.Type == "" {
		c.CA.Verifier.Type = DefaultVerifierConfig.Type
	}

	switch c.CA.Verifier.Type {
	case "openssl":
		if c.CA.Verifier.OpenSSLPath == "" {
			c.CA.Verifier.OpenSSLPath = DefaultVerifierConfig.OpenSSLPath
		}
	case "native":
	default:
		return fmt.Errorf("invalid ca.verifier.type: %s, options are 'openssl' or 'native'", c.CA.Verifier.Type)
	}

	return nil
}
