package config

import (
	"time"
)

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Log          LogConfig          `yaml:"log"`
	CORS         CORSConfig         `yaml:"cors"`
	Sessions     SessionConfig      `yaml:"sessions"`
	Redis        *RedisConfig       `yaml:"redis"`
	Auth         AuthConfig         `yaml:"auth"`
	Certificates CertificatesConfig `yaml:"certificates"`
	HostConfig   HostConfigConfig   `yaml:"hostconfig"`
	CA           CAConfig           `yaml:"ca"`
}

type ServerConfig struct {
	Port      int                `yaml:"port"`
	StaticDir string             `yaml:"static_dir"`
	Debug     *ServerDebugConfig `yaml:"debug"`
}

var DefaultServerConfig = ServerConfig{
	Port:      8080,
	StaticDir: "web/dist",
}

type ServerDebugConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

var DefaultDebugConfig = ServerDebugConfig{
	Enabled: false,
	Host:    "localhost",
	Port:    5123,
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

var DefaultLogConfig = LogConfig{
	Level:  "info",
	Format: "text",
}

type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	ExposedHeaders   []string `yaml:"exposed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAgeSeconds    int      `yaml:"max_age_seconds"`
}

var DefaultCORSConfig = CORSConfig{
	AllowedOrigins: []string{"http://localhost:5173"},
	AllowedMethods: []string{"GET", "POST", "OPTIONS"},
	AllowedHeaders: []string{"*"},
	MaxAgeSeconds:  300,
}

type SessionConfig struct {
	Store       string        `yaml:"store"`
	Name        string        `yaml:"name"`
	Secure      bool          `yaml:"secure"`
	Lifetime    time.Duration `yaml:"lifetime"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

var DefaultSessionConfig = SessionConfig{
	Store:       "memory",
	Name:        "certer_session",
	Secure:      true,
	Lifetime:    24 * time.Hour,
	IdleTimeout: 4 * time.Hour,
}

type RedisConfig struct {
	Address      string               `yaml:"address"`
	Username     string               `yaml:"username"`
	Password     string               `yaml:"password"`
	Sentinel     *RedisSentinelConfig `yaml:"sentinel"`
	SessionIndex int                  `yaml:"session_index"`
}

type RedisSentinelConfig struct {
	MasterName        string   `yaml:"master_name"`
	SentinelAddresses []string `yaml:"addresses"`
	SentinelPassword  string   `yaml:"password"`
	SentinelUsername  string   `yaml:"username"`
}

// AuthConfig is the single operator login. PasswordHash is a crypt(3) style
// argon2id digest as printed by `certer hash-password`.
type AuthConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
}

type CertificatesConfig struct {
	Directory string          `yaml:"directory"`
	KeyBits   int             `yaml:"key_bits"`
	Defaults  SubjectDefaults `yaml:"defaults"`
	// TempSweepInterval is how often <name>.crt.tmp files older than
	// TempMaxAge are removed.
	TempSweepInterval time.Duration `yaml:"temp_sweep_interval"`
	TempMaxAge        time.Duration `yaml:"temp_max_age"`
}

var DefaultCertificatesConfig = CertificatesConfig{
	Directory:         "certs",
	KeyBits:           2048,
	TempSweepInterval: 10 * time.Minute,
	TempMaxAge:        15 * time.Minute,
}

// SubjectDefaults prefill the details step when a host has no stored
// configuration yet.
type SubjectDefaults struct {
	Organization       string `yaml:"organization"`
	OrganizationalUnit string `yaml:"organizational_unit"`
	City               string `yaml:"city"`
	State              string `yaml:"state"`
	Country            string `yaml:"country"`
}

type HostConfigConfig struct {
	Backend  string `yaml:"backend"` // "file" or "bolt"
	BoltPath string `yaml:"bolt_path"`
}

var DefaultHostConfigConfig = HostConfigConfig{
	Backend:  "file",
	BoltPath: "hosts.db",
}

type CAConfig struct {
	Host      string         `yaml:"host"`
	Username  string         `yaml:"username"`
	Password  string         `yaml:"password"`
	Template  string         `yaml:"template"`
	Timeout   time.Duration  `yaml:"timeout"`
	UserAgent string         `yaml:"user_agent"`
	TLS       CATLSConfig    `yaml:"tls"`
	Verifier  VerifierConfig `yaml:"verifier"`
}

var DefaultCAConfig = CAConfig{
	Template:  "WebServer",
	Timeout:   30 * time.Second,
	UserAgent: "Mozilla/5.0 (Windows NT 6.3; WOW64; Trident/7.0; rv:11.0) like Gecko",
}

type CATLSConfig struct {
	Verify     bool   `yaml:"verify"`
	RootCAFile string `yaml:"root_ca_file"`
}

type VerifierConfig struct {
	Type        string `yaml:"type"` // "openssl" or "native"
	OpenSSLPath string `yaml:"openssl_path"`
	CAFile      string `yaml:"ca_file"`
}

var DefaultVerifierConfig = VerifierConfig{
	Type:        "openssl",
	OpenSSLPath: "openssl",
}
