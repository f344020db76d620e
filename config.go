package cratedb

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gocrate/cratedb/internal/logger"
)

// RowMode selects the shape rows are delivered in.
type RowMode string

const (
	// RowModeArray delivers rows as positional arrays aligned with cols.
	RowModeArray RowMode = "array"
	// RowModeObject delivers rows as cols-keyed mappings.
	RowModeObject RowMode = "object"
)

// Config is the resolved, immutable client configuration. Build one
// with NewConfig; nothing in this package ever mutates a *Config after
// construction — per-call overlays are passed alongside, never merged
// back into it.
type Config struct {
	User          string
	Password      string
	JWT           string
	Host          string
	Port          int
	DefaultSchema string

	SSL            bool
	KeepAlive      bool
	MaxConnections int

	Deserialization DeserializationConfig
	RowMode         RowMode

	EnableCompression    bool
	CompressionThreshold int

	Logger *logger.Logger
}

// Options carries explicitly-set configuration fields. A nil pointer
// means "not explicitly set by the caller" — NewConfig is then free to
// fill it from the environment or a connection string. This mirrors
// the teacher's ParseDSN/Config split: parse inputs into an overlay,
// then resolve a frozen Config from it.
type Options struct {
	User          *string
	Password      *string
	JWT           *string
	Host          *string
	Port          *int
	DefaultSchema *string

	ConnectionString *string

	SSL            *bool
	KeepAlive      *bool
	MaxConnections *int

	Deserialization *DeserializationConfig
	RowMode         *RowMode

	EnableCompression    *bool
	CompressionThreshold *int

	Logger *logger.Logger
}

func defaultConfig() Config {
	return Config{
		User:                 "crate",
		Password:             "",
		Host:                 "localhost",
		Port:                 4200,
		SSL:                  false,
		KeepAlive:            true,
		MaxConnections:       20,
		Deserialization:      DefaultDeserializationConfig(),
		RowMode:              RowModeArray,
		EnableCompression:    true,
		CompressionThreshold: 1024,
	}
}

// NewConfig resolves a Config from, in order: built-in defaults, the
// USER/PASSWORD/HOST/PORT/DEFAULT_SCHEMA environment variables, a
// connectionString (if any — it fills fields the caller left unset,
// but never overrides one they set explicitly), and finally opts'
// explicitly-set fields, which always win. The result is frozen: no
// method on Config or Client mutates it afterward.
func NewConfig(opts Options) (*Config, error) {
	cfg := defaultConfig()
	applyEnv(&cfg)

	if opts.ConnectionString != nil {
		parsed, err := parseConnectionString(*opts.ConnectionString)
		if err != nil {
			return nil, err
		}
		applyBlanks(&cfg, parsed, &opts)
	}

	applyExplicit(&cfg, &opts)

	if cfg.JWT != "" {
		if err := sanityCheckJWT(cfg.JWT, cfg.Logger); err != nil {
			return nil, err
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	// DEFAULT_SCHEMA, not HOST, feeds the Default-Schema header: one
	// historical revision of this client aliased the two, but §9(c)
	// of the spec this module follows uses the corrected mapping.
	if v := os.Getenv("DEFAULT_SCHEMA"); v != "" {
		cfg.DefaultSchema = v
	}
}

// connStringFields is everything parseConnectionString can populate.
type connStringFields struct {
	user, password, host *string
	port                 *int
	ssl                  *bool
}

func parseConnectionString(raw string) (*connStringFields, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, newValidationError("invalid connection string %q: %v", raw, err)
	}
	f := &connStringFields{}
	switch u.Scheme {
	case "https":
		ssl := true
		f.ssl = &ssl
	case "http", "":
		ssl := false
		f.ssl = &ssl
	default:
		return nil, newValidationError("unsupported connection string scheme %q", u.Scheme)
	}
	if u.User != nil {
		user := u.User.Username()
		f.user = &user
		if pw, ok := u.User.Password(); ok {
			f.password = &pw
		}
	}
	if host := u.Hostname(); host != "" {
		f.host = &host
	}
	if portStr := u.Port(); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, newValidationError("invalid port in connection string %q: %v", raw, err)
		}
		f.port = &p
	}
	return f, nil
}

// applyBlanks fills cfg from the parsed connection string, skipping any
// field the caller set explicitly via opts.
func applyBlanks(cfg *Config, f *connStringFields, opts *Options) {
	if f.user != nil && opts.User == nil {
		cfg.User = *f.user
	}
	if f.password != nil && opts.Password == nil {
		cfg.Password = *f.password
	}
	if f.host != nil && opts.Host == nil {
		cfg.Host = *f.host
	}
	if f.port != nil && opts.Port == nil {
		cfg.Port = *f.port
	}
	if f.ssl != nil && opts.SSL == nil {
		cfg.SSL = *f.ssl
	}
}

func applyExplicit(cfg *Config, opts *Options) {
	if opts.User != nil {
		cfg.User = *opts.User
	}
	if opts.Password != nil {
		cfg.Password = *opts.Password
	}
	if opts.JWT != nil {
		cfg.JWT = *opts.JWT
	}
	if opts.Host != nil {
		cfg.Host = *opts.Host
	}
	if opts.Port != nil {
		cfg.Port = *opts.Port
	}
	if opts.DefaultSchema != nil {
		cfg.DefaultSchema = *opts.DefaultSchema
	}
	if opts.SSL != nil {
		cfg.SSL = *opts.SSL
	}
	if opts.KeepAlive != nil {
		cfg.KeepAlive = *opts.KeepAlive
	}
	if opts.MaxConnections != nil {
		cfg.MaxConnections = *opts.MaxConnections
	}
	if opts.Deserialization != nil {
		cfg.Deserialization = *opts.Deserialization
	}
	if opts.RowMode != nil {
		cfg.RowMode = *opts.RowMode
	}
	if opts.EnableCompression != nil {
		cfg.EnableCompression = *opts.EnableCompression
	}
	if opts.CompressionThreshold != nil {
		cfg.CompressionThreshold = *opts.CompressionThreshold
	}
	if opts.Logger != nil {
		cfg.Logger = opts.Logger
	}
}

// sanityCheckJWT parses the configured bearer token without verifying
// its signature — CrateDB, not this client, is the one that verifies
// it — purely to fail fast on a structurally malformed token and to
// surface its expiry in debug logs.
func sanityCheckJWT(token string, log *logger.Logger) error {
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return newValidationError("jwt is not a well-formed token: %v", err)
	}
	if log != nil {
		if exp, ok := claims["exp"]; ok {
			log.Debugf("configured jwt expires at claim exp=%v", exp)
		}
	}
	return nil
}

// authHeader returns the Authorization header value to send, or "" if
// neither bearer nor basic auth is configured.
func (c *Config) authHeader() string {
	if c.JWT != "" {
		return "Bearer " + c.JWT
	}
	if c.User != "" && c.Password != "" {
		return "Basic " + basicAuthToken(c.User, c.Password)
	}
	return ""
}

func (c *Config) baseURL() string {
	scheme := "http"
	if c.SSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.Port)
}
