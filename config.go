package ftp

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Data connection modes accepted in Config.Mode.
const (
	PassiveMode = "passive"
	ActiveMode  = "active"
)

// Config describes how to reach and log in to an FTP server. It is consumed
// once, when the session connects.
type Config struct {
	Host     string `yaml:"host" validate:"required,hostname_rfc1123|ip"`
	Port     int    `yaml:"port" validate:"min=1,max=65535"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`

	// Path is the remote directory to change into after login.
	Path string `yaml:"path"`

	// Mode selects the data connection mode. Only "passive" is implemented;
	// "active" is accepted here and rejected when a data channel is needed.
	Mode string `yaml:"mode" validate:"oneof=passive active"`

	// Charset is the encoding used by the server for paths and listings.
	Charset string `yaml:"charset"`

	ConnectTimeout time.Duration `yaml:"connect_timeout" validate:"min=0"`
	IOTimeout      time.Duration `yaml:"io_timeout" validate:"min=0"`

	// LiveTimeout is how long after the last successful round trip the
	// session is still considered live. Zero disables the check.
	LiveTimeout time.Duration `yaml:"live_timeout" validate:"min=0"`

	// OperationTimeout bounds listings, crawls and line reads as a whole.
	// Zero means no bound.
	OperationTimeout time.Duration `yaml:"operation_timeout" validate:"min=0"`

	// BandwidthLimit caps data channel throughput in bytes per second.
	BandwidthLimit int64 `yaml:"bandwidth_limit" validate:"min=0"`
}

var validate = validator.New()

// DefaultConfig returns a Config populated with default values.
func DefaultConfig() *Config {
	return &Config{
		Port:           21,
		User:           "anonymous",
		Password:       "anonymous@",
		Mode:           PassiveMode,
		Charset:        "utf-8",
		ConnectTimeout: 3 * time.Second,
		IOTimeout:      30 * time.Second,
		LiveTimeout:    5 * time.Minute,
	}
}

// LoadConfig reads a YAML configuration file. Missing keys keep their
// default values.
func LoadConfig(path string) (*Config, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(fh)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseURL builds a Config from a URL of the form
// ftp://[user[:password]@]host[:port][/path][?mode=passive&charset=gbk].
// Percent-encoded user info is decoded.
func ParseURL(rawURL string) (*Config, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if !strings.EqualFold(u.Scheme, "ftp") {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}

	cfg := DefaultConfig()
	cfg.Host = u.Hostname()
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid port: %s", p)
		}
		cfg.Port = port
	}

	if u.User != nil && u.User.Username() != "" {
		cfg.User = u.User.Username()
		cfg.Password, _ = u.User.Password()
	}

	if u.Path != "" && u.Path != "/" {
		cfg.Path = u.Path
	}

	q := u.Query()
	if mode := q.Get("mode"); mode != "" {
		cfg.Mode = strings.ToLower(mode)
	}
	if charset := q.Get("charset"); charset != "" {
		cfg.Charset = charset
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration and its charset.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := lookupCharset(c.Charset); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Addr returns the control connection address in host:port form.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// URL renders the configuration back into an ftp:// URL. The password is
// included, percent-encoded.
func (c *Config) URL() *url.URL {
	u := &url.URL{
		Scheme: "ftp",
		Host:   c.Addr(),
		Path:   c.Path,
	}
	if c.User != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}
	return u
}

// String returns the URL form of the configuration with the password redacted.
func (c *Config) String() string {
	return c.URL().Redacted()
}

// withDefaults fills zero-valued fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	out := *c
	if out.Port == 0 {
		out.Port = d.Port
	}
	if out.User == "" {
		out.User = d.User
		if out.Password == "" {
			out.Password = d.Password
		}
	}
	if out.Mode == "" {
		out.Mode = d.Mode
	}
	if out.Charset == "" {
		out.Charset = d.Charset
	}
	if out.ConnectTimeout == 0 {
		out.ConnectTimeout = d.ConnectTimeout
	}
	return &out
}
