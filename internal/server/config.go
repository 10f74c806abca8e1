package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/iwvelando/mix-optimizer/internal/config"
	"github.com/iwvelando/mix-optimizer/pkg/constants"
	"github.com/spf13/viper"
)

// DefaultRequestTimeout bounds reading a request and writing its response.
const DefaultRequestTimeout = 30 * time.Second

// Config defines runtime parameters for the HTTP server. Keys may be
// overridden from the environment, e.g. MIXOPT_SERVER_ADDRESS.
type Config struct {
	Address        string               `yaml:"address" mapstructure:"address"`
	MaxUploadSize  string               `yaml:"maxUploadSize" mapstructure:"maxUploadSize"`
	RequestTimeout time.Duration        `yaml:"requestTimeout" mapstructure:"requestTimeout"`
	Logging        config.LoggingConfig `yaml:"logging" mapstructure:"logging"`

	uploadSizeBytes int64
}

// LoadConfig reads the server configuration. A missing file, or an empty
// path, leaves the defaults and any environment overrides in place.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix + "_SERVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("address", constants.DefaultServerAddress)
	v.SetDefault("maxUploadSize", strconv.FormatInt(constants.DefaultMaxUploadSizeBytes, 10))
	v.SetDefault("requestTimeout", DefaultRequestTimeout)
	v.SetDefault("logging.level", "")
	v.SetDefault("logging.format", "")
	v.SetDefault("logging.outputFile", "")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to parse server config: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read server config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode server config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UploadSizeBytes returns the largest accepted request body in bytes.
func (c *Config) UploadSizeBytes() int64 {
	return c.uploadSizeBytes
}

// SetUploadSizeBytes overrides the configured upload size.
func (c *Config) SetUploadSizeBytes(size int64) {
	if size > 0 {
		c.uploadSizeBytes = size
		c.MaxUploadSize = strconv.FormatInt(size, 10)
	}
}

// Timeout returns the per-request read and write timeout.
func (c *Config) Timeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return DefaultRequestTimeout
	}
	return c.RequestTimeout
}

func (c *Config) normalize() error {
	if strings.TrimSpace(c.Address) == "" {
		c.Address = constants.DefaultServerAddress
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}

	size, err := ParseSize(c.MaxUploadSize)
	if err != nil {
		return err
	}
	if size <= 0 {
		size = constants.DefaultMaxUploadSizeBytes
	}
	c.uploadSizeBytes = size
	c.MaxUploadSize = strconv.FormatInt(size, 10)
	return nil
}

// ParseSize converts a byte count with an optional binary unit suffix
// (B, K/KB, M/MB, G/GB; e.g. "256K", "10M") into bytes. Empty input yields
// the default upload limit.
func ParseSize(value string) (int64, error) {
	s := strings.ToUpper(strings.TrimSpace(value))
	if s == "" {
		return constants.DefaultMaxUploadSizeBytes, nil
	}

	digits := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if digits < 0 {
		digits = len(s)
	}
	if digits == 0 {
		return 0, fmt.Errorf("invalid size: %s", value)
	}
	n, err := strconv.ParseInt(s[:digits], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}

	shift := map[string]uint{"": 0, "B": 0, "K": 10, "KB": 10, "M": 20, "MB": 20, "G": 30, "GB": 30}
	unit := strings.TrimSpace(s[digits:])
	bits, ok := shift[unit]
	if !ok {
		return 0, fmt.Errorf("unsupported size unit %q", unit)
	}
	if n > (1<<63-1)>>bits {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return n << bits, nil
}
