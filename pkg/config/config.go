// Package config loads skillet settings from the environment and an optional
// YAML config file.
//
// Every key can be set through an environment variable with the SKILLET_
// prefix, using underscores for nesting: dev.token is SKILLET_DEV_TOKEN.
// Files are looked up as $HOME/.skillet/config.yaml and ./config.yaml.
package config

import (
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/jingkaihe/skillet/pkg/telemetry"
)

const (
	// EnvPrefix prefixes every environment variable read by skillet
	EnvPrefix = "SKILLET"
	// DefaultDevAddress is the hosted development kernel
	DefaultDevAddress = "https://pharia-kernel.aleph-alpha.stackit.run"
	// DefaultDevTimeout bounds a single dev host call
	DefaultDevTimeout = 5 * time.Minute
)

// LogConfig selects the log level and the formatter (text or json)
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DevConfig points the development client at a host speaking the CSI
// protocol over HTTP
type DevConfig struct {
	Address string        `mapstructure:"address"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Validate checks that the address is an absolute http(s) URL and that a
// token is present
func (d DevConfig) Validate() error {
	if d.Address == "" {
		return errors.New("dev.address is required")
	}
	u, err := url.Parse(d.Address)
	if err != nil {
		return errors.Wrapf(err, "invalid dev.address %q", d.Address)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("dev.address %q must use http or https", d.Address)
	}
	if u.Host == "" {
		return errors.Errorf("dev.address %q has no host", d.Address)
	}
	if d.Token == "" {
		return errors.Errorf("dev.token is required (set %s_DEV_TOKEN)", EnvPrefix)
	}
	if d.Timeout < 0 {
		return errors.Errorf("dev.timeout must not be negative, got %s", d.Timeout)
	}
	return nil
}

// Config is the complete skillet configuration
type Config struct {
	Log     LogConfig        `mapstructure:"log"`
	Dev     DevConfig        `mapstructure:"dev"`
	Tracing telemetry.Config `mapstructure:"tracing"`
}

// New returns a viper instance wired to the skillet environment prefix, the
// default config file locations and the default values
func New() *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.skillet")
	v.AddConfigPath(".")

	SetDefaults(v)
	return v
}

// SetDefaults registers the default of every known key. Keys need a default
// to be picked up from the environment when decoding.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("dev.address", DefaultDevAddress)
	v.SetDefault("dev.token", "")
	v.SetDefault("dev.timeout", DefaultDevTimeout)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", telemetry.DefaultServiceName)
	v.SetDefault("tracing.sampler", "ratio")
	v.SetDefault("tracing.ratio", 1.0)
}

// Load reads the config file, if there is one, and decodes all settings.
// A missing config file is not an error.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, errors.Wrap(err, "failed to read config file")
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			secondsToDurationHook,
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return cfg, errors.Wrap(err, "failed to create config decoder")
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return cfg, errors.Wrap(err, "failed to decode configuration")
	}

	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	return cfg, nil
}

// LoadDefault loads the configuration from the default sources
func LoadDefault() (Config, error) {
	return Load(New())
}

// secondsToDurationHook reads bare numbers as seconds, so timeout: 30 in a
// config file or SKILLET_DEV_TIMEOUT=30 means thirty seconds rather than
// thirty nanoseconds. Strings with a unit are left to ParseDuration.
func secondsToDurationHook(from, to reflect.Type, data any) (any, error) {
	durationType := reflect.TypeOf(time.Duration(0))
	if to != durationType || from == durationType {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return time.Duration(reflect.ValueOf(data).Int()) * time.Second, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return time.Duration(reflect.ValueOf(data).Uint()) * time.Second, nil
	case reflect.Float32, reflect.Float64:
		return time.Duration(reflect.ValueOf(data).Float() * float64(time.Second)), nil
	case reflect.String:
		s := strings.TrimSpace(reflect.ValueOf(data).String())
		if !isBareNumber(s) {
			return data, nil
		}
		seconds, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid duration %q", s)
		}
		return time.Duration(seconds * float64(time.Second)), nil
	default:
		return data, nil
	}
}

// isBareNumber matches an optionally signed decimal without exponent or unit
func isBareNumber(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" || strings.Count(s, ".") > 1 || strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}
