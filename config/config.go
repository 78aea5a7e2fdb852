package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"
)

// BaseConfig holds the settings relay.Run needs to host a chain.
// Applications embed it in their own config structs, usually as a [relay] table.
type BaseConfig struct {
	HTTPPort    int    `toml:"http_port" env:"HTTP_PORT"`
	HealthPort  int    `toml:"health_port" env:"HEALTH_PORT"`
	MetricsPort int    `toml:"metrics_port" env:"METRICS_PORT"`
	LogLevel    string `toml:"log_level" env:"LOG_LEVEL"`
	Environment string `toml:"environment" env:"ENVIRONMENT"`
}

// DefaultBaseConfig returns the settings used when neither the TOML file nor
// the environment provides a value. Load into a copy of it to keep defaults.
func DefaultBaseConfig() BaseConfig {
	return BaseConfig{
		HTTPPort:    8080,
		HealthPort:  9090,
		LogLevel:    "info",
		Environment: "development",
	}
}

// GetHTTPPort returns NOMAD_PORT_http when it holds a valid port, else HTTPPort.
func (b *BaseConfig) GetHTTPPort() int {
	return resolvePort("http", b.HTTPPort)
}

// GetHealthPort returns NOMAD_PORT_health when it holds a valid port, else HealthPort.
func (b *BaseConfig) GetHealthPort() int {
	return resolvePort("health", b.HealthPort)
}

// GetMetricsPort returns NOMAD_PORT_metrics when it holds a valid port, else MetricsPort.
func (b *BaseConfig) GetMetricsPort() int {
	return resolvePort("metrics", b.MetricsPort)
}

func resolvePort(label string, fallback int) int {
	name := "NOMAD_PORT_" + label
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return fallback
	}

	port, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn().Str("env", name).Str("value", raw).Int("fallback", fallback).
			Msg("invalid Nomad port, falling back to configured port")
		return fallback
	}

	log.Debug().Str("label", label).Int("port", port).Msg("using Nomad-assigned port")
	return port
}

// Loader fills a config struct from a TOML file, then from the environment.
//
// Fields tagged `env:"NAME"` are overridden by a non-empty $NAME. Nested
// structs are walked, and nil pointer fields are allocated when their
// variable is set, so an optional value such as cors.Config.MaxAge stays nil
// unless the file or the environment provides it.
type Loader struct {
	path string
}

// NewLoader returns a Loader reading path. A missing file is not an error.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load decodes the file into target, which must be a non-nil pointer to a
// struct, and applies environment overrides on top.
func (l *Loader) Load(target any) error {
	if target == nil {
		return fmt.Errorf("config cannot be nil")
	}
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("config must be a non-nil pointer to a struct, got %T", target)
	}
	if rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("config must be a pointer to a struct, got pointer to %v", rv.Elem().Kind())
	}

	if _, err := toml.DecodeFile(l.path, target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to decode TOML file %s: %w", l.path, err)
	}

	if err := overrideFromEnv(rv.Elem()); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return nil
}

func overrideFromEnv(v reflect.Value) error {
	for i := 0; i < v.NumField(); i++ {
		field, spec := v.Field(i), v.Type().Field(i)
		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			if err := overrideFromEnv(field); err != nil {
				return err
			}
			continue
		}

		name := spec.Tag.Get("env")
		if name == "" {
			continue
		}
		raw := os.Getenv(name)
		if raw == "" {
			continue
		}
		if err := parseInto(field, raw); err != nil {
			return fmt.Errorf("field %s from $%s: %w", spec.Name, name, err)
		}
	}
	return nil
}

// parseInto stores raw in field, converting it to the field's kind.
func parseInto(field reflect.Value, raw string) error {
	switch field.Kind() {
	case reflect.Pointer:
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return parseInto(field.Elem(), raw)

	case reflect.String:
		field.SetString(raw)

	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(n)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(f)

	default:
		return fmt.Errorf("unsupported kind %v", field.Kind())
	}
	return nil
}
