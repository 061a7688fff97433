package config

import (
	"codegen-relay/pkg/relay"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed variants.yaml
var variantsYAML []byte

const DefaultVariant = "ui"

// Upstream error representations at the HTTP boundary.
const (
	ErrorModeLegacy = "legacy"
	ErrorModeStatus = "status"
)

// Config holds everything main needs to start the relay.
type Config struct {
	Variant         relay.Variant
	Port            string
	LogLevel        string
	UpstreamTimeout time.Duration
	ErrorMode       string
	DatabaseURL     string
}

type catalogue struct {
	Variants []relay.Variant `yaml:"variants"`
}

// Variants returns the compiled-in deployments in declaration order.
func Variants() ([]relay.Variant, error) {
	return parseVariants(variantsYAML)
}

func parseVariants(data []byte) ([]relay.Variant, error) {
	var c catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse variants: %w", err)
	}
	if len(c.Variants) == 0 {
		return nil, errors.New("parse variants: no variants defined")
	}
	seen := make(map[string]bool, len(c.Variants))
	for _, v := range c.Variants {
		if err := v.Validate(); err != nil {
			return nil, err
		}
		if seen[v.Name] {
			return nil, fmt.Errorf("parse variants: duplicate variant %q", v.Name)
		}
		seen[v.Name] = true
	}
	return c.Variants, nil
}

// LookupVariant finds a compiled-in variant by name.
func LookupVariant(name string) (relay.Variant, error) {
	variants, err := Variants()
	if err != nil {
		return relay.Variant{}, err
	}
	names := make([]string, 0, len(variants))
	for _, v := range variants {
		if v.Name == name {
			return v, nil
		}
		names = append(names, v.Name)
	}
	return relay.Variant{}, fmt.Errorf("unknown variant %q (available: %s)", name, strings.Join(names, ", "))
}

// LoadDotEnv loads a .env file into the process environment. A missing file is
// not an error; variables already set are kept.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load %s: %w", strings.Join(existing, ", "), err)
	}
	return nil
}

// Load builds the Config from the environment.
func Load() (*Config, error) {
	name := getEnv("RELAY_VARIANT", DefaultVariant)
	variant, err := LookupVariant(name)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Variant:         variant,
		Port:            getEnv("PORT", variant.Port),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		UpstreamTimeout: 60 * time.Second,
		ErrorMode:       strings.ToLower(getEnv("UPSTREAM_ERROR_MODE", ErrorModeLegacy)),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	if v := os.Getenv("UPSTREAM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid UPSTREAM_TIMEOUT %q", v)
		}
		cfg.UpstreamTimeout = d
	}

	switch cfg.ErrorMode {
	case ErrorModeLegacy, ErrorModeStatus:
	default:
		return nil, fmt.Errorf("invalid UPSTREAM_ERROR_MODE %q (want %s or %s)", cfg.ErrorMode, ErrorModeLegacy, ErrorModeStatus)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
