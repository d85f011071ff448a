// Package config loads and validates the service configuration.
//
// All tunables live in one explicit Config struct handed to components
// at construction; nothing reads ambient global settings at runtime.
// Per-scope settings are resolved through a layered lookup: a named
// profile overrides only the fields it sets, everything else falls back
// to the global defaults.
package config

import (
	"math"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/catsync/catsync/model"
)

// DefaultScope is the reserved scope name for syncs run without a
// named profile.
const DefaultScope = "default"

// TranslatorDriver selects which translation provider backs the
// translator.
type TranslatorDriver string

const (
	DriverGoogle TranslatorDriver = "google"
	DriverDeepL  TranslatorDriver = "deepl"
	DriverLLM    TranslatorDriver = "llm"
)

// VendorConfig describes how to reach the remote catalog API.
type VendorConfig struct {
	BaseURL           string  `yaml:"baseURL"`
	Token             string  `yaml:"token"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
}

// TranslatorConfig describes the translation provider.
type TranslatorConfig struct {
	Driver            TranslatorDriver `yaml:"driver"`
	APIKey            string           `yaml:"apiKey"`
	Endpoint          string           `yaml:"endpoint"`
	Model             string           `yaml:"model"`
	RequestsPerSecond float64          `yaml:"requestsPerSecond"`
}

// Settings is the fully resolved set of per-scope sync tunables the
// engine operates on.
type Settings struct {
	SourceLanguage        string               `yaml:"sourceLanguage"`
	TargetLanguage        string               `yaml:"targetLanguage"`
	ExchangeRate          float64              `yaml:"exchangeRate"`
	MarkupPercent         float64              `yaml:"markupPercent"`
	PricePrecision        int                  `yaml:"pricePrecision"`
	MinBatchSize          int64                `yaml:"minBatchSize"`
	MaxBatchSize          int64                `yaml:"maxBatchSize"`
	FatalFailureThreshold int64                `yaml:"fatalFailureThreshold"`
	RequireNonEmptyText   bool                 `yaml:"requireNonEmptyText"`
	ProtectedFields       []string             `yaml:"protectedFields"`
	Filters               model.CatalogFilters `yaml:"filters"`
}

// Protection converts the configured protected field names into the
// typed mapping consumed by the product upsert.
func (s *Settings) Protection() model.FieldProtection {
	protection := model.FieldProtection{}
	for _, field := range s.ProtectedFields {
		protection[model.ProtectedField(field)] = true
	}
	return protection
}

// Profile overrides a subset of the default settings for one scope.
// Nil fields inherit the default; the layering is resolved by
// Resolver.Settings and nowhere else.
type Profile struct {
	SourceLanguage        *string               `yaml:"sourceLanguage"`
	TargetLanguage        *string               `yaml:"targetLanguage"`
	ExchangeRate          *float64              `yaml:"exchangeRate"`
	MarkupPercent         *float64              `yaml:"markupPercent"`
	PricePrecision        *int                  `yaml:"pricePrecision"`
	MinBatchSize          *int64                `yaml:"minBatchSize"`
	MaxBatchSize          *int64                `yaml:"maxBatchSize"`
	FatalFailureThreshold *int64                `yaml:"fatalFailureThreshold"`
	RequireNonEmptyText   *bool                 `yaml:"requireNonEmptyText"`
	ProtectedFields       []string              `yaml:"protectedFields"`
	Filters               *model.CatalogFilters `yaml:"filters"`
}

// Config is the top level service configuration.
type Config struct {
	Listen                string              `yaml:"listen"`
	Database              string              `yaml:"database"`
	SupervisorTickSeconds int                 `yaml:"supervisorTickSeconds"`
	Vendor                VendorConfig        `yaml:"vendor"`
	Translator            TranslatorConfig    `yaml:"translator"`
	Defaults              Settings            `yaml:"defaults"`
	Profiles              map[string]*Profile `yaml:"profiles"`
}

// Load reads, defaults, and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	config.applyDefaults()

	err = config.Validate()
	if err != nil {
		return nil, errors.Wrap(err, "config failed validation")
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = "localhost:8087"
	}
	if c.SupervisorTickSeconds <= 0 {
		c.SupervisorTickSeconds = 30
	}
	if c.Vendor.RequestsPerSecond <= 0 {
		c.Vendor.RequestsPerSecond = 5
	}
	if c.Translator.RequestsPerSecond <= 0 {
		c.Translator.RequestsPerSecond = 5
	}
	if c.Translator.Driver == "" {
		c.Translator.Driver = DriverGoogle
	}
	if c.Defaults.MinBatchSize == 0 {
		c.Defaults.MinBatchSize = 1
	}
	if c.Defaults.MaxBatchSize == 0 {
		c.Defaults.MaxBatchSize = 10
	}
	if c.Defaults.FatalFailureThreshold == 0 {
		c.Defaults.FatalFailureThreshold = 5
	}
	if c.Defaults.PricePrecision == 0 {
		c.Defaults.PricePrecision = 2
	}
	if c.Defaults.ExchangeRate == 0 {
		c.Defaults.ExchangeRate = 1
	}
	if c.Defaults.SourceLanguage == "" {
		c.Defaults.SourceLanguage = "en"
	}
	if c.Defaults.TargetLanguage == "" {
		c.Defaults.TargetLanguage = "en"
	}
}

// Validate rejects malformed configuration before any run loop can see
// it.
func (c *Config) Validate() error {
	if c.Database == "" {
		return errors.New("database must be set")
	}
	if c.Vendor.BaseURL == "" {
		return errors.New("vendor baseURL must be set")
	}

	switch c.Translator.Driver {
	case DriverGoogle, DriverDeepL, DriverLLM:
	default:
		return errors.Errorf("unknown translator driver %q", c.Translator.Driver)
	}

	err := validateSettings(&c.Defaults)
	if err != nil {
		return errors.Wrap(err, "invalid default settings")
	}

	resolver := c.Resolver()
	for name := range c.Profiles {
		settings := resolver.Settings(name)
		err = validateSettings(&settings)
		if err != nil {
			return errors.Wrapf(err, "invalid settings for profile %q", name)
		}
	}

	return nil
}

func validateSettings(settings *Settings) error {
	if settings.MinBatchSize < 1 {
		return errors.New("minBatchSize must be at least 1")
	}
	if settings.MaxBatchSize < settings.MinBatchSize {
		return errors.New("maxBatchSize must not be below minBatchSize")
	}
	if settings.FatalFailureThreshold < 1 {
		return errors.New("fatalFailureThreshold must be at least 1")
	}
	if settings.ExchangeRate <= 0 || math.IsInf(settings.ExchangeRate, 0) || math.IsNaN(settings.ExchangeRate) {
		return errors.New("exchangeRate must be a positive finite number")
	}
	if settings.MarkupPercent <= -100 {
		return errors.New("markupPercent must be greater than -100")
	}
	if settings.PricePrecision < 0 || settings.PricePrecision > 8 {
		return errors.New("pricePrecision must be between 0 and 8")
	}

	normalized, err := NormalizeLanguage(settings.SourceLanguage)
	if err != nil {
		return errors.Wrap(err, "invalid source language")
	}
	settings.SourceLanguage = normalized

	normalized, err = NormalizeLanguage(settings.TargetLanguage)
	if err != nil {
		return errors.Wrap(err, "invalid target language")
	}
	settings.TargetLanguage = normalized

	return settings.Protection().Validate()
}

// NormalizeLanguage parses a language code and reduces it to its base
// ISO 639-1 form, so "en-US" and "EN" both become "en".
func NormalizeLanguage(code string) (string, error) {
	tag, err := language.Parse(code)
	if err != nil {
		return "", errors.Wrapf(err, "failed to parse language code %q", code)
	}

	base, _ := tag.Base()
	return base.String(), nil
}

// Resolver answers per-scope settings lookups.
func (c *Config) Resolver() *Resolver {
	return &Resolver{
		defaults: c.Defaults,
		profiles: c.Profiles,
	}
}

// Resolver layers profile overrides on top of the global defaults. It
// is a pure function of the loaded configuration; resolving never
// mutates it.
type Resolver struct {
	defaults Settings
	profiles map[string]*Profile
}

// Settings returns the effective settings for a scope. Scopes without
// a profile, including the reserved default scope, get the global
// defaults.
func (r *Resolver) Settings(scope string) Settings {
	settings := r.defaults

	profile, ok := r.profiles[scope]
	if !ok || profile == nil {
		return settings
	}

	if profile.SourceLanguage != nil {
		settings.SourceLanguage = *profile.SourceLanguage
	}
	if profile.TargetLanguage != nil {
		settings.TargetLanguage = *profile.TargetLanguage
	}
	if profile.ExchangeRate != nil {
		settings.ExchangeRate = *profile.ExchangeRate
	}
	if profile.MarkupPercent != nil {
		settings.MarkupPercent = *profile.MarkupPercent
	}
	if profile.PricePrecision != nil {
		settings.PricePrecision = *profile.PricePrecision
	}
	if profile.MinBatchSize != nil {
		settings.MinBatchSize = *profile.MinBatchSize
	}
	if profile.MaxBatchSize != nil {
		settings.MaxBatchSize = *profile.MaxBatchSize
	}
	if profile.FatalFailureThreshold != nil {
		settings.FatalFailureThreshold = *profile.FatalFailureThreshold
	}
	if profile.RequireNonEmptyText != nil {
		settings.RequireNonEmptyText = *profile.RequireNonEmptyText
	}
	if profile.ProtectedFields != nil {
		settings.ProtectedFields = profile.ProtectedFields
	}
	if profile.Filters != nil {
		settings.Filters = *profile.Filters
	}

	return settings
}

// HasProfile reports whether a named profile exists for the scope.
func (r *Resolver) HasProfile(scope string) bool {
	_, ok := r.profiles[scope]
	return ok
}
