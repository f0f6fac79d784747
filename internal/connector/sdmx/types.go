package sdmx

import (
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the Eurostat dissemination API.
	DefaultBaseURL = "https://ec.europa.eu/eurostat/api/dissemination/sdmx/2.1"

	// DefaultAgencyID is the maintenance agency of Eurostat dataflows.
	DefaultAgencyID = "ESTAT"

	// DefaultStructureVersion resolves the most recent dataflow version.
	DefaultStructureVersion = "latest"

	// DefaultLanguage is preferred for names; others are a fallback.
	DefaultLanguage = "en"

	// DefaultTimeout bounds a single upstream request.
	DefaultTimeout = 60 * time.Second

	// DefaultRateLimit is requests per second.
	DefaultRateLimit = 5.0
)

// Config holds SDMX REST connection configuration.
type Config struct {
	// BaseURL is the SDMX 2.1 REST root (e.g., https://ec.europa.eu/eurostat/api/dissemination/sdmx/2.1)
	BaseURL string `json:"baseUrl" yaml:"baseUrl"`

	// AgencyID maintains the dataflows (e.g., ESTAT)
	AgencyID string `json:"agencyId" yaml:"agencyId"`

	// StructureVersion is the dataflow version requested, "latest" by default
	StructureVersion string `json:"structureVersion,omitempty" yaml:"structureVersion,omitempty"`

	// Language selects localized names
	Language string `json:"language,omitempty" yaml:"language,omitempty"`

	Timeout    time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	MaxRetries int           `json:"maxRetries,omitempty" yaml:"maxRetries,omitempty"`
	RateLimit  float64       `json:"rateLimit,omitempty" yaml:"rateLimit,omitempty"`
	RateBurst  int           `json:"rateBurst,omitempty" yaml:"rateBurst,omitempty"`
}

// DefaultConfig returns a config targeting Eurostat.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:          DefaultBaseURL,
		AgencyID:         DefaultAgencyID,
		StructureVersion: DefaultStructureVersion,
		Language:         DefaultLanguage,
		Timeout:          DefaultTimeout,
		MaxRetries:       3,
		RateLimit:        DefaultRateLimit,
		RateBurst:        2,
	}
}

// Validate validates the configuration and fills optional defaults.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return &ValidationError{Field: "baseUrl", Message: "required"}
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return &ValidationError{Field: "baseUrl", Message: "must be an http(s) URL"}
	}
	if c.AgencyID == "" {
		return &ValidationError{Field: "agencyId", Message: "required"}
	}
	if c.MaxRetries < 0 {
		return &ValidationError{Field: "maxRetries", Message: "must not be negative"}
	}
	if c.RateLimit < 0 {
		return &ValidationError{Field: "rateLimit", Message: "must not be negative"}
	}
	if c.StructureVersion == "" {
		c.StructureVersion = DefaultStructureVersion
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return nil
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
