package sdmx

import (
	"time"

	"github.com/nucleus/sdmx-core/internal/connector/http"
	"github.com/nucleus/sdmx-core/internal/endpoint"
)

// init registers the SDMX factory with the global registry.
func init() {
	endpoint.DefaultRegistry().Register(TemplateID, func(config map[string]any) (endpoint.Endpoint, error) {
		cfg, err := ConfigFromMap(config)
		if err != nil {
			return nil, err
		}
		return New(cfg, WithAuth(http.AuthFromConfig(config)))
	})
}

// ConfigFromMap builds a config from registry-style settings, starting from
// DefaultConfig.
func ConfigFromMap(config map[string]any) (*Config, error) {
	def := DefaultConfig()
	timeout, err := getDuration(config, "timeout", def.Timeout)
	if err != nil {
		return nil, &ValidationError{Field: "timeout", Message: err.Error()}
	}
	return &Config{
		BaseURL:          getString(config, "baseUrl", def.BaseURL),
		AgencyID:         getString(config, "agencyId", def.AgencyID),
		StructureVersion: getString(config, "structureVersion", def.StructureVersion),
		Language:         getString(config, "language", def.Language),
		Timeout:          timeout,
		MaxRetries:       getInt(config, "maxRetries", def.MaxRetries),
		RateLimit:        getFloat(config, "rateLimit", def.RateLimit),
		RateBurst:        getInt(config, "rateBurst", def.RateBurst),
	}, nil
}

// --- Config Helpers ---

func getString(m map[string]any, key, defaultVal string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return defaultVal
}

func getInt(m map[string]any, key string, defaultVal int) int {
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return defaultVal
}

func getFloat(m map[string]any, key string, defaultVal float64) float64 {
	switch v := m[key].(type) {
	case int:
		return float64(v)
	case float64:
		return v
	}
	return defaultVal
}

func getDuration(m map[string]any, key string, defaultVal time.Duration) (time.Duration, error) {
	switch v := m[key].(type) {
	case time.Duration:
		return v, nil
	case string:
		return time.ParseDuration(v)
	case int:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	}
	return defaultVal, nil
}
