package http

import (
	"encoding/base64"
	"net/http"
)

// =============================================================================
// AUTHENTICATION STRATEGIES
// =============================================================================

// AuthConfig represents authentication configuration.
type AuthConfig interface {
	Apply(req *http.Request)
}

// NoAuth represents no authentication. Public dissemination APIs use it.
type NoAuth struct{}

func (a NoAuth) Apply(req *http.Request) {}

// BasicAuth uses HTTP Basic Authentication.
type BasicAuth struct {
	Username string
	Password string
}

// Apply adds Basic auth header to the request.
func (a BasicAuth) Apply(req *http.Request) {
	if a.Username == "" && a.Password == "" {
		return
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password))
	req.Header.Set("Authorization", "Basic "+credentials)
}

// BearerToken uses Bearer token authentication.
type BearerToken struct {
	Token string
}

// Apply adds Bearer token header to the request.
func (a BearerToken) Apply(req *http.Request) {
	if a.Token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+a.Token)
}

// APIKey uses API key authentication.
type APIKey struct {
	Key    string
	Header string // Header name (default: X-API-Key)
}

// Apply adds API key header to the request.
func (a APIKey) Apply(req *http.Request) {
	if a.Key == "" {
		return
	}
	header := a.Header
	if header == "" {
		header = "X-API-Key"
	}
	req.Header.Set(header, a.Key)
}

// AuthFromConfig picks a strategy from connector config keys: "token" for
// bearer, "apiKey" (+ "apiKeyHeader") for key headers, "username"/"password"
// for basic. Without any of them the result is NoAuth.
func AuthFromConfig(config map[string]any) AuthConfig {
	str := func(key string) string {
		if v, ok := config[key].(string); ok {
			return v
		}
		return ""
	}
	switch {
	case str("token") != "":
		return BearerToken{Token: str("token")}
	case str("apiKey") != "":
		return APIKey{Key: str("apiKey"), Header: str("apiKeyHeader")}
	case str("username") != "":
		return BasicAuth{Username: str("username"), Password: str("password")}
	default:
		return NoAuth{}
	}
}
