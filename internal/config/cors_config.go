package config

import "strings"

type Cors struct{}

var _ CorsConfig = Cors{}

// AllowedOrigins is a set of origin prefixes the local API will answer for.
// The UI is served from this process, so only loopback origins make sense.
type AllowedOrigins []string

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	for _, prefix := range a {
		if strings.HasPrefix(origin, prefix) {
			return true
		}
	}
	return false
}

func (a AllowedOrigins) String() string {
	return strings.Join(a, ", ")
}

var allowedOrigins = AllowedOrigins{"http://localhost", "http://127.0.0.1"}

func (Cors) GetAllowedOrigins() AllowedOrigins {
	return allowedOrigins
}

func (Cors) GetAllowedMethods() string {
	return "GET, POST, DELETE, OPTIONS"
}

func (Cors) GetAllowedHeaders() string {
	return "Content-Type, Authorization, X-Tenant-ID"
}
