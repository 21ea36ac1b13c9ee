package config

import "time"

const (
	tokenURLVar        = "SOPHOS_TOKEN_URL"
	whoAmIURLVar       = "SOPHOS_WHOAMI_URL"
	localSitesPathVar  = "SOPHOS_LOCAL_SITES_PATH"
	apiBaseTemplateVar = "SOPHOS_API_BASE_TEMPLATE"
)

type Central struct{}

var _ CentralConfig = Central{}

// GetTokenURL returns the Sophos IDP token endpoint for the
// client-credentials grant.
func (Central) GetTokenURL() string {
	return GetEnv(tokenURLVar, "https://id.sophos.com/api/v2/oauth2/token")
}

// GetWhoAmIURL returns the region-agnostic identity-resolution endpoint.
func (Central) GetWhoAmIURL() string {
	return GetEnv(whoAmIURLVar, "https://api.central.sophos.com/whoami/v1")
}

// GetLocalSitesPath returns the local-sites collection path, relative to the
// tenant's regional API base.
func (Central) GetLocalSitesPath() string {
	return GetEnv(localSitesPathVar, "/endpoint/v1/settings/web-control/local-sites")
}

// GetAPIBaseTemplate returns the printf template that derives a regional API
// base from a data-region code, e.g. "eu01" -> "https://api-eu01.central.sophos.com".
func (Central) GetAPIBaseTemplate() string {
	return GetEnv(apiBaseTemplateVar, "https://api-%s.central.sophos.com")
}

func (Central) GetAuthTimeout() time.Duration {
	return getDuration("SOPHOS_AUTH_TIMEOUT", 20*time.Second)
}

func (Central) GetResourceTimeout() time.Duration {
	return getDuration("SOPHOS_RESOURCE_TIMEOUT", 30*time.Second)
}

func getDuration(envVar string, defaultValue time.Duration) time.Duration {
	value := GetEnv(envVar, "")
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
