package config

import "time"

type Config interface {
	EnvConfig
	CorsConfig
	CentralConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type CentralConfig interface {
	GetTokenURL() string
	GetWhoAmIURL() string
	GetLocalSitesPath() string
	GetAPIBaseTemplate() string
	GetAuthTimeout() time.Duration
	GetResourceTimeout() time.Duration
}

type mainConfig struct {
	EnvVars
	Cors
	Central
}

func New() Config {
	return mainConfig{}
}
