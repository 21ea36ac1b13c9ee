package server

const (
	RouteIndex = "/"

	RouteAPILogin     = "/api/login"
	RouteAPISites     = "/api/local-sites"
	RouteAPISiteByID  = "/api/local-sites/{id}"
	RouteAPIPreflight = "/api/"
	RouteMetrics      = "/metrics"
)
