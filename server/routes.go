package server

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	// UI
	s.RegisterRouteHandler("GET "+RouteIndex, ChainMiddleware(s.IndexHandler(), s.HTMLMiddleware()...))

	// Local proxy API
	s.RegisterRouteHandler("POST "+RouteAPILogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPISites, ChainMiddleware(s.ListSitesHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPISites, ChainMiddleware(s.CreateSiteHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("DELETE "+RouteAPISiteByID, ChainMiddleware(s.DeleteSiteHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS "+RouteAPIPreflight, ChainMiddleware(s.PreflightHandler(), s.APIMiddleware()...))

	// Operational
	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.Handler())
}
