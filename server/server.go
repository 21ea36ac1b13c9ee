package server

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mdc004/sophosURLmanager/internal/config"
	"github.com/mdc004/sophosURLmanager/internal/metrics"
	"github.com/mdc004/sophosURLmanager/session"
	"github.com/mdc004/sophosURLmanager/sites"
)

// Server is the thin HTTP front end over the session manager and the sites
// proxy. It serves the embedded UI and routes the local API; it never touches
// session state directly.
type Server struct {
	env     string // Environment (e.g., "DEV", "production")
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	session *session.Manager
	sites   *sites.Proxy
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func New(cfg config.Config, sessionManager *session.Manager, sitesProxy *sites.Proxy, m *metrics.Metrics, logger zerolog.Logger) (*Server, error) {
	if sessionManager == nil {
		return nil, fmt.Errorf("[Server New] session manager is required")
	}
	if sitesProxy == nil {
		return nil, fmt.Errorf("[Server New] sites proxy is required")
	}

	s := &Server{
		mux:     http.NewServeMux(),
		config:  cfg,
		session: sessionManager,
		sites:   sitesProxy,
		metrics: m,
		log:     logger.With().Str("component", "server").Logger(),
	}
	s.env = cfg.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}
