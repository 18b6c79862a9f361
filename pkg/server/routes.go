package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"agentguard-hq/agentguard/pkg/proxy/middleware"
	"agentguard-hq/agentguard/pkg/security/auth"
	"agentguard-hq/agentguard/pkg/telemetry/health"
	"agentguard-hq/agentguard/pkg/telemetry/tracing"
)

// ProxyRoute is the path template of the recording proxy.
const ProxyRoute = "/proxy/{provider}/{path:.*}"

// unmatchedRoute labels requests no route matched, keeping metric label
// cardinality bounded.
const unmatchedRoute = "unmatched"

// setupRoutes registers every route on r and wraps it in the middleware
// chain.
func (s *Server) setupRoutes(r *mux.Router) http.Handler {
	tel := s.cfg.Telemetry

	s.api.RegisterPublicRoutes(r)
	r.HandleFunc(tel.Health.LivenessPath, s.health.LivenessHandler()).Methods("GET", "HEAD")
	r.HandleFunc(tel.Health.ReadinessPath, s.health.ReadinessHandler()).Methods("GET", "HEAD")
	r.HandleFunc("/version", health.VersionHandler(s.build.Version, s.build.Commit, s.build.BuildTime)).Methods("GET")
	if tel.Metrics.MetricsEnabled() {
		r.Handle(tel.Metrics.Path, s.collector.Handler()).Methods("GET")
	}

	r.Handle(ProxyRoute, s.proxy).Methods("GET", "POST", "PUT", "DELETE")

	apiRouter := r.MatcherFunc(isAPIRequest).Subrouter()
	apiRouter.Use(middleware.TimeoutMiddleware(s.cfg.Server.RequestTimeout))
	if s.validator != nil {
		apiRouter.Use(auth.NewMiddleware(s.validator).Handle)
	}
	s.api.RegisterRoutes(apiRouter)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   s.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.Chain(r,
		middleware.RecoveryMiddleware,
		middleware.RequestIDMiddleware,
		tracing.HTTPMiddleware,
		middleware.Logging(s.collector, routeTemplate(r)),
		corsHandler.Handler,
	)
}

func isAPIRequest(r *http.Request, _ *mux.RouteMatch) bool {
	return r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/")
}

// routeTemplate labels a request with the path template of the route that
// serves it.
func routeTemplate(router *mux.Router) func(*http.Request) string {
	return func(r *http.Request) string {
		var match mux.RouteMatch
		if !router.Match(r, &match) || match.Route == nil {
			return unmatchedRoute
		}
		tpl, err := match.Route.GetPathTemplate()
		if err != nil {
			return unmatchedRoute
		}
		return tpl
	}
}
