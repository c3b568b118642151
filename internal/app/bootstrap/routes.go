// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"
	"time"

	adminusersfeature "github.com/dalemusser/robohub/internal/app/features/adminusers"
	auditlogfeature "github.com/dalemusser/robohub/internal/app/features/auditlog"
	clienterrorsfeature "github.com/dalemusser/robohub/internal/app/features/clienterrors"
	communityfeature "github.com/dalemusser/robohub/internal/app/features/community"
	competitionsfeature "github.com/dalemusser/robohub/internal/app/features/competitions"
	errorsfeature "github.com/dalemusser/robohub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/robohub/internal/app/features/health"
	loginfeature "github.com/dalemusser/robohub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/robohub/internal/app/features/logout"
	profilefeature "github.com/dalemusser/robohub/internal/app/features/profile"
	schoolsfeature "github.com/dalemusser/robohub/internal/app/features/schools"
	signupfeature "github.com/dalemusser/robohub/internal/app/features/signup"
	teamsfeature "github.com/dalemusser/robohub/internal/app/features/teams"
	userinfofeature "github.com/dalemusser/robohub/internal/app/features/userinfo"
	"github.com/dalemusser/robohub/internal/app/services/accounts"
	communitysvc "github.com/dalemusser/robohub/internal/app/services/community"
	compsvc "github.com/dalemusser/robohub/internal/app/services/competitions"
	profilesvc "github.com/dalemusser/robohub/internal/app/services/profile"
	"github.com/dalemusser/robohub/internal/app/services/registration"
	"github.com/dalemusser/robohub/internal/app/services/roster"
	schoolsvc "github.com/dalemusser/robohub/internal/app/services/schools"
	"github.com/dalemusser/robohub/internal/app/services/useradmin"
	"github.com/dalemusser/robohub/internal/app/store"
	userstore "github.com/dalemusser/robohub/internal/app/store/users"
	"github.com/dalemusser/robohub/internal/app/system/auditlog"
	"github.com/dalemusser/robohub/internal/app/system/auth"
	"github.com/dalemusser/robohub/internal/app/system/limits"
	"github.com/dalemusser/robohub/internal/app/system/metrics"
	"github.com/dalemusser/robohub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// clientErrorRateLimit caps browser error reports per IP per minute.
const clientErrorRateLimit = 30

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. RoboHub builds the Mongo-backed store set,
// the services over it, and mounts one JSON feature router per area.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	if deps.RateCounter == nil {
		return nil, errors.New("bootstrap: rate counter not connected")
	}
	set := mongoStores(deps.MongoDatabase, logger)
	return newRouter(coreCfg, appCfg, set, deps.RateCounter, deps, logger)
}

// newRouter wires services and feature routers over set.
func newRouter(coreCfg *config.CoreConfig, appCfg AppConfig, set store.Set, counter ratelimit.Counter, deps DBDeps, logger *zap.Logger) (chi.Router, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// LoadSessionUser reloads the user on each request, so role changes and
	// deactivation take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(set.Users))

	recorder := auditlog.New(set.AuditLog, logger, auditlog.Config{
		Mirror:   appCfg.AuditLogMirror,
		PageSize: appCfg.AuditPageSize,
	})

	acctSvc := accounts.New(set.Users, set.Schools, set.Tx, logger)
	compSvc := compsvc.New(set.Competitions, logger)
	regSvc := registration.New(set.Competitions, set.Teams, logger)
	rosterSvc := roster.New(set.Teams, set.Users, set.Schools, logger)
	adminSvc := useradmin.New(set.Users, set.Tx, recorder, logger)
	schoolSvc := schoolsvc.New(set.Schools, set.Users, set.Tx, logger)
	profileSvc := profilesvc.New(set.Users, logger)
	communitySvc := communitysvc.New(set.Posts, set.Comments, set.Users, set.Tx, logger)

	signupLimit := ratelimit.New(counter, "signup", appCfg.SignupRateLimit, appCfg.SignupRateWindow)
	commentLimit := ratelimit.New(counter, "comment", appCfg.CommentRateLimit, appCfg.CommentRateWindow)
	registerLimit := ratelimit.New(counter, "register", appCfg.RegisterRateLimit, appCfg.RegisterRateWindow)
	loginLimit := ratelimit.NewLoginLimiter(counter)
	clientErrorLimit := ratelimit.New(counter, "client_error", clientErrorRateLimit, time.Minute)

	errorsHandler := errorsfeature.NewHandler()

	r := chi.NewRouter()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Rate limits key on RemoteAddr; only a trusted proxy may rewrite it.
	if appCfg.TrustProxy {
		r.Use(middleware.RealIP)
	}

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	var healthHandler *healthfeature.Handler
	if deps.Redis != nil {
		healthHandler = healthfeature.NewHandler(deps.MongoClient, deps.Redis, logger)
	} else {
		healthHandler = healthfeature.NewHandler(deps.MongoClient, nil, logger)
	}
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(api chi.Router) {
		api.Use(limits.Body(limits.MaxJSONBodySize))

		// Authentication
		loginHandler := loginfeature.NewHandler(acctSvc, sessionMgr, loginLimit, logger)
		api.Mount("/api/auth/login", loginfeature.Routes(loginHandler))

		logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
		api.Mount("/api/auth/logout", logoutfeature.Routes(logoutHandler))

		signupHandler := signupfeature.NewHandler(acctSvc, logger)
		api.Mount("/api/auth/signup", signupfeature.Routes(signupHandler, signupLimit))

		userinfofeature.MountRoutes(api, userinfofeature.NewHandler())

		// Competitions and teams
		compHandler := competitionsfeature.NewHandler(compSvc, regSvc, logger)
		api.Mount("/api/competitions", competitionsfeature.Routes(compHandler, sessionMgr, registerLimit))

		teamsHandler := teamsfeature.NewHandler(rosterSvc, logger)
		api.Mount("/api/teams", teamsfeature.Routes(teamsHandler, sessionMgr))

		schoolsHandler := schoolsfeature.NewHandler(schoolSvc, logger)
		api.Mount("/api/schools", schoolsfeature.Routes(schoolsHandler, sessionMgr))

		// Administration
		adminUsersHandler := adminusersfeature.NewHandler(adminSvc, logger)
		api.Mount("/api/admin/users", adminusersfeature.Routes(adminUsersHandler, sessionMgr))

		auditHandler := auditlogfeature.NewHandler(recorder, logger)
		api.Mount("/api/admin/audit-log", auditlogfeature.Routes(auditHandler, sessionMgr))

		// Profiles
		profileHandler := profilefeature.NewHandler(profileSvc, logger)
		api.Mount("/api/users/{id}/profile", profilefeature.Routes(profileHandler, sessionMgr))

		// Browser error reports
		clientErrorsHandler := clienterrorsfeature.NewHandler(logger)
		api.Mount("/api/client-errors", clienterrorsfeature.Routes(clientErrorsHandler, clientErrorLimit))
	})

	// Community posts carry HTML content and get a larger body limit.
	r.Group(func(api chi.Router) {
		api.Use(limits.Body(limits.MaxPostBodySize))

		communityHandler := communityfeature.NewHandler(communitySvc, logger)
		api.Mount("/api/community", communityfeature.Routes(communityHandler, sessionMgr, commentLimit))
		api.Mount("/api/coaches", communityfeature.CoachRoutes(communityHandler, sessionMgr))
	})

	return r, nil
}
