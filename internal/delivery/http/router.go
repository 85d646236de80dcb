package http

import (
	"net/http"

	"nutrition-intake/internal/delivery/http/handler"
	"nutrition-intake/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router            *mux.Router
	intakeHandler     *handler.IntakeHandler
	healthHandler     *handler.HealthHandler
	sessionMiddleware *middleware.SessionMiddleware
	corsMiddleware    *middleware.CORSMiddleware
	loggingMiddleware *middleware.LoggingMiddleware
}

func NewRouter(
	intakeHandler *handler.IntakeHandler,
	healthHandler *handler.HealthHandler,
	sessionMiddleware *middleware.SessionMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	loggingMiddleware *middleware.LoggingMiddleware,
) *Router {
	return &Router{
		router:            mux.NewRouter(),
		intakeHandler:     intakeHandler,
		healthHandler:     healthHandler,
		sessionMiddleware: sessionMiddleware,
		corsMiddleware:    corsMiddleware,
		loggingMiddleware: loggingMiddleware,
	}
}

func (r *Router) Setup() http.Handler {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthHandler.Check).Methods(http.MethodGet)

	// Intake routes (public)
	intake := api.PathPrefix("/intake").Subrouter()
	intake.HandleFunc("/sessions", r.intakeHandler.StartSession).Methods(http.MethodPost)
	intake.HandleFunc("/options", r.intakeHandler.GetOptions).Methods(http.MethodGet)

	// Intake routes (session token required)
	session := api.PathPrefix("/intake").Subrouter()
	session.Use(r.sessionMiddleware.Authenticate)
	session.HandleFunc("/mode", r.intakeHandler.SelectMode).Methods(http.MethodPost)
	session.HandleFunc("/clear", r.intakeHandler.Clear).Methods(http.MethodPost)
	session.HandleFunc("/recovery", r.intakeHandler.SetRecoveryMode).Methods(http.MethodPost)
	session.HandleFunc("/profile/load", r.intakeHandler.LoadProfile).Methods(http.MethodPost)
	session.HandleFunc("/profile/recover", r.intakeHandler.RecoverProfile).Methods(http.MethodPost)
	session.HandleFunc("/submit", r.intakeHandler.Submit).Methods(http.MethodPost)
	session.HandleFunc("/test-kit", r.intakeHandler.UploadTestKit).Methods(http.MethodPost)

	var h http.Handler = r.router
	h = r.loggingMiddleware.Recover(h)
	h = r.loggingMiddleware.Handle(h)
	return r.corsMiddleware.Handle(h)
}
