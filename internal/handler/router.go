package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	sessionHandler "github.com/mentorlink/backend/internal/handler/session"
	middlewarePkg "github.com/mentorlink/backend/internal/middleware"
	"github.com/mentorlink/backend/internal/service/booking"
)

// NewRouter wires HTTP routes to the booking core.
func NewRouter(bookingSvc *booking.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	sessions := sessionHandler.New(bookingSvc)

	r.Route("/api", func(api chi.Router) {
		api.Use(middlewarePkg.Identity)
		sessions.RegisterRoutes(api)
	})

	return r
}
