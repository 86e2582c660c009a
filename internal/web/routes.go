package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/faceproctor/faceproctor/internal/web/handlers"
	"github.com/faceproctor/faceproctor/internal/web/middleware"
)

func (s *Server) setupRoutes(deps Deps) {
	authHandler := handlers.NewAuthHandler(deps.Registry, deps.Controller, s.sessionManager)
	examHandler := handlers.NewExamHandler(deps.Controller)
	adminHandler := handlers.NewAdminHandler(
		deps.Registry,
		deps.Controller,
		deps.AuthLog,
		deps.ResultLog,
		deps.TimeLimits,
		s.sessionManager,
		s.config.Exam.DefaultTimeLimitSeconds,
		s.config.Data.QuestionsPath(),
	)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Face verification routes open a session, so no auth required.
		r.Post("/register", authHandler.Register)
		r.Post("/authenticate", authHandler.Authenticate)
		r.Post("/identify", authHandler.Identify)
		r.Post("/logout", authHandler.Logout)

		// Exam flow requires a verified session.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.sessionManager))

			r.Post("/exam/start", examHandler.Start)
			r.Get("/exam", examHandler.Status)
			r.Post("/exam/answer", examHandler.Answer)
			r.Post("/exam/navigate", examHandler.Navigate)
			r.Post("/exam/submit", examHandler.Submit)
		})

		// Admin surface, token gated.
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(s.config.Admin.Token))

			r.Get("/users", adminHandler.ListUsers)
			r.Delete("/users/{username}", adminHandler.DeleteUser)
			r.Get("/log", adminHandler.AuthLog)
			r.Get("/results", adminHandler.Results)
			r.Get("/timelimit/{username}", adminHandler.GetTimeLimit)
			r.Put("/timelimit/{username}", adminHandler.SetTimeLimit)
			r.Post("/reset/{username}", adminHandler.Reset)
			r.Get("/questions", adminHandler.GetQuestions)
			r.Put("/questions", adminHandler.PutQuestions)
		})
	})
}
