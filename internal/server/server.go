// Package server wires the engine's services onto a chi HTTP router.
// Authentication is out of scope; callers identify themselves via user_id.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/emberdate/engine/internal/app"
	"github.com/emberdate/engine/internal/service/admirers"
	"github.com/emberdate/engine/internal/service/block"
	"github.com/emberdate/engine/internal/service/feed"
	"github.com/emberdate/engine/internal/service/rewind"
	"github.com/emberdate/engine/internal/service/swipe"
)

// Services bundles everything the router exposes.
type Services struct {
	Feed     *feed.Service
	Swipe    *swipe.Service
	Rewind   *rewind.Service
	Admirers *admirers.Service
	Block    *block.Service
}

// Server is the HTTP surface over the matching engine.
type Server struct {
	appCtx   *app.AppContext
	services Services
	router   *chi.Mux
}

// New builds the router. Routes:
//
//	GET    /healthz
//	GET    /v1/feed
//	POST   /v1/swipes
//	POST   /v1/rewind
//	GET    /v1/admirers
//	GET    /v1/admirers/count
//	GET    /v1/matches
//	GET    /v1/blocks
//	POST   /v1/blocks
//	DELETE /v1/blocks/{targetID}
func New(appCtx *app.AppContext, services Services) *Server {
	s := &Server{
		appCtx:   appCtx,
		services: services,
		router:   chi.NewRouter(),
	}

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.Timeout(30 * time.Second))

	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/feed", s.handleFeed)
		r.Post("/swipes", s.handleSwipe)
		r.Post("/rewind", s.handleRewind)
		r.Get("/admirers", s.handleAdmirers)
		r.Get("/admirers/count", s.handleAdmirerCount)
		r.Get("/matches", s.handleMatches)
		r.Get("/blocks", s.handleBlockList)
		r.Post("/blocks", s.handleBlock)
		r.Delete("/blocks/{targetID}", s.handleUnblock)
	})

	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler { return s.router }

// Start blocks serving HTTP on the configured address.
func (s *Server) Start() error {
	addr := s.appCtx.Config.HTTP.Host + ":" + s.appCtx.Config.HTTP.Port
	s.appCtx.Logger.Info("starting http server", "addr", addr)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
