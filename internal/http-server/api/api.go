package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"linktrack/internal/config"
	"linktrack/internal/http-server/handlers/errors"
	"linktrack/internal/http-server/handlers/links"
	"linktrack/internal/http-server/handlers/track"
	"linktrack/internal/http-server/middleware/authenticate"
	"linktrack/internal/http-server/middleware/timeout"
	"linktrack/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

// Handler is the full service surface the HTTP layer needs; impl/core.Core
// satisfies it.
type Handler interface {
	track.Core
	links.Core
}

func New(conf *config.Config, log *slog.Logger, handler Handler) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	router := chi.NewRouter()
	router.Use(timeout.Timeout(5))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	// Public redirect endpoint: no auth, by design.
	router.Get("/track", track.Redirect(log, handler))

	router.Route("/v1", func(rootApi chi.Router) {
		rootApi.Use(authenticate.New(log, authenticate.Config{
			Token:   conf.Api.Token,
			AdminId: conf.Telegram.AdminId,
		}))
		rootApi.Route("/link", func(ln chi.Router) {
			ln.Post("/", links.Create(log, handler))
			ln.Get("/{id}/stats", links.Stats(log, handler))
			ln.Put("/{id}/title", links.UpdateTitle(log, handler))
		})
		rootApi.Get("/referrer/{id}/stats", links.ReferrerStats(log, handler))
	})

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:      router,
		ErrorLog:     httpLog,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIp, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
