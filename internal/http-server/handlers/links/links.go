package links

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"linktrack/entity"
	"linktrack/impl/core"
	"linktrack/lib/api/cont"
	"linktrack/lib/api/response"
	"linktrack/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// Core defines the link operations the API surface depends on.
// Implemented by impl/core.Core.
type Core interface {
	CreateLink(url string, ownerId int64, title string) (*entity.Link, error)
	Link(id int64) (*entity.Link, error)
	UpdateLinkTitle(id int64, title string) error
	ClickCount(linkId int64) (int, error)
	ReferralCount(referrerId int64) (int, error)
	TrackURL(linkId int64, referrerId *int64, campaign string) string
}

type linkData struct {
	Link     *entity.Link `json:"link"`
	TrackUrl string       `json:"track_url"`
}

type statsData struct {
	Link     *entity.Link `json:"link"`
	Clicks   int          `json:"clicks"`
	TrackUrl string       `json:"track_url"`
}

type referrerData struct {
	ReferrerId int64 `json:"referrer_id"`
	Referrals  int   `json:"referrals"`
}

// Create handles POST /v1/link. The link is owned by the authenticated
// actor (the admin the API token maps to).
func Create(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		var req entity.CreateLinkRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request: "+err.Error()))
			return
		}

		actor := cont.GetActor(r.Context())
		link, err := handler.CreateLink(req.Url, actor.Id, req.Title)
		if err != nil {
			logger.Error("create link", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Create link: "+err.Error()))
			return
		}
		logger.Info("link created", slog.Int64("id", link.Id))

		render.JSON(w, r, response.Ok(linkData{
			Link:     link,
			TrackUrl: handler.TrackURL(link.Id, nil, ""),
		}))
	}
}

// Stats handles GET /v1/link/{id}/stats.
func Stats(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		id, ok := pathId(w, r)
		if !ok {
			return
		}

		link, err := handler.Link(id)
		if errors.Is(err, core.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("Link not found"))
			return
		}
		if err != nil {
			logger.Error("link lookup", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Temporary failure"))
			return
		}

		clicks, err := handler.ClickCount(id)
		if err != nil {
			logger.Error("click count", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Temporary failure"))
			return
		}

		render.JSON(w, r, response.Ok(statsData{
			Link:     link,
			Clicks:   clicks,
			TrackUrl: handler.TrackURL(id, nil, ""),
		}))
	}
}

// UpdateTitle handles PUT /v1/link/{id}/title. The destination URL stays
// immutable; the title is the only mutable field of a link.
func UpdateTitle(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		id, ok := pathId(w, r)
		if !ok {
			return
		}

		var req entity.LinkTitleRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request: "+err.Error()))
			return
		}

		err := handler.UpdateLinkTitle(id, req.Title)
		if errors.Is(err, core.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("Link not found"))
			return
		}
		if err != nil {
			logger.Error("update title", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Temporary failure"))
			return
		}

		render.JSON(w, r, response.Ok(nil))
	}
}

// ReferrerStats handles GET /v1/referrer/{id}/stats.
func ReferrerStats(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		id, ok := pathId(w, r)
		if !ok {
			return
		}

		referrals, err := handler.ReferralCount(id)
		if err != nil {
			logger.Error("referral count", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Temporary failure"))
			return
		}

		render.JSON(w, r, response.Ok(referrerData{
			ReferrerId: id,
			Referrals:  referrals,
		}))
	}
}

func requestLogger(log *slog.Logger, r *http.Request) *slog.Logger {
	return log.With(
		sl.Module("http.handlers.links"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func pathId(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("Invalid id"))
		return 0, false
	}
	return id, true
}
