package track

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"linktrack/impl/core"
	"linktrack/lib/api/response"
	"linktrack/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// Core is the redirect resolution the handler depends on.
// Implemented by impl/core.Core.
type Core interface {
	Resolve(rawLinkId, rawReferrer, campaign, sourceIp string) (string, error)
}

// Redirect handles GET /track?id=<int>&ref=<int?>&campaign=<string?>.
// Attribution is recorded inside Resolve; this layer only maps errors to
// status codes. The redirect is always temporary: destinations may change,
// a 301 would let clients cache us away.
func Redirect(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.track")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		q := r.URL.Query()
		dest, err := handler.Resolve(q.Get("id"), q.Get("ref"), q.Get("campaign"), sourceIp(r))
		switch {
		case errors.Is(err, core.ErrInvalidRequest):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid link id"))
			return
		case errors.Is(err, core.ErrNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("Link not found"))
			return
		case err != nil:
			logger.Error("resolving redirect", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Temporary failure"))
			return
		}

		logger.Debug("redirecting", slog.String("id", q.Get("id")))
		http.Redirect(w, r, dest, http.StatusFound)
	}
}

// sourceIp is the client address recorded with the click: first
// X-Forwarded-For hop when the proxy set one, else the connection address
// with the port stripped.
func sourceIp(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
