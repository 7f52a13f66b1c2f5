package authenticate

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"linktrack/entity"
	"linktrack/lib/api/cont"
	"linktrack/lib/api/response"
	"linktrack/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// Config carries the static API credential and the identity it maps to.
// The /v1 surface is administrative, so the token is bound to the single
// configured admin.
type Config struct {
	Token   string
	AdminId int64
}

func New(log *slog.Logger, conf Config) func(next http.Handler) http.Handler {
	mod := sl.Module("middleware.authenticate")
	log.With(mod).Info("authenticate middleware initialized")

	return func(next http.Handler) http.Handler {

		fn := func(w http.ResponseWriter, r *http.Request) {
			id := middleware.GetReqID(r.Context())
			remote := r.RemoteAddr
			// if the request is coming from a proxy, use the X-Forwarded-For header
			xRemote := r.Header.Get("X-Forwarded-For")
			if xRemote != "" {
				remote = xRemote
			}
			logger := log.With(
				mod,
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", remote),
				slog.String("request_id", id),
			)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			t1 := time.Now()
			defer func() {
				logger.With(
					slog.Int("status", ww.Status()),
					slog.Int("size", ww.BytesWritten()),
					slog.Float64("duration", time.Since(t1).Seconds()),
				).Info("incoming request")
			}()

			token := ""
			header := r.Header.Get("Authorization")
			if len(header) == 0 {
				logger = logger.With(sl.Err(fmt.Errorf("authorization header not found")))
				authFailed(ww, r, "Authorization header not found")
				return
			}
			if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			}
			if len(token) == 0 {
				logger = logger.With(sl.Err(fmt.Errorf("token not found")))
				authFailed(ww, r, "Token not found")
				return
			}
			logger = logger.With(sl.Secret("token", token))

			if conf.Token == "" {
				authFailed(ww, r, "Unauthorized: authentication not enabled")
				return
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(conf.Token)) != 1 {
				logger = logger.With(sl.Err(fmt.Errorf("token mismatch")))
				authFailed(ww, r, "Unauthorized")
				return
			}

			ctx := cont.PutActor(r.Context(), entity.Actor{Id: conf.AdminId, Admin: true})

			ww.Header().Set("X-Request-ID", id)
			next.ServeHTTP(ww, r.WithContext(ctx))
		}

		return http.HandlerFunc(fn)
	}
}

func authFailed(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, response.Error(message))
}
