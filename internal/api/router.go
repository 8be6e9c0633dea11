// Package api is the console's HTTP surface: a chi router over the console
// session manager, the incident repository, operator auth, overlay
// preferences and the style-config writer.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/technosupport/ts-console/internal/auth"
	"github.com/technosupport/ts-console/internal/console"
	"github.com/technosupport/ts-console/internal/incidents"
	"github.com/technosupport/ts-console/internal/middleware"
	"github.com/technosupport/ts-console/internal/prefs"
	"github.com/technosupport/ts-console/internal/ratelimit"
	"github.com/technosupport/ts-console/internal/styles"
	"github.com/technosupport/ts-console/internal/tokens"
)

// Deps is everything the router serves. Auth, Styles and Hub may be nil,
// which leaves their routes unmounted. The caller starts Hub.
type Deps struct {
	Sessions  *console.Manager
	Incidents incidents.Repository
	Catalog   *incidents.Catalog
	Prefs     *prefs.Service
	Styles    *styles.Manager
	Auth      *auth.Service
	Tokens    *tokens.Manager
	Blacklist auth.TokenBlacklist
	Limiter   *ratelimit.Limiter
	ChatLimit ratelimit.LimitConfig
	Health    *HealthHandler
	Hub       *PrefsHub
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.CORS)

	health := d.Health
	if health == nil {
		health = NewHealthHandler()
	}
	r.Get("/healthz", health.Live)
	r.Get("/readyz", health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	if d.Styles != nil {
		sh := &StylesHandler{Styles: d.Styles}
		r.Post("/api/styles", sh.Save)
		r.Get("/api/styles", sh.Status)
	}

	jwtAuth := middleware.NewJWTAuth(d.Tokens, d.Blacklist)
	ih := &IncidentHandler{Repo: d.Incidents, Catalog: d.Catalog}
	sh := &SessionHandler{Sessions: d.Sessions}
	ph := &PrefsHandler{Prefs: d.Prefs}

	r.Route("/api/v1", func(r chi.Router) {
		if d.Auth != nil {
			ah := &AuthHandler{Auth: d.Auth}
			r.Post("/auth/login", ah.Login)
			r.With(jwtAuth.Middleware).Post("/auth/logout", ah.Logout)
		}

		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)

			r.Get("/incidents", ih.List)
			r.Get("/incidents/{id}", ih.Get)
			r.Get("/incidents/{id}/timeline", ih.Timeline)
			r.Get("/cameras", ih.Cameras)

			r.Get("/prefs", ph.Get)
			r.Put("/prefs/{key}", ph.Toggle)
			if d.Hub != nil {
				r.Get("/prefs/ws", d.Hub.ServeWS)
			}

			r.Post("/sessions", sh.Create)
			r.Route("/sessions/{id}", func(r chi.Router) {
				r.Use(sh.owner)
				r.Get("/", sh.Get)
				r.Delete("/", sh.Delete)
				r.Put("/incident", sh.SelectIncident)
				r.With(middleware.RateLimit(d.Limiter, d.ChatLimit)).Post("/messages", sh.SendMessage)
				r.Post("/keys", sh.HandleKey)
				r.Post("/popups/{kind}", sh.OpenPopup)
				r.Delete("/popups/{kind}", sh.ClosePopup)
				r.Post("/monitoring", sh.AddMonitoring)
				r.Delete("/monitoring/{key}", sh.RemoveMonitoring)
				r.Post("/playback", sh.Playback)
				r.Post("/clips", sh.SaveClip)
				r.Delete("/clips/{clipID}", sh.RemoveClip)
				r.Post("/clips/{clipID}/ready", sh.MarkClipReady)
				r.Post("/clips/{clipID}/draft", sh.MoveClipToDraft)
				r.Put("/draft", sh.ComposeDraft)
				r.Post("/draft/send", sh.SendBroadcast)
				r.Post("/tracking/reselect", sh.BeginReselect)
				r.Post("/tracking/reselect/drag", sh.DragReselect)
				r.Post("/tracking/reselect/finish", sh.FinishReselect)
				r.Post("/tracking/agent", sh.SendToAgent)
			})
		})
	})
	return r
}
