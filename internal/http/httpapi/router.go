package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/lumiself/ai-influencer-studio/internal/http/handlers"
	"github.com/lumiself/ai-influencer-studio/internal/middleware"
)

// Options tunes the router beyond what the App carries.
type Options struct {
	AllowedOrigins []string
	RateLimit      int
	CountryLookup  middleware.CountryLookup
	StaticDir      string
}

func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(app.Logger))
	r.Use(middleware.CORS(opts.AllowedOrigins))
	r.Use(middleware.I18N(app.Config.DefaultLocale, opts.CountryLookup))

	// Health and provider callbacks stay outside auth: the webhook carries no
	// user token and authenticates by the unguessable prediction id.
	r.Get("/v1/healthz", app.Health)
	r.Post("/webhooks/replicate", app.WebhookReplicate)

	if opts.StaticDir != "" {
		fs := stdhttp.StripPrefix("/static/", stdhttp.FileServer(stdhttp.Dir(opts.StaticDir)))
		r.Get("/static/*", fs.ServeHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(app.Config.JWTSecret))
		r.Use(middleware.RequireUploadCapability())
		r.Use(middleware.RequireNonce(app.Config.JWTSecret))
		if opts.RateLimit > 0 {
			r.Use(middleware.RateLimit(opts.RateLimit, time.Minute))
		}

		r.Get("/v1/nonce", app.Nonce)

		r.Route("/v1/poses", func(r chi.Router) {
			r.Post("/", app.PosesPropose)
			r.Post("/duo", app.PosesProposeDuo)
		})

		r.Route("/v1/syntheses", func(r chi.Router) {
			r.Post("/", app.SynthesesCreate)
			r.Post("/duo", app.SynthesesCreateDuo)
		})

		r.Get("/v1/predictions/{id}", app.PredictionStatus)

		r.Route("/v1/media", func(r chi.Router) {
			r.Post("/uploads", app.MediaUpload)
			r.Post("/results", app.MediaSaveResult)
		})
	})

	return r
}
