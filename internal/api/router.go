package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/MichaelPatrick99/OLLAMA-API/internal/api/handlers"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/api/middleware"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/auth"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/cache"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/config"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/ollama"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/queue"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/store"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/usage"
)

// Deps carries everything the router wires together. Construction of the
// services from these stays in one place so cmd/api stays thin.
type Deps struct {
	Cfg    *config.Config
	Store  *store.Store
	Cache  *cache.Cache
	Ollama *ollama.Client
	Queue  *queue.Client
	Log    *slog.Logger
}

// NewRouter assembles the full HTTP surface. Protected routes all pass
// through the mediator; only health and the auth endpoints are open.
func NewRouter(d Deps) http.Handler {
	tokens := auth.NewTokenService(d.Cfg.Auth.JWTSecret, d.Cfg.Auth.TokenTTL)
	userSvc := auth.NewUserService(d.Store)
	keySvc := auth.NewAPIKeyService(d.Store, d.Store,
		time.Duration(d.Cfg.Auth.KeyDefaultExpireDays)*24*time.Hour)
	resolver := auth.NewResolver(tokens, keySvc, d.Store, d.Cfg.Auth.APIKeyHeader)
	policy := auth.NewPolicy()
	recorder := usage.NewRecorder(d.Store, d.Log)
	mediator := NewMediator(resolver, policy, recorder, d.Log)

	authH := handlers.NewAuthHandler(userSvc, tokens)
	userH := handlers.NewUserHandler(userSvc)
	keyH := handlers.NewKeyHandler(keySvc, userSvc)
	usageH := handlers.NewUsageHandler(d.Store)
	llmH := handlers.NewLLMHandler(d.Ollama, d.Cfg.Ollama.DefaultModel)
	modelH := handlers.NewModelHandler(d.Ollama, d.Cache, d.Queue)
	healthH := handlers.NewHealthHandler(d.Store, d.Cache, d.Ollama)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", d.Cfg.Auth.APIKeyHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if d.Cfg.RateLimit.Enabled {
		r.Use(httprate.LimitByIP(d.Cfg.RateLimit.RequestsPerMin, time.Minute))
	}

	r.Get("/healthz", healthH.Healthz)
	r.Get("/readyz", healthH.Readyz)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authH.Register)
			r.Post("/login", authH.Login)
			r.Get("/me", mediator.Protect(auth.OpMe, authH.Me))
		})

		r.Route("/keys", func(r chi.Router) {
			r.Post("/", mediator.Protect(auth.OpKeyCreate, keyH.Create))
			r.Get("/", mediator.Protect(auth.OpKeyList, keyH.List))
			r.Patch("/{id}", mediator.Protect(auth.OpKeyUpdate, keyH.Update))
			r.Delete("/{id}", mediator.Protect(auth.OpKeyRevoke, keyH.Revoke))
		})

		r.Post("/generate", mediator.Protect(auth.OpGenerate, llmH.Generate))
		r.Post("/chat", mediator.Protect(auth.OpChat, llmH.Chat))

		r.Route("/models", func(r chi.Router) {
			r.Get("/", mediator.Protect(auth.OpModelsList, modelH.List))
			r.Get("/{name}", mediator.Protect(auth.OpModelShow, modelH.Show))
			r.Post("/pull", mediator.Protect(auth.OpModelPull, modelH.Pull))
			r.Get("/pull/{name}/status", mediator.Protect(auth.OpModelPull, modelH.PullStatus))
			r.Delete("/{name}", mediator.Protect(auth.OpModelDelete, modelH.Delete))
		})

		r.Route("/usage", func(r chi.Router) {
			r.Get("/", mediator.Protect(auth.OpUsageStats, usageH.Events))
			r.Get("/stats", mediator.Protect(auth.OpUsageStats, usageH.Stats))
			r.Get("/summary", mediator.Protect(auth.OpUsageSummary, usageH.Summary))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", mediator.Protect(auth.OpUserList, userH.List))
			r.Get("/{id}", mediator.Protect(auth.OpUserGet, userH.Get))
			r.Patch("/{id}", mediator.Protect(auth.OpUserUpdate, userH.Update))
			r.Delete("/{id}", mediator.Protect(auth.OpUserDelete, userH.Delete))
		})
	})

	return r
}
