package router

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/baechuer/newslink/internal/domain"
	"github.com/baechuer/newslink/internal/transport/http/middleware"
	"github.com/baechuer/newslink/internal/transport/http/response"
)

type HealthHandler interface {
	Healthz(w http.ResponseWriter, r *http.Request)
	Readyz(w http.ResponseWriter, r *http.Request)
}

type AuthHandler interface {
	SignUp(w http.ResponseWriter, r *http.Request)
	SignIn(w http.ResponseWriter, r *http.Request)
	SignOut(w http.ResponseWriter, r *http.Request)
	GetSession(w http.ResponseWriter, r *http.Request)
}

type Deps struct {
	Health HealthHandler
	Auth   AuthHandler
	RPC    http.Handler

	SessionMW func(http.Handler) http.Handler
	// AuthLimitMW guards sign-in and sign-up. Optional.
	AuthLimitMW func(http.Handler) http.Handler

	ServiceName    string
	TrustedOrigins []string
	// RateLimitRPM is the global per-IP limit; 0 disables it.
	RateLimitRPM int
}

func New(deps Deps) (http.Handler, error) {
	if deps.Health == nil {
		return nil, fmt.Errorf("nil Health handler")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("nil Auth handler")
	}
	if deps.RPC == nil {
		return nil, fmt.Errorf("nil RPC handler")
	}
	if deps.SessionMW == nil {
		return nil, fmt.Errorf("nil Session middleware")
	}
	authLimit := deps.AuthLimitMW
	if authLimit == nil {
		authLimit = func(next http.Handler) http.Handler { return next }
	}
	if deps.ServiceName == "" {
		deps.ServiceName = "newslink"
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.AccessLog)
	r.Use(middleware.Metrics)
	r.Use(middleware.Tracing(deps.ServiceName))

	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(corsHandler(deps.TrustedOrigins))
		if deps.RateLimitRPM > 0 {
			r.Use(httprate.Limit(
				deps.RateLimitRPM,
				time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					response.WriteError(w, r, domain.ErrRateLimited("global"))
				}),
			))
		}
		r.Use(middleware.TrustedOrigin(deps.TrustedOrigins, response.WriteError))
		r.Use(deps.SessionMW)

		r.Route("/api/auth", func(r chi.Router) {
			r.With(authLimit).Post("/sign-up/email", deps.Auth.SignUp)
			r.With(authLimit).Post("/sign-in/email", deps.Auth.SignIn)
			r.Post("/sign-out", deps.Auth.SignOut)
			r.Get("/get-session", deps.Auth.GetSession)
		})

		r.Handle("/rpc/*", deps.RPC)
	})

	return r, nil
}

// corsHandler allows credentialed requests from trusted origins only. Scheme
// entries such as "newslink://" match any origin on that scheme.
func corsHandler(trusted []string) func(http.Handler) http.Handler {
	origins := make([]string, 0, len(trusted))
	for _, o := range trusted {
		if strings.HasSuffix(o, "://") {
			o += "*"
		}
		origins = append(origins, o)
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.HeaderXRequestID},
		ExposedHeaders:   []string{middleware.HeaderXRequestID, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
