package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/httpserver/mw"
)

// Scope selects the middleware chain a registrar's routes run behind.
type Scope int

const (
	// Public routes need nothing (liveness, the bookmarklet).
	Public Scope = iota
	// Internal routes are limited to the allowed CIDRs (readiness, infra, metrics).
	Internal
	// API routes require an allowed Host and a bearer session; handlers read
	// the owner from the request context.
	API
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type entry struct {
	scope Scope
	reg   Registrar
}

var registry []entry

// Register adds a registrar; files call it from init().
func Register(scope Scope, reg Registrar) {
	registry = append(registry, entry{scope: scope, reg: reg})
}

// RegisterAll mounts every registrar behind its scope's chain. Called once
// from httpserver.NewRouter.
func RegisterAll(r chi.Router, d deps.Deps) {
	chains := map[Scope][]Middleware{
		Internal: {mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)},
		API:      {mw.EnforceHost(d.AllowedHosts, d.Logger), mw.Auth(d.Store, d.Logger)},
	}
	for _, e := range registry {
		chain := chains[e.scope]
		if len(chain) == 0 {
			e.reg(r, d)
			continue
		}
		e.reg(r.With(chain...), d)
	}
}

// rateLimited builds a limiter from the configured budget. Each call owns its
// buckets, so every registrar using it is limited separately.
func rateLimited(d deps.Deps) Middleware {
	return mw.RateLimit(mw.RateLimitConfig{
		Burst:        d.RateLimitBurst,
		RefillPerMin: d.RateLimitPerMinute,
		MaxEntries:   d.RateLimitMaxEntries,
		TrustProxy:   d.TrustProxy,
	})
}
