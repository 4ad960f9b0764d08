package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/menjava/internal/auth"
	"github.com/erazemk/menjava/internal/exchange"
	"github.com/erazemk/menjava/internal/match"
	"github.com/erazemk/menjava/internal/metrics"
	"github.com/erazemk/menjava/internal/model"
	"github.com/erazemk/menjava/internal/ratelimit"
	"github.com/erazemk/menjava/internal/store"
)

// Options tune the router. The zero value is usable.
type Options struct {
	// LoginLimiter throttles login attempts per remote address. Nil
	// disables throttling.
	LoginLimiter *ratelimit.Keyed
	// SuggestLimit is the number of suggestions returned when the client
	// does not pass limit. Zero means match.DefaultLimit.
	SuggestLimit int
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, tokens *auth.Tokens, opts Options) http.Handler {
	if opts.SuggestLimit <= 0 {
		opts.SuggestLimit = match.DefaultLimit
	}

	catalog := store.NewSQLite(db)
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, Tokens: tokens}
	usersHandler := &UsersHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db, Engine: match.NewEngine(catalog), SuggestLimit: opts.SuggestLimit}
	requestsHandler := &RequestsHandler{Catalog: catalog, Exchange: exchange.New(catalog)}

	authMW := AuthMiddleware(tokens, db)
	requireAdmin := RequireRole(model.RoleAdmin)

	// Public.
	mux.Handle("POST /api/auth/login", RateLimit(opts.LoginLimiter, remoteHost)(http.HandlerFunc(authHandler.Login)))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("GET /healthz", Health(db))

	// Own account.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Catalog: anyone signed in may list; edits are for the owner or a moderator.
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Update)))
	mux.Handle("DELETE /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Delete)))
	mux.Handle("PUT /api/items/{id}/cover", authMW(http.HandlerFunc(itemsHandler.UploadCover)))
	mux.Handle("GET /api/items/{id}/cover", authMW(http.HandlerFunc(itemsHandler.GetCover)))
	mux.Handle("GET /api/items/{id}/suggestions", authMW(http.HandlerFunc(itemsHandler.Suggestions)))

	// Exchange requests.
	mux.Handle("POST /api/requests", authMW(http.HandlerFunc(requestsHandler.Create)))
	mux.Handle("GET /api/requests", authMW(http.HandlerFunc(requestsHandler.List)))
	mux.Handle("GET /api/requests/{id}", authMW(http.HandlerFunc(requestsHandler.Get)))
	mux.Handle("POST /api/requests/{id}/{event}", authMW(http.HandlerFunc(requestsHandler.Transition)))

	return LoggingMiddleware(mux)
}
