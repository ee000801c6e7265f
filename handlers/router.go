package handlers

import (
	"net/http"

	"pmo-bot/middleware"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Routes groups everything the HTTP router needs.
type Routes struct {
	Auth           *middleware.Authenticator
	AuthHandler    *AuthHandler
	Bot            *BotHandler
	Reminders      *ReminderHandler
	Users          *UserHandler
	Hub            *Hub
	AllowedOrigins []string
}

func NewRouter(rt Routes) http.Handler {
	mux := http.NewServeMux()
	withAuth := func(next http.HandlerFunc) http.Handler {
		return rt.Auth.Middleware(next)
	}

	// Public routes (no auth required)
	mux.HandleFunc("POST /api/auth/register", rt.AuthHandler.Register)
	mux.HandleFunc("POST /api/auth/login", rt.AuthHandler.Login)
	mux.HandleFunc("GET /api/ws", rt.Hub.HandleWebSocket)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Protected routes (auth required)
	mux.Handle("GET /api/auth/me", withAuth(rt.AuthHandler.Me))

	// Users
	mux.Handle("GET /api/users", withAuth(rt.Users.List))
	mux.Handle("PUT /api/users/me", withAuth(rt.Users.UpdateProfile))
	mux.Handle("GET /api/users/{id}", withAuth(rt.Users.Get))

	// Bot
	mux.Handle("POST /api/messages", withAuth(rt.Bot.Messages))
	mux.Handle("GET /api/conversations/{id}/messages", withAuth(rt.Bot.Transcript))

	// Read-only views
	mux.Handle("GET /api/reminders", withAuth(rt.Reminders.ListReminders))
	mux.Handle("GET /api/trainings", withAuth(rt.Reminders.ListTrainings))
	mux.Handle("GET /api/stats", withAuth(rt.Reminders.Stats))

	traced := otelhttp.NewHandler(mux, "pmo-bot",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
		otelhttp.WithFilter(func(r *http.Request) bool {
			// websocket upgrades hijack the connection
			return r.URL.Path != "/api/ws" && r.URL.Path != "/health"
		}),
	)
	return corsMiddleware(rt.AllowedOrigins, traced)
}

func corsMiddleware(allowed []string, next http.Handler) http.Handler {
	allowAll := false
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			allowAll = true
		}
		set[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case allowAll:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && set[origin]:
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
