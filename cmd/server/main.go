package main

import (
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"movienote/internal/auth"
	"movienote/internal/database"
	"movienote/internal/handlers"
	"movienote/internal/localstore"
	"movienote/internal/services"
	"movienote/internal/session"
	"movienote/internal/watchlist"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	godotenv.Load()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "movienote",
	})

	// Get environment variables
	dbPath := getEnv("DATABASE_PATH", "./movienote.db")
	localPath := getEnv("LOCAL_STORE_PATH", "./movienote-local.json")
	migrationsDir := getEnv("MIGRATIONS_DIR", "./db/migrations")
	port := getEnv("PORT", "8080")
	authDomain := getEnv("AUTH_DOMAIN", "")
	authAudience := getEnv("AUTH_AUDIENCE", "")
	authClientID := getEnv("AUTH_CLIENT_ID", "")
	tmdbAPIKey := getEnv("TMDB_API_KEY", "")

	if authDomain == "" || authAudience == "" || authClientID == "" {
		logger.Fatal("AUTH_DOMAIN, AUTH_AUDIENCE and AUTH_CLIENT_ID environment variables are required")
	}
	if tmdbAPIKey == "" {
		logger.Fatal("TMDB_API_KEY environment variable is required")
	}

	// Initialize database
	db, err := database.Connect(dbPath)
	if err != nil {
		logger.Fatal("database connection failed", "err", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db, migrationsDir); err != nil {
		logger.Fatal("migration failed", "err", err)
	}

	// Local fallback store for anonymous callers
	local, err := localstore.Open(localPath)
	if err != nil {
		logger.Fatal("failed to open local store", "err", err)
	}

	// Auth middleware and the hosted auth client behind session managers
	authMiddleware, err := auth.NewMiddleware(authDomain, authAudience)
	if err != nil {
		logger.Fatal("failed to create auth middleware", "err", err)
	}
	authClient := auth.NewClient(authDomain, authClientID, authMiddleware)
	sessions := session.NewRegistry(authClient, logger)

	// Catalog client and services
	tmdbClient := services.NewTMDBClient(tmdbAPIKey)
	movieSearch := services.NewMovieSearch(tmdbClient, logger)

	// Per-user watchlist synchronizers over the sqlite store
	watchlists := watchlist.NewRegistry(watchlist.NewStoreRepository(db), logger)

	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(db, sessions, watchlists, logger)
	movieHandler := handlers.NewMovieHandler(db, tmdbClient, movieSearch, logger)
	feedHandler := handlers.NewFeedHandler(movieSearch)
	watchlistHandler := handlers.NewWatchlistHandler(db, watchlists, local, logger)
	profileHandler := handlers.NewProfileHandler(db, logger)
	userHandler := handlers.NewUserHandler(db, local, logger)

	// Setup router using standard library ServeMux
	mux := http.NewServeMux()

	// Health check (no auth required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	requireAuth := authMiddleware.RequireAuth
	optionalAuth := authMiddleware.OptionalAuth

	// Session routes
	mux.HandleFunc("POST /api/session", sessionHandler.SignIn)
	mux.HandleFunc("GET /api/session", sessionHandler.Current)
	mux.HandleFunc("DELETE /api/session", sessionHandler.SignOut)

	// Movie routes (browse and search are open to anonymous callers)
	mux.HandleFunc("GET /api/movies", movieHandler.SearchMovies)
	mux.HandleFunc("GET /api/movies/{id}", movieHandler.GetMovie)
	mux.HandleFunc("GET /api/feed/trending", feedHandler.Trending)

	// Watchlist routes - the anonymous tier is served from the local store
	mux.Handle("GET /api/watchlist", optionalAuth(http.HandlerFunc(watchlistHandler.GetWatchlist)))
	mux.Handle("POST /api/watchlist", optionalAuth(http.HandlerFunc(watchlistHandler.AddToWatchlist)))
	mux.Handle("DELETE /api/watchlist/{movieId}", optionalAuth(http.HandlerFunc(watchlistHandler.RemoveFromWatchlist)))
	mux.Handle("POST /api/watchlist/{movieId}/watched", requireAuth(http.HandlerFunc(watchlistHandler.SetWatched)))
	mux.Handle("POST /api/watchlist/{movieId}/rating", requireAuth(http.HandlerFunc(watchlistHandler.SetRating)))
	mux.Handle("POST /api/watchlist/{movieId}/notes", requireAuth(http.HandlerFunc(watchlistHandler.SetNotes)))

	// User routes
	mux.Handle("GET /api/me", requireAuth(http.HandlerFunc(userHandler.GetCurrentUser)))
	mux.Handle("GET /api/me/profile", requireAuth(http.HandlerFunc(profileHandler.GetProfile)))
	mux.Handle("PUT /api/me/profile", requireAuth(http.HandlerFunc(profileHandler.SaveProfile)))
	mux.Handle("GET /api/me/preferences", optionalAuth(http.HandlerFunc(userHandler.GetPreferences)))
	mux.Handle("PUT /api/me/preferences", optionalAuth(http.HandlerFunc(userHandler.UpdatePreferences)))

	handler := rateLimit(mux, logger)

	logger.Info("server starting", "port", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		logger.Fatal("server stopped", "err", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// rateLimit bounds the overall request rate so a misbehaving client cannot
// hammer the catalog API through us.
func rateLimit(next http.Handler, logger *log.Logger) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(50), 100)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			logger.Warn("request rate limited", "path", r.URL.Path)
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
