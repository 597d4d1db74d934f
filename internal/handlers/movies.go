package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"

	"movienote/internal/database"
	"movienote/internal/services"
	"movienote/internal/types"
	"movienote/internal/utils"
)

type MovieHandler struct {
	db     *sql.DB
	tmdb   *services.TMDBClient
	search *services.MovieSearch
	logger *log.Logger
}

func NewMovieHandler(db *sql.DB, tmdb *services.TMDBClient, search *services.MovieSearch, logger *log.Logger) *MovieHandler {
	return &MovieHandler{
		db:     db,
		tmdb:   tmdb,
		search: search,
		logger: logger.With("component", "movies"),
	}
}

// movieResponse is a catalog movie plus the resolved image URLs, so clients
// never assemble CDN paths themselves.
type movieResponse struct {
	types.Movie
	PosterURL   string `json:"poster_url,omitempty"`
	BackdropURL string `json:"backdrop_url,omitempty"`
}

func (h *MovieHandler) movieResponse(m types.Movie) movieResponse {
	return movieResponse{
		Movie:       m,
		PosterURL:   h.tmdb.GetPosterURL(m.PosterPath, ""),
		BackdropURL: h.tmdb.GetBackdropURL(m.BackdropPath, ""),
	}
}

func (h *MovieHandler) movieResponses(movies []types.Movie) []movieResponse {
	out := make([]movieResponse, len(movies))
	for i, m := range movies {
		out[i] = h.movieResponse(m)
	}
	return out
}

// SearchMovies serves the catalog search and browse view. A non-empty search
// query goes to the catalog and comes back in the requested order; an empty
// query browses locally cached movies instead of calling out. A failed search
// serializes as an empty list, never null.
func (h *MovieHandler) SearchMovies(w http.ResponseWriter, r *http.Request) {
	query := utils.GetQueryParam(r, "search", "")
	option := services.ParseSortOption(utils.GetQueryParam(r, "sort", ""))

	if query == "" {
		limit := utils.GetQueryParamInt(r, "limit", 20)
		offset := utils.GetQueryParamInt(r, "offset", 0)
		movies, err := database.ListRecentMovies(r.Context(), h.db, limit, offset)
		if err != nil {
			h.logger.Error("failed to list cached movies", "err", err)
			utils.RespondError(w, "failed to list movies", http.StatusInternalServerError)
			return
		}
		utils.RespondJSON(w, map[string]interface{}{
			"movies": h.movieResponses(services.SortMovies(movies, option)),
		}, http.StatusOK)
		return
	}

	movies := h.search.Search(r.Context(), query, option)
	utils.RespondJSON(w, map[string]interface{}{"movies": h.movieResponses(movies)}, http.StatusOK)
}

// GetMovie returns one movie, serving from the local cache and falling back
// to the catalog on a miss. Fetched details are cached before responding so
// the next request is local.
func (h *MovieHandler) GetMovie(w http.ResponseWriter, r *http.Request) {
	movieID, err := utils.GetPathParamInt(r, "id")
	if err != nil {
		utils.RespondError(w, "invalid movie id", http.StatusBadRequest)
		return
	}

	movie, err := database.GetMovie(r.Context(), h.db, movieID)
	if err == nil {
		utils.RespondJSON(w, h.movieResponse(*movie), http.StatusOK)
		return
	}
	if !errors.Is(err, types.ErrNotFound) {
		h.logger.Error("failed to read cached movie", "movie_id", movieID, "err", err)
		utils.RespondError(w, "failed to get movie", http.StatusInternalServerError)
		return
	}

	details, err := h.tmdb.GetMovieDetails(r.Context(), movieID)
	if err != nil {
		utils.RespondDomainError(w, err)
		return
	}

	fetched := details.ToMovie()
	if err := database.UpsertMovie(r.Context(), h.db, fetched); err != nil {
		h.logger.Warn("failed to cache fetched movie", "movie_id", movieID, "err", err)
	}

	utils.RespondJSON(w, h.movieResponse(fetched), http.StatusOK)
}
