package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"

	"movienote/internal/localstore"
	"movienote/internal/types"
	"movienote/internal/utils"
	"movienote/internal/watchlist"
)

// WatchlistHandler serves the watchlist for both tiers: the synchronized
// store-backed list for signed-in users and the local fallback list for
// anonymous ones. The two never mix; tier selection happens per request from
// the validated token.
type WatchlistHandler struct {
	db         *sql.DB
	watchlists *watchlist.Registry
	local      *localstore.Store
	logger     *log.Logger
}

func NewWatchlistHandler(db *sql.DB, watchlists *watchlist.Registry, local *localstore.Store, logger *log.Logger) *WatchlistHandler {
	return &WatchlistHandler{
		db:         db,
		watchlists: watchlists,
		local:      local,
		logger:     logger.With("component", "watchlist"),
	}
}

// GetWatchlist lists the caller's watchlist, filtered and sorted per query
// parameters. Filtering and ordering are purely presentational: the cached
// list itself is untouched.
func (h *WatchlistHandler) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.db)
	if err != nil {
		h.logger.Error("failed to resolve user", "err", err)
		utils.RespondError(w, "failed to resolve user", http.StatusInternalServerError)
		return
	}

	if user == nil {
		movies := h.local.Watchlist()
		if movies == nil {
			movies = []types.Movie{}
		}
		utils.RespondJSON(w, map[string]interface{}{
			"anonymous": true,
			"movies":    movies,
		}, http.StatusOK)
		return
	}

	sync := h.watchlists.For(user.ID)
	if sync.State() != watchlist.StateReady {
		if err := sync.Load(r.Context()); err != nil {
			utils.RespondDomainError(w, err)
			return
		}
	}

	filter := watchlist.ParseFilter(utils.GetQueryParam(r, "filter", ""))
	order := watchlist.ParseSort(utils.GetQueryParam(r, "sort", ""))
	entries := order.Apply(filter.Apply(sync.Entries()))

	utils.RespondJSON(w, map[string]interface{}{
		"anonymous": false,
		"entries":   entries,
	}, http.StatusOK)
}

// AddToWatchlist adds a movie to the caller's list. The body is the movie as
// returned by search; a movie already on the list yields a conflict.
func (h *WatchlistHandler) AddToWatchlist(w http.ResponseWriter, r *http.Request) {
	var movie types.Movie
	if err := json.NewDecoder(r.Body).Decode(&movie); err != nil {
		utils.RespondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if movie.ID <= 0 {
		utils.RespondError(w, "movie id is required", http.StatusBadRequest)
		return
	}

	user, err := currentUser(r, h.db)
	if err != nil {
		h.logger.Error("failed to resolve user", "err", err)
		utils.RespondError(w, "failed to resolve user", http.StatusInternalServerError)
		return
	}

	if user == nil {
		added, err := h.local.Add(movie)
		if err != nil {
			h.logger.Error("failed to write local watchlist", "err", err)
			utils.RespondError(w, "failed to save watchlist", http.StatusInternalServerError)
			return
		}
		if !added {
			utils.RespondError(w, "already exists", http.StatusConflict)
			return
		}
		utils.RespondJSON(w, map[string]interface{}{"movie": movie}, http.StatusCreated)
		return
	}

	sync := h.watchlists.For(user.ID)
	if sync.State() != watchlist.StateReady {
		if err := sync.Load(r.Context()); err != nil {
			utils.RespondDomainError(w, err)
			return
		}
	}

	entry, err := sync.Add(r.Context(), movie)
	if err != nil {
		utils.RespondDomainError(w, err)
		return
	}

	utils.RespondJSON(w, entry, http.StatusCreated)
}

// RemoveFromWatchlist removes a movie from the caller's list. Removing a
// movie that is not on the list succeeds; the end state is what matters.
func (h *WatchlistHandler) RemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	movieID, err := utils.GetPathParamInt(r, "movieId")
	if err != nil {
		utils.RespondError(w, "invalid movie id", http.StatusBadRequest)
		return
	}

	user, err := currentUser(r, h.db)
	if err != nil {
		h.logger.Error("failed to resolve user", "err", err)
		utils.RespondError(w, "failed to resolve user", http.StatusInternalServerError)
		return
	}

	if user == nil {
		if _, err := h.local.Remove(movieID); err != nil {
			h.logger.Error("failed to write local watchlist", "err", err)
			utils.RespondError(w, "failed to save watchlist", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	sync := h.watchlists.For(user.ID)
	if sync.State() != watchlist.StateReady {
		if err := sync.Load(r.Context()); err != nil {
			utils.RespondDomainError(w, err)
			return
		}
	}

	if err := sync.Remove(r.Context(), movieID); err != nil {
		utils.RespondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetWatched marks an entry watched or unwatched.
func (h *WatchlistHandler) SetWatched(w http.ResponseWriter, r *http.Request) {
	var req types.SetWatchedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	h.updateEntry(w, r, func(sync *watchlist.Synchronizer, movieID int) error {
		return sync.SetWatched(r.Context(), movieID, req.Watched)
	})
}

// SetRating sets the personal rating on an entry. Ratings run 1 through 10;
// zero clears the rating.
func (h *WatchlistHandler) SetRating(w http.ResponseWriter, r *http.Request) {
	var req types.RateMovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Rating < 0 || req.Rating > 10 {
		utils.RespondError(w, "rating must be between 1 and 10", http.StatusBadRequest)
		return
	}

	var rating *int
	if req.Rating > 0 {
		rating = &req.Rating
	}

	h.updateEntry(w, r, func(sync *watchlist.Synchronizer, movieID int) error {
		return sync.SetRating(r.Context(), movieID, rating)
	})
}

// SetNotes sets the personal notes on an entry. An empty string clears them.
func (h *WatchlistHandler) SetNotes(w http.ResponseWriter, r *http.Request) {
	var req types.UpdateNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var notes *string
	if req.Notes != "" {
		notes = &req.Notes
	}

	h.updateEntry(w, r, func(sync *watchlist.Synchronizer, movieID int) error {
		return sync.SetNotes(r.Context(), movieID, notes)
	})
}

func (h *WatchlistHandler) updateEntry(w http.ResponseWriter, r *http.Request, update func(*watchlist.Synchronizer, int) error) {
	movieID, err := utils.GetPathParamInt(r, "movieId")
	if err != nil {
		utils.RespondError(w, "invalid movie id", http.StatusBadRequest)
		return
	}

	user, err := currentUser(r, h.db)
	if err != nil {
		h.logger.Error("failed to resolve user", "err", err)
		utils.RespondError(w, "failed to resolve user", http.StatusInternalServerError)
		return
	}
	if user == nil {
		utils.RespondError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	sync := h.watchlists.For(user.ID)
	if sync.State() != watchlist.StateReady {
		if err := sync.Load(r.Context()); err != nil {
			utils.RespondDomainError(w, err)
			return
		}
	}

	if err := update(sync, movieID); err != nil {
		utils.RespondDomainError(w, err)
		return
	}

	utils.RespondJSON(w, map[string]interface{}{"success": true}, http.StatusOK)
}
