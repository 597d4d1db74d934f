package handlers

import (
	"net/http"

	"movienote/internal/services"
	"movienote/internal/types"
	"movienote/internal/utils"
)

// Homepage feed size.
const trendingFeedSize = 8

type FeedHandler struct {
	search *services.MovieSearch
}

func NewFeedHandler(search *services.MovieSearch) *FeedHandler {
	return &FeedHandler{search: search}
}

// Trending serves the homepage feed: the first movies of the weekly trending
// window. A catalog failure yields an empty feed, never an error page.
func (h *FeedHandler) Trending(w http.ResponseWriter, r *http.Request) {
	limit := utils.GetQueryParamInt(r, "limit", trendingFeedSize)
	movies := h.search.Trending(r.Context(), limit)
	if movies == nil {
		movies = []types.Movie{}
	}
	utils.RespondJSON(w, map[string]interface{}{"movies": movies}, http.StatusOK)
}
