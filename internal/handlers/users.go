package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"

	"movienote/internal/database"
	"movienote/internal/localstore"
	"movienote/internal/types"
	"movienote/internal/utils"
)

type UserHandler struct {
	db     *sql.DB
	local  *localstore.Store
	logger *log.Logger
}

func NewUserHandler(db *sql.DB, local *localstore.Store, logger *log.Logger) *UserHandler {
	return &UserHandler{
		db:     db,
		local:  local,
		logger: logger.With("component", "users"),
	}
}

// GetCurrentUser returns the caller's user row, creating it from the token
// claims on first contact.
func (h *UserHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
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

	utils.RespondJSON(w, user, http.StatusOK)
}

// GetPreferences returns display preferences. Anonymous callers get the
// locally persisted theme; signed-in callers get their stored row, created
// with defaults on first read.
func (h *UserHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.db)
	if err != nil {
		h.logger.Error("failed to resolve user", "err", err)
		utils.RespondError(w, "failed to resolve user", http.StatusInternalServerError)
		return
	}

	if user == nil {
		utils.RespondJSON(w, map[string]interface{}{
			"darkMode": h.local.Theme() == "dark",
		}, http.StatusOK)
		return
	}

	prefs, err := database.GetUserPreferences(h.db, user.ID)
	if err != nil {
		h.logger.Error("failed to load preferences", "err", err)
		utils.RespondError(w, "failed to load preferences", http.StatusInternalServerError)
		return
	}

	utils.RespondJSON(w, map[string]interface{}{
		"darkMode": prefs.DarkMode,
	}, http.StatusOK)
}

// UpdatePreferences persists display preferences for the caller's tier. The
// anonymous theme lives only in the local store and is never migrated into an
// account.
func (h *UserHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req types.UpdatePreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := currentUser(r, h.db)
	if err != nil {
		h.logger.Error("failed to resolve user", "err", err)
		utils.RespondError(w, "failed to resolve user", http.StatusInternalServerError)
		return
	}

	if user == nil {
		theme := "light"
		if req.DarkMode {
			theme = "dark"
		}
		if err := h.local.SetTheme(theme); err != nil {
			h.logger.Error("failed to persist theme", "err", err)
			utils.RespondError(w, "failed to save preferences", http.StatusInternalServerError)
			return
		}
		utils.RespondJSON(w, map[string]interface{}{
			"success":  true,
			"darkMode": req.DarkMode,
		}, http.StatusOK)
		return
	}

	if _, err := database.GetUserPreferences(h.db, user.ID); err != nil {
		h.logger.Error("failed to load preferences", "err", err)
		utils.RespondError(w, "failed to load preferences", http.StatusInternalServerError)
		return
	}
	if err := database.UpdateUserPreferences(h.db, user.ID, req.DarkMode); err != nil {
		h.logger.Error("failed to update preferences", "err", err)
		utils.RespondError(w, "failed to save preferences", http.StatusInternalServerError)
		return
	}

	utils.RespondJSON(w, map[string]interface{}{
		"success":  true,
		"darkMode": req.DarkMode,
	}, http.StatusOK)
}
