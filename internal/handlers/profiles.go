package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"

	"movienote/internal/database"
	"movienote/internal/types"
	"movienote/internal/utils"
)

type ProfileHandler struct {
	db       *sql.DB
	validate *validator.Validate
	logger   *log.Logger
}

func NewProfileHandler(db *sql.DB, logger *log.Logger) *ProfileHandler {
	return &ProfileHandler{
		db:       db,
		validate: validator.New(),
		logger:   logger.With("component", "profiles"),
	}
}

// GetProfile returns the caller's profile, or 404 when none was ever saved.
// Profiles are created on first save, not on sign-up.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
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

	profile, err := database.GetProfile(r.Context(), h.db, user.ID)
	if errors.Is(err, types.ErrNotFound) {
		utils.RespondError(w, "profile not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to load profile", "err", err)
		utils.RespondError(w, "failed to load profile", http.StatusInternalServerError)
		return
	}

	utils.RespondJSON(w, profile, http.StatusOK)
}

// SaveProfile creates or replaces the caller's profile.
func (h *ProfileHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	var req types.SaveProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.RespondError(w, "invalid profile: "+err.Error(), http.StatusBadRequest)
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

	profile := types.Profile{
		UserID:         user.ID,
		Username:       optional(req.Username),
		DisplayName:    optional(req.DisplayName),
		AvatarURL:      optional(req.AvatarURL),
		Bio:            optional(req.Bio),
		FavoriteGenres: req.FavoriteGenres,
		Location:       optional(req.Location),
		Website:        optional(req.Website),
		BirthDate:      optional(req.BirthDate),
		PrivacyLevel:   req.PrivacyLevel,
	}

	if err := database.SaveProfile(r.Context(), h.db, profile); err != nil {
		h.logger.Error("failed to save profile", "err", err)
		utils.RespondError(w, "failed to save profile", http.StatusInternalServerError)
		return
	}

	saved, err := database.GetProfile(r.Context(), h.db, user.ID)
	if err != nil {
		h.logger.Error("failed to read back profile", "err", err)
		utils.RespondError(w, "failed to load profile", http.StatusInternalServerError)
		return
	}

	utils.RespondJSON(w, saved, http.StatusOK)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
