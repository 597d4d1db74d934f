package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"movienote/internal/database"
	"movienote/internal/session"
	"movienote/internal/types"
	"movienote/internal/utils"
	"movienote/internal/watchlist"
)

type SessionHandler struct {
	db         *sql.DB
	sessions   *session.Registry
	watchlists *watchlist.Registry
	logger     *log.Logger
}

func NewSessionHandler(db *sql.DB, sessions *session.Registry, watchlists *watchlist.Registry, logger *log.Logger) *SessionHandler {
	return &SessionHandler{
		db:         db,
		sessions:   sessions,
		watchlists: watchlists,
		logger:     logger.With("component", "sessions"),
	}
}

// SignIn exchanges credentials for a session.
func (h *SessionHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req types.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		utils.RespondError(w, "email and password are required", http.StatusBadRequest)
		return
	}

	mgr, err := h.sessions.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		utils.RespondDomainError(w, err)
		return
	}
	sess := mgr.Current()

	user, err := database.GetOrCreateUser(h.db, sess.Subject, sess.Email, sess.Name)
	if err != nil {
		h.logger.Error("failed to resolve user after sign-in", "err", err)
		utils.RespondError(w, "failed to resolve user", http.StatusInternalServerError)
		return
	}
	sess.UserID = user.ID

	// Sign-out must tear down the user's cached watchlist before the remote
	// revocation happens.
	userID := user.ID
	mgr.Subscribe(func(ev session.Event) {
		if ev.Type == session.EventSignedOut {
			h.watchlists.Drop(userID)
		}
	})

	utils.RespondJSON(w, map[string]interface{}{
		"session": sess,
		"token":   sess.Token,
	}, http.StatusCreated)
}

// Current reports the session for the presented token, or an anonymous
// response when there is none. A stale or invalid token also yields the
// anonymous response rather than an error.
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		utils.RespondJSON(w, map[string]interface{}{"session": nil}, http.StatusOK)
		return
	}

	mgr := h.sessions.Attach(token)
	sess := mgr.Current()
	if sess == nil {
		sess = mgr.Initialize(r.Context(), token)
	}
	if sess == nil {
		utils.RespondJSON(w, map[string]interface{}{"session": nil}, http.StatusOK)
		return
	}

	if sess.UserID == 0 {
		user, err := database.GetOrCreateUser(h.db, sess.Subject, sess.Email, sess.Name)
		if err != nil {
			h.logger.Error("failed to resolve user", "err", err)
			utils.RespondError(w, "failed to resolve user", http.StatusInternalServerError)
			return
		}
		sess.UserID = user.ID

		userID := user.ID
		mgr.Subscribe(func(ev session.Event) {
			if ev.Type == session.EventSignedOut {
				h.watchlists.Drop(userID)
			}
		})
	}

	utils.RespondJSON(w, map[string]interface{}{"session": sess}, http.StatusOK)
}

// SignOut clears local session state and then revokes the token remotely.
// The response is success even when the remote revocation fails; local state
// is already clean by then.
func (h *SessionHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		utils.RespondJSON(w, map[string]interface{}{"success": true}, http.StatusOK)
		return
	}

	mgr := h.sessions.Attach(token)
	if mgr.Current() == nil {
		mgr.Initialize(r.Context(), token)
	}
	if sess := mgr.Current(); sess != nil && sess.UserID == 0 {
		if user, err := database.GetOrCreateUser(h.db, sess.Subject, sess.Email, sess.Name); err == nil {
			sess.UserID = user.ID
			userID := user.ID
			mgr.Subscribe(func(ev session.Event) {
				if ev.Type == session.EventSignedOut {
					h.watchlists.Drop(userID)
				}
			})
		}
	}
	mgr.SignOut(r.Context())
	h.sessions.Detach(token)

	utils.RespondJSON(w, map[string]interface{}{"success": true}, http.StatusOK)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
