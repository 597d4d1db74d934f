package handlers

import (
	"database/sql"
	"net/http"

	"movienote/internal/auth"
	"movienote/internal/database"
	"movienote/internal/types"
)

// currentUser resolves the authenticated caller to our user row. Requests
// without a validated token get nil, which optional-auth handlers treat as
// the anonymous tier.
func currentUser(r *http.Request, db *sql.DB) (*types.User, error) {
	identity, err := auth.IdentityFromContext(r.Context())
	if err != nil {
		return nil, nil
	}
	return database.GetOrCreateUser(db, identity.Subject, identity.Email, identity.Name)
}
