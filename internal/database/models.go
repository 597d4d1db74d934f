package database

import (
	"database/sql"
	"fmt"
	"time"

	"movienote/internal/types"
)

// GetOrCreateUser finds a user by auth subject or creates a new one.
// The hosted auth service is treated as the source of truth - existing users
// are updated when the token claims changed.
func GetOrCreateUser(db *sql.DB, subject, email, name string) (*types.User, error) {
	var user types.User
	err := db.QueryRow(`
		SELECT id, subject, email, name, avatar_url, created_at
		FROM users
		WHERE subject = ?
	`, subject).Scan(&user.ID, &user.Subject, &user.Email, &user.Name, &user.AvatarURL, &user.Created)

	if err == nil {
		if user.Email != email || user.Name != name {
			_, err = db.Exec(`
				UPDATE users SET email = ?, name = ? WHERE subject = ?
			`, email, name, subject)
			if err != nil {
				return nil, fmt.Errorf("failed to update user: %w", err)
			}
			user.Email = email
			user.Name = name
		}
		return &user, nil
	}

	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	result, err := db.Exec(`
		INSERT INTO users (subject, email, name, created_at)
		VALUES (?, ?, ?, ?)
	`, subject, email, name, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	userID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get user ID: %w", err)
	}

	return &types.User{
		ID:      int(userID),
		Subject: subject,
		Email:   email,
		Name:    name,
		Created: time.Now(),
	}, nil
}

// GetUserPreferences gets user preferences, creating default ones if they
// don't exist.
func GetUserPreferences(db *sql.DB, userID int) (*types.Preferences, error) {
	var prefs types.Preferences
	err := db.QueryRow(`
		SELECT id, user_id, dark_mode, created_at, updated_at
		FROM user_preferences
		WHERE user_id = ?
	`, userID).Scan(&prefs.ID, &prefs.UserID, &prefs.DarkMode, &prefs.Created, &prefs.Updated)

	if err == nil {
		return &prefs, nil
	}

	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to query user preferences: %w", err)
	}

	now := time.Now()
	result, err := db.Exec(`
		INSERT INTO user_preferences (user_id, dark_mode, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, userID, false, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create user preferences: %w", err)
	}

	prefsID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences ID: %w", err)
	}

	return &types.Preferences{
		ID:      int(prefsID),
		UserID:  userID,
		Created: now,
		Updated: now,
	}, nil
}

// UpdateUserPreferences updates user preferences.
func UpdateUserPreferences(db *sql.DB, userID int, darkMode bool) error {
	_, err := db.Exec(`
		UPDATE user_preferences
		SET dark_mode = ?, updated_at = ?
		WHERE user_id = ?
	`, darkMode, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update user preferences: %w", err)
	}
	return nil
}
