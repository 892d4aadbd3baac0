// Package models defines data structures used throughout the quest engine.
package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// User represents a user in the system. The quest engine only mutates the
// streak and reward fields; everything else is owned by the broader system.
type User struct {
	ID               int            `json:"id"`
	Username         string         `json:"username"`
	Email            sql.NullString `json:"email"`
	TotalXP          int            `json:"total_xp"`
	TotalGems        int            `json:"total_gems"`
	CurrentStreak    int            `json:"current_streak"`
	MaxStreak        int            `json:"max_streak"`
	LastActivityDate sql.NullTime   `json:"last_activity_date"`
	LanguageID       sql.NullInt64  `json:"language_id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// MarshalJSON customizes JSON marshaling for User to handle sql.Null types properly
func (u User) MarshalJSON() (result0 []byte, err error) {
	return json.Marshal(&struct {
		ID               int        `json:"id"`
		Username         string     `json:"username"`
		Email            *string    `json:"email"`
		TotalXP          int        `json:"total_xp"`
		TotalGems        int        `json:"total_gems"`
		CurrentStreak    int        `json:"current_streak"`
		MaxStreak        int        `json:"max_streak"`
		LastActivityDate *time.Time `json:"last_activity_date"`
		LanguageID       *int64     `json:"language_id"`
		CreatedAt        time.Time  `json:"created_at"`
		UpdatedAt        time.Time  `json:"updated_at"`
	}{
		ID:               u.ID,
		Username:         u.Username,
		Email:            nullStringToPointer(u.Email),
		TotalXP:          u.TotalXP,
		TotalGems:        u.TotalGems,
		CurrentStreak:    u.CurrentStreak,
		MaxStreak:        u.MaxStreak,
		LastActivityDate: nullTimeToPointer(u.LastActivityDate),
		LanguageID:       nullInt64ToPointer(u.LanguageID),
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	})
}

// Language represents a learning language a user may select
type Language struct {
	ID   int    `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// LanguageContext is a user's resolved language selection, used to decide
// language-gating for quests.
type LanguageContext struct {
	User             *User     `json:"user"`
	SelectedLanguage *Language `json:"selected_language"`
}

// HasSelectedLanguage reports whether the user has chosen a learning language.
func (c *LanguageContext) HasSelectedLanguage() bool {
	return c != nil && c.SelectedLanguage != nil
}

// Helper functions for converting sql.Null types to pointers
func nullStringToPointer(ns sql.NullString) *string {
	if ns.Valid {
		return &ns.String
	}
	return nil
}

func nullTimeToPointer(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}

func nullInt64ToPointer(ni sql.NullInt64) *int64 {
	if ni.Valid {
		return &ni.Int64
	}
	return nil
}
