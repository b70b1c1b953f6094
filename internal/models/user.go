package models

import "time"

// Profile represents the owner of the ledger. The service is single-profile:
// one person, one document.
type Profile struct {
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}
