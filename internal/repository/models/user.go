package models

import (
	"database/sql"
	"time"
)

// User is a row of the USERS table.
type User struct {
	ID           string         `db:"ID"`
	Email        string         `db:"EMAIL"`
	PasswordHash sql.NullString `db:"PASSWORD_HASH"` // NULL for Google-only accounts
	GoogleID     sql.NullString `db:"GOOGLE_ID"`
	CreatedAt    time.Time      `db:"CREATED_AT"`
	UpdatedAt    time.Time      `db:"UPDATED_AT"`
}
