package models

import (
	"database/sql"
	"time"
)

// Note is a row of the NOTES table. Oracle stores empty strings as NULL, hence the NullStrings.
type Note struct {
	ID             string         `db:"ID"`
	OwnerID        string         `db:"OWNER_ID"`
	RecognizedText sql.NullString `db:"RECOGNIZED_TEXT"`
	GeneratedText  sql.NullString `db:"GENERATED_TEXT"`
	Tag            string         `db:"TAG"`
	CreatedAt      time.Time      `db:"CREATED_AT"`
	UpdatedAt      time.Time      `db:"UPDATED_AT"`
}
