package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"notesnap/internal/domain"
	"notesnap/internal/repository/models"
	"notesnap/internal/util"

	"github.com/jmoiron/sqlx"
)

const noteColumns = `ID, OWNER_ID, RECOGNIZED_TEXT, GENERATED_TEXT, TAG, CREATED_AT, UPDATED_AT`

// sqlxNoteRepository implements domain.NoteRepository using sqlx.
type sqlxNoteRepository struct {
	db DBTX
}

func NewSQLXNoteRepository(db *sqlx.DB) domain.NoteRepository {
	return &sqlxNoteRepository{db: db}
}

func toDomainNote(m *models.Note) *domain.Note {
	if m == nil {
		return nil
	}
	return &domain.Note{
		ID:             m.ID,
		OwnerID:        m.OwnerID,
		RecognizedText: util.NullStringToString(m.RecognizedText),
		GeneratedText:  util.NullStringToString(m.GeneratedText),
		Tag:            m.Tag,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func fromDomainNote(n *domain.Note) *models.Note {
	if n == nil {
		return nil
	}
	return &models.Note{
		ID:             n.ID,
		OwnerID:        n.OwnerID,
		RecognizedText: util.StringToNullString(n.RecognizedText),
		GeneratedText:  util.StringToNullString(n.GeneratedText),
		Tag:            n.Tag,
		CreatedAt:      n.CreatedAt,
		UpdatedAt:      n.UpdatedAt,
	}
}

// CreateNote inserts the note as given. The caller assigns ID and timestamps.
func (r *sqlxNoteRepository) CreateNote(ctx context.Context, note *domain.Note) error {
	query := `INSERT INTO notes (ID, OWNER_ID, RECOGNIZED_TEXT, GENERATED_TEXT, TAG, CREATED_AT, UPDATED_AT)
	          VALUES (:ID, :OWNER_ID, :RECOGNIZED_TEXT, :GENERATED_TEXT, :TAG, :CREATED_AT, :UPDATED_AT)`

	if _, err := r.db.NamedExecContext(ctx, query, fromDomainNote(note)); err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

// GetNoteByID returns nil, nil when no note matches.
func (r *sqlxNoteRepository) GetNoteByID(ctx context.Context, noteID string) (*domain.Note, error) {
	var note models.Note
	query := `SELECT ` + noteColumns + ` FROM notes WHERE ID = :1`
	if err := r.db.GetContext(ctx, &note, query, noteID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get note by id: %w", err)
	}
	return toDomainNote(&note), nil
}

func (r *sqlxNoteRepository) ListTagsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	tags := []string{}
	query := `SELECT DISTINCT TAG FROM notes WHERE OWNER_ID = :1 ORDER BY TAG`
	if err := r.db.SelectContext(ctx, &tags, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// ListNotesByTag returns the owner's notes under tag, newest first.
func (r *sqlxNoteRepository) ListNotesByTag(ctx context.Context, ownerID, tag string) ([]domain.Note, error) {
	var rows []models.Note
	query := `SELECT ` + noteColumns + ` FROM notes WHERE OWNER_ID = :1 AND TAG = :2 ORDER BY CREATED_AT DESC`
	if err := r.db.SelectContext(ctx, &rows, query, ownerID, tag); err != nil {
		return nil, fmt.Errorf("failed to list notes by tag: %w", err)
	}

	notes := make([]domain.Note, 0, len(rows))
	for i := range rows {
		notes = append(notes, *toDomainNote(&rows[i]))
	}
	return notes, nil
}

// UpdateNote sets only the columns named by upd. The owner is part of the
// match so a note can never be modified through another account.
func (r *sqlxNoteRepository) UpdateNote(ctx context.Context, ownerID, noteID string, upd domain.NoteUpdate, updatedAt time.Time) error {
	if upd.IsEmpty() {
		return domain.NewInvalidInputError("no fields to update")
	}

	var sets []string
	args := map[string]interface{}{
		"ID":         noteID,
		"OWNER_ID":   ownerID,
		"UPDATED_AT": updatedAt,
	}
	if upd.RecognizedText != nil {
		sets = append(sets, "RECOGNIZED_TEXT = :RECOGNIZED_TEXT")
		args["RECOGNIZED_TEXT"] = util.StringToNullString(*upd.RecognizedText)
	}
	if upd.GeneratedText != nil {
		sets = append(sets, "GENERATED_TEXT = :GENERATED_TEXT")
		args["GENERATED_TEXT"] = util.StringToNullString(*upd.GeneratedText)
	}
	if upd.Tag != nil {
		sets = append(sets, "TAG = :TAG")
		args["TAG"] = *upd.Tag
	}
	sets = append(sets, "UPDATED_AT = :UPDATED_AT")

	query := `UPDATE notes SET ` + strings.Join(sets, ", ") + ` WHERE ID = :ID AND OWNER_ID = :OWNER_ID`
	result, err := r.db.NamedExecContext(ctx, query, args)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	return expectOneRow(result, noteID)
}

// UpdateGeneratedText replaces the generated text and leaves every other column alone.
func (r *sqlxNoteRepository) UpdateGeneratedText(ctx context.Context, ownerID, noteID, text string, updatedAt time.Time) error {
	return r.UpdateNote(ctx, ownerID, noteID, domain.NoteUpdate{GeneratedText: &text}, updatedAt)
}

func (r *sqlxNoteRepository) DeleteNote(ctx context.Context, ownerID, noteID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE ID = :1 AND OWNER_ID = :2`, noteID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return expectOneRow(result, noteID)
}

func expectOneRow(result sql.Result, noteID string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.NewNoteNotFoundError(noteID)
	}
	return nil
}
