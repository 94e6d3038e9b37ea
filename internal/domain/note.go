package domain

import (
	"context"
	"time"
)

// DefaultTag is assigned to notes saved without a tag.
const DefaultTag = "unclassified"

// Note is one processed photograph: the recognized text and the study material generated from it.
type Note struct {
	ID             string
	OwnerID        string
	RecognizedText string
	GeneratedText  string
	Tag            string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NoteUpdate carries a partial edit. Nil fields are left untouched.
type NoteUpdate struct {
	RecognizedText *string
	GeneratedText  *string
	Tag            *string
}

// IsEmpty reports whether the update changes nothing.
func (u NoteUpdate) IsEmpty() bool {
	return u.RecognizedText == nil && u.GeneratedText == nil && u.Tag == nil
}

// Apply merges the update into n.
func (u NoteUpdate) Apply(n *Note) {
	if u.RecognizedText != nil {
		n.RecognizedText = *u.RecognizedText
	}
	if u.GeneratedText != nil {
		n.GeneratedText = *u.GeneratedText
	}
	if u.Tag != nil {
		n.Tag = *u.Tag
	}
}

// NoteRepository persists notes. Mutations are scoped by owner.
type NoteRepository interface {
	CreateNote(ctx context.Context, note *Note) error
	GetNoteByID(ctx context.Context, noteID string) (*Note, error)
	ListTagsByOwner(ctx context.Context, ownerID string) ([]string, error)
	ListNotesByTag(ctx context.Context, ownerID, tag string) ([]Note, error)
	// UpdateNote writes only the non-nil fields of upd plus updatedAt.
	UpdateNote(ctx context.Context, ownerID, noteID string, upd NoteUpdate, updatedAt time.Time) error
	UpdateGeneratedText(ctx context.Context, ownerID, noteID, text string, updatedAt time.Time) error
	DeleteNote(ctx context.Context, ownerID, noteID string) error
}
