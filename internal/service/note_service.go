package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"notesnap/internal/cache"
	"notesnap/internal/domain"
	"notesnap/internal/logger"
	"notesnap/internal/quizparse"

	"go.uber.org/zap"
)

// NoteView is a note together with the material derived from its generated text.
type NoteView struct {
	Note        *domain.Note
	Summary     string
	SummaryHTML string
	Records     []quizparse.Record
}

// NoteService serves the archive and edit operations. Every single-note
// operation goes through authorize first.
type NoteService struct {
	notes  domain.NoteRepository
	policy *CandidatePolicy
	cache  domain.Cache
	tagTTL time.Duration
	now    func() time.Time
}

func NewNoteService(notes domain.NoteRepository, policy *CandidatePolicy, c domain.Cache, tagTTL time.Duration) *NoteService {
	return &NoteService{
		notes:  notes,
		policy: policy,
		cache:  c,
		tagTTL: tagTTL,
		now:    time.Now,
	}
}

// authorize loads the note and checks that actorID owns it.
func (s *NoteService) authorize(ctx context.Context, actorID, noteID string) (*domain.Note, error) {
	note, err := s.notes.GetNoteByID(ctx, noteID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load note", err)
	}
	if note == nil {
		return nil, domain.NewNoteNotFoundError(noteID)
	}
	if note.OwnerID != actorID {
		logger.Get().Warn("Rejected access to another user's note",
			zap.String("note_id", noteID),
			zap.String("actor_id", actorID))
		return nil, domain.NewForbiddenError("You do not have access to this note")
	}
	return note, nil
}

// ListTags returns the distinct tags of owner, served from cache when possible.
func (s *NoteService) ListTags(ctx context.Context, ownerID string) ([]string, error) {
	l := logger.Get()
	key := cache.TagListKey(ownerID)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			var tags []string
			if jsonErr := json.Unmarshal([]byte(cached), &tags); jsonErr == nil {
				return tags, nil
			}
			l.Warn("Discarding malformed cached tag list", zap.String("owner_id", ownerID))
		case !errors.Is(err, domain.ErrCacheMiss):
			l.Warn("Tag cache read failed", zap.String("owner_id", ownerID), zap.Error(err))
		}
	}

	tags, err := s.notes.ListTagsByOwner(ctx, ownerID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to list tags", err)
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(tags); err == nil {
			if err := s.cache.Set(ctx, key, string(encoded), s.tagTTL); err != nil {
				l.Warn("Tag cache write failed", zap.String("owner_id", ownerID), zap.Error(err))
			}
		}
	}
	return tags, nil
}

// ListByTag returns the owner's notes under tag, newest first.
func (s *NoteService) ListByTag(ctx context.Context, ownerID, tag string) ([]domain.Note, error) {
	notes, err := s.notes.ListNotesByTag(ctx, ownerID, tag)
	if err != nil {
		return nil, domain.NewInternalError("Failed to list notes", err)
	}
	return notes, nil
}

func (s *NoteService) Get(ctx context.Context, actorID, noteID string) (*domain.Note, error) {
	return s.authorize(ctx, actorID, noteID)
}

// View is Get plus the summary, its HTML rendering and the parsed questions.
func (s *NoteService) View(ctx context.Context, actorID, noteID string) (*NoteView, error) {
	note, err := s.authorize(ctx, actorID, noteID)
	if err != nil {
		return nil, err
	}
	return BuildNoteView(note), nil
}

// BuildNoteView derives the reader-facing material from a stored note.
func BuildNoteView(note *domain.Note) *NoteView {
	summary := quizparse.Summary(note.GeneratedText)
	html, err := RenderSummaryHTML(summary)
	if err != nil {
		logger.Get().Warn("Failed to render summary", zap.String("note_id", note.ID), zap.Error(err))
	}
	return &NoteView{
		Note:        note,
		Summary:     summary,
		SummaryHTML: html,
		Records:     quizparse.Parse(note.GeneratedText),
	}
}

// Update merges the provided fields into the note.
func (s *NoteService) Update(ctx context.Context, actorID, noteID string, upd domain.NoteUpdate) (*domain.Note, error) {
	if upd.IsEmpty() {
		return nil, domain.NewInvalidInputError("no fields to update")
	}
	note, err := s.authorize(ctx, actorID, noteID)
	if err != nil {
		return nil, err
	}

	oldTag := note.Tag
	if upd.Tag != nil {
		tag := NormalizeTag(*upd.Tag)
		upd.Tag = &tag
	}
	updatedAt := s.now()
	if err := s.notes.UpdateNote(ctx, note.OwnerID, note.ID, upd, updatedAt); err != nil {
		return nil, wrapRepoErr("Failed to update note", err)
	}
	upd.Apply(note)
	note.UpdatedAt = updatedAt
	if note.Tag != oldTag {
		invalidateTags(ctx, s.cache, note.OwnerID)
	}
	return note, nil
}

func (s *NoteService) Delete(ctx context.Context, actorID, noteID string) error {
	note, err := s.authorize(ctx, actorID, noteID)
	if err != nil {
		return err
	}
	if err := s.notes.DeleteNote(ctx, note.OwnerID, note.ID); err != nil {
		return wrapRepoErr("Failed to delete note", err)
	}
	invalidateTags(ctx, s.cache, note.OwnerID)
	logger.Get().Info("Note deleted", zap.String("note_id", note.ID), zap.String("owner_id", note.OwnerID))
	return nil
}

// Regenerate reruns generation on the stored recognized text and replaces
// only the generated text.
func (s *NoteService) Regenerate(ctx context.Context, actorID, noteID string) (*NoteView, error) {
	note, err := s.authorize(ctx, actorID, noteID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(note.RecognizedText) == "" {
		return nil, domain.NewInvalidInputError("the note has no recognized text to regenerate from")
	}

	generated := s.policy.Generate(ctx, BuildStudyPrompt(note.RecognizedText))
	updatedAt := s.now()
	if err := s.notes.UpdateGeneratedText(ctx, note.OwnerID, note.ID, generated, updatedAt); err != nil {
		return nil, wrapRepoErr("Failed to save regenerated text", err)
	}
	note.GeneratedText = generated
	note.UpdatedAt = updatedAt
	return BuildNoteView(note), nil
}

// wrapRepoErr keeps domain errors from the repository and wraps anything else.
func wrapRepoErr(message string, err error) error {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return de
	}
	return domain.NewInternalError(message, err)
}
