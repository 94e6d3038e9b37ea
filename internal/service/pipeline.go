package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"notesnap/internal/cache"
	"notesnap/internal/domain"
	"notesnap/internal/logger"
	"notesnap/internal/quizparse"
	"notesnap/internal/util"

	"go.uber.org/zap"
)

// NoTextExtractedMessage is reported when OCR finds nothing to study.
const NoTextExtractedMessage = "No text could be extracted from the image, so AI processing was skipped."

// UploadInput is one photographed page submitted by an owner.
type UploadInput struct {
	Image       io.Reader
	Filename    string
	ContentType string
	OwnerID     string
	Tag         string
}

// ProcessResult describes what the pipeline produced. NoteID is empty when Skipped.
type ProcessResult struct {
	NoteID  string
	Tag     string
	Skipped bool
	Summary string
	Records []quizparse.Record
}

// NotePipeline turns an uploaded image into a stored note with study material.
type NotePipeline struct {
	store      domain.ImageStore
	recognizer domain.TextRecognizer
	policy     *CandidatePolicy
	notes      domain.NoteRepository
	cache      domain.Cache
	now        func() time.Time
}

func NewNotePipeline(store domain.ImageStore, recognizer domain.TextRecognizer, policy *CandidatePolicy, notes domain.NoteRepository, cache domain.Cache) *NotePipeline {
	return &NotePipeline{
		store:      store,
		recognizer: recognizer,
		policy:     policy,
		notes:      notes,
		cache:      cache,
		now:        time.Now,
	}
}

// NormalizeTag trims tag and substitutes domain.DefaultTag when nothing is left.
func NormalizeTag(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return domain.DefaultTag
	}
	return tag
}

// Process runs intake, OCR, generation, parsing and persistence in order.
// Nothing is stored unless every step before persistence succeeded.
func (p *NotePipeline) Process(ctx context.Context, in UploadInput) (*ProcessResult, error) {
	l := logger.Get().With(zap.String("owner_id", in.OwnerID))

	if in.Image == nil {
		return nil, domain.NewInvalidInputError("no image file was provided")
	}
	if strings.TrimSpace(in.Filename) == "" {
		return nil, domain.NewInvalidInputError("the image file name is empty")
	}

	key, err := p.store.Save(ctx, in.Filename, in.Image)
	if err != nil {
		return nil, domain.NewStorageError("Failed to store the uploaded image", err)
	}
	defer func() {
		if err := p.store.Delete(context.WithoutCancel(ctx), key); err != nil {
			l.Warn("Failed to remove transient image", zap.String("key", key), zap.Error(err))
		}
	}()

	image, err := p.readBack(ctx, key)
	if err != nil {
		return nil, domain.NewStorageError("Failed to read the uploaded image", err)
	}

	text, err := p.recognizer.Recognize(ctx, image)
	if err != nil {
		l.Error("OCR failed", zap.String("filename", in.Filename), zap.Error(err))
		return nil, domain.NewOCRServiceError(err)
	}
	if strings.TrimSpace(text) == "" {
		l.Info("No text recognized, skipping generation", zap.String("filename", in.Filename))
		return &ProcessResult{Skipped: true, Summary: NoTextExtractedMessage}, nil
	}

	generated := p.policy.Generate(ctx, BuildStudyPrompt(text))

	now := p.now()
	note := &domain.Note{
		ID:             util.NewULID(),
		OwnerID:        in.OwnerID,
		RecognizedText: text,
		GeneratedText:  generated,
		Tag:            NormalizeTag(in.Tag),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := p.notes.CreateNote(ctx, note); err != nil {
		l.Error("Failed to persist note", zap.Error(err))
		return nil, domain.NewInternalError("Failed to save the note", err)
	}
	invalidateTags(ctx, p.cache, in.OwnerID)

	l.Info("Note processed", zap.String("note_id", note.ID), zap.String("tag", note.Tag))
	return &ProcessResult{
		NoteID:  note.ID,
		Tag:     note.Tag,
		Summary: quizparse.Summary(generated),
		Records: quizparse.Parse(generated),
	}, nil
}

func (p *NotePipeline) readBack(ctx context.Context, key string) ([]byte, error) {
	rc, err := p.store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", key, err)
	}
	return data, nil
}

// invalidateTags drops the cached tag list of owner. Failures are logged and ignored.
func invalidateTags(ctx context.Context, c domain.Cache, ownerID string) {
	if c == nil {
		return
	}
	if err := c.Delete(ctx, cache.TagListKey(ownerID)); err != nil {
		logger.Get().Warn("Failed to invalidate tag cache", zap.String("owner_id", ownerID), zap.Error(err))
	}
}
