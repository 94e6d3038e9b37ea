package handler

import (
	"context"
	"strings"

	"notesnap/internal/domain"
	"notesnap/internal/dto"
	"notesnap/internal/logger"
	"notesnap/internal/middleware"
	"notesnap/internal/quizparse"
	"notesnap/internal/service"
	"notesnap/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// NoteProcessor runs the upload pipeline.
type NoteProcessor interface {
	Process(ctx context.Context, in service.UploadInput) (*service.ProcessResult, error)
}

// NoteArchive serves the owner-scoped archive and edit operations.
type NoteArchive interface {
	ListTags(ctx context.Context, ownerID string) ([]string, error)
	ListByTag(ctx context.Context, ownerID, tag string) ([]domain.Note, error)
	View(ctx context.Context, actorID, noteID string) (*service.NoteView, error)
	Update(ctx context.Context, actorID, noteID string, upd domain.NoteUpdate) (*domain.Note, error)
	Delete(ctx context.Context, actorID, noteID string) error
	Regenerate(ctx context.Context, actorID, noteID string) (*service.NoteView, error)
}

// NoteHandler handles note upload and archive HTTP requests
type NoteHandler struct {
	processor NoteProcessor
	archive   NoteArchive
	validator *validation.Validator
}

// NewNoteHandler creates a new NoteHandler instance
func NewNoteHandler(processor NoteProcessor, archive NoteArchive) *NoteHandler {
	return &NoteHandler{
		processor: processor,
		archive:   archive,
		validator: validation.NewValidator(),
	}
}

// UploadNote godoc
// @Summary Upload a photographed note
// @Description Runs OCR on the image, generates a summary and review questions, and stores the note.
// @Description When no text is recognized nothing is stored and skipped is true.
// @Tags notes
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param image formData file true "Photograph of the note"
// @Param tag formData string false "Tag to file the note under"
// @Success 201 {object} dto.UploadNoteResponse
// @Success 200 {object} dto.UploadNoteResponse "No text recognized"
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Router /notes [post]
func (h *NoteHandler) UploadNote(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return domain.NewInvalidInputError("an image file is required in the 'image' field")
	}
	if strings.TrimSpace(fileHeader.Filename) == "" {
		return domain.NewInvalidInputError("the image file name is empty")
	}

	tag := c.FormValue("tag")
	if errs := h.validator.ValidateTag(tag, false); len(errs) > 0 {
		return errs
	}

	file, err := fileHeader.Open()
	if err != nil {
		return domain.NewInvalidInputError("the uploaded file could not be read")
	}
	defer file.Close()

	result, err := h.processor.Process(c.UserContext(), service.UploadInput{
		Image:       file,
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get(fiber.HeaderContentType),
		OwnerID:     middleware.CurrentUserID(c),
		Tag:         tag,
	})
	if err != nil {
		return err
	}

	status := fiber.StatusCreated
	if result.Skipped {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(dto.UploadNoteResponse{
		NoteID:  result.NoteID,
		Skipped: result.Skipped,
		Tag:     result.Tag,
		Summary: result.Summary,
		Quizzes: toQuizItems(result.Records),
	})
}

// ListTags godoc
// @Summary List archive tags
// @Description Returns the distinct tags of the caller's notes
// @Tags archive
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.TagListResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /archive [get]
func (h *NoteHandler) ListTags(c *fiber.Ctx) error {
	tags, err := h.archive.ListTags(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	if tags == nil {
		tags = []string{}
	}
	return c.JSON(dto.TagListResponse{Tags: tags})
}

// ListNotesByTag godoc
// @Summary List notes under a tag
// @Description Returns the caller's notes under the tag, newest first
// @Tags archive
// @Produce json
// @Security ApiKeyAuth
// @Param tag path string true "Tag"
// @Success 200 {object} dto.NoteListResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /archive/{tag} [get]
func (h *NoteHandler) ListNotesByTag(c *fiber.Ctx) error {
	tag, _ := c.Locals(middleware.ValidatedTagKey).(string)

	notes, err := h.archive.ListByTag(c.UserContext(), middleware.CurrentUserID(c), tag)
	if err != nil {
		return err
	}

	items := make([]dto.NoteListItem, 0, len(notes))
	for _, n := range notes {
		items = append(items, dto.NoteListItem{
			ID:        n.ID,
			Tag:       n.Tag,
			Summary:   quizparse.Summary(n.GeneratedText),
			CreatedAt: n.CreatedAt,
		})
	}
	return c.JSON(dto.NoteListResponse{Tag: tag, Notes: items})
}

// GetNote godoc
// @Summary Get a note
// @Description Returns the note with its summary, rendered summary HTML and questions
// @Tags notes
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Note ID"
// @Success 200 {object} dto.NoteResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /notes/{id} [get]
func (h *NoteHandler) GetNote(c *fiber.Ctx) error {
	view, err := h.archive.View(c.UserContext(), middleware.CurrentUserID(c), noteID(c))
	if err != nil {
		return err
	}
	return c.JSON(toNoteResponse(view))
}

// UpdateNote godoc
// @Summary Update a note
// @Description Partial update; omitted fields are left unchanged
// @Tags notes
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Note ID"
// @Param request body dto.UpdateNoteRequest true "Fields to change"
// @Success 200 {object} dto.NoteResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /notes/{id} [put]
func (h *NoteHandler) UpdateNote(c *fiber.Ctx) error {
	var req dto.UpdateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}
	if errs := h.validator.ValidateNoteUpdate(req.RecognizedText, req.GeneratedText, req.Tag); len(errs) > 0 {
		return errs
	}

	note, err := h.archive.Update(c.UserContext(), middleware.CurrentUserID(c), noteID(c), domain.NoteUpdate{
		RecognizedText: req.RecognizedText,
		GeneratedText:  req.GeneratedText,
		Tag:            req.Tag,
	})
	if err != nil {
		return err
	}
	return c.JSON(toNoteResponse(service.BuildNoteView(note)))
}

// DeleteNote godoc
// @Summary Delete a note
// @Tags notes
// @Security ApiKeyAuth
// @Param id path string true "Note ID"
// @Success 204
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /notes/{id} [delete]
func (h *NoteHandler) DeleteNote(c *fiber.Ctx) error {
	if err := h.archive.Delete(c.UserContext(), middleware.CurrentUserID(c), noteID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RegenerateNote godoc
// @Summary Regenerate study material
// @Description Reruns generation on the stored recognized text and replaces the generated text
// @Tags notes
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Note ID"
// @Success 200 {object} dto.NoteResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /notes/{id}/regenerate [post]
func (h *NoteHandler) RegenerateNote(c *fiber.Ctx) error {
	view, err := h.archive.Regenerate(c.UserContext(), middleware.CurrentUserID(c), noteID(c))
	if err != nil {
		return err
	}
	logger.Get().Info("Note regenerated", zap.String("note_id", view.Note.ID))
	return c.JSON(toNoteResponse(view))
}

func noteID(c *fiber.Ctx) string {
	if id, ok := c.Locals(middleware.ValidatedNoteIDKey).(string); ok {
		return id
	}
	return c.Params("id")
}

func toNoteResponse(view *service.NoteView) dto.NoteResponse {
	return dto.NoteResponse{
		ID:             view.Note.ID,
		Tag:            view.Note.Tag,
		RecognizedText: view.Note.RecognizedText,
		GeneratedText:  view.Note.GeneratedText,
		Summary:        view.Summary,
		SummaryHTML:    view.SummaryHTML,
		Quizzes:        toQuizItems(view.Records),
		CreatedAt:      view.Note.CreatedAt,
		UpdatedAt:      view.Note.UpdatedAt,
	}
}

func toQuizItems(records []quizparse.Record) []dto.QuizItem {
	items := make([]dto.QuizItem, 0, len(records))
	for _, r := range records {
		item := dto.QuizItem{
			Kind:     string(r.Kind()),
			Question: r.Prompt(),
		}
		if answer, ok := r.Solution(); ok {
			item.Answer = answer
		}
		if mc, ok := r.(quizparse.MultipleChoice); ok {
			item.Choices = mc.Choices
		}
		items = append(items, item)
	}
	return items
}
