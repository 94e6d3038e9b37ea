package handler

import (
	"context"

	"notesnap/internal/domain"
	"notesnap/internal/dto"
	"notesnap/internal/service"
	"notesnap/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// AnswerJudge checks one answer against a question.
type AnswerJudge interface {
	Check(ctx context.Context, in service.CheckInput) (*service.CheckResult, error)
}

// QuizHandler handles quiz-related HTTP requests
type QuizHandler struct {
	judge     AnswerJudge
	validator *validation.Validator
}

// NewQuizHandler creates a new QuizHandler instance
func NewQuizHandler(judge AnswerJudge) *QuizHandler {
	return &QuizHandler{
		judge:     judge,
		validator: validation.NewValidator(),
	}
}

// CheckAnswer godoc
// @Summary Check quiz answer
// @Description Asks the model whether the answer is correct. When every model is busy the verdict is indeterminate.
// @Tags quiz
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body dto.CheckAnswerRequest true "Answer details"
// @Success 200 {object} dto.CheckAnswerResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /quiz/check [post]
func (h *QuizHandler) CheckAnswer(c *fiber.Ctx) error {
	var req dto.CheckAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}

	// Validate request
	if errs := h.validator.ValidateCheckAnswerRequest(req.Question, req.UserAnswer); len(errs) > 0 {
		return errs
	}

	result, err := h.judge.Check(c.UserContext(), service.CheckInput{
		Question:    req.Question,
		ModelAnswer: req.ModelAnswer,
		UserAnswer:  req.UserAnswer,
	})
	if err != nil {
		return err
	}

	return c.JSON(dto.CheckAnswerResponse{
		Verdict:     string(result.Verdict),
		Explanation: result.Explanation,
		Cached:      result.Cached,
	})
}
