package middleware

import (
	"net/url"
	"strings"

	"notesnap/internal/domain"
	"notesnap/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const (
	ValidatedNoteIDKey = "validated_note_id"
	ValidatedTagKey    = "validated_tag"
)

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validation.NewValidator(),
	}
}

// ValidateNoteID validates the :id path parameter
func (vm *ValidationMiddleware) ValidateNoteID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if errors := vm.validator.ValidateNoteID(id); len(errors) > 0 {
			return errors // This will be handled by ErrorHandler
		}

		c.Locals(ValidatedNoteIDKey, id)
		return c.Next()
	}
}

// ValidateTagParam validates the :tag path parameter. Tags may be percent-encoded.
func (vm *ValidationMiddleware) ValidateTagParam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Params("tag")
		tag, err := url.PathUnescape(raw)
		if err != nil {
			return domain.ValidationErrors{domain.NewInvalidFormatError("tag", raw)}
		}

		if errors := vm.validator.ValidateTag(tag, true); len(errors) > 0 {
			return errors
		}

		c.Locals(ValidatedTagKey, strings.TrimSpace(tag))
		return c.Next()
	}
}
