package validation

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"notesnap/internal/domain"
	"notesnap/internal/util"
)

const (
	MaxTagLength      = 50
	MaxAnswerLength   = 2000
	MaxQuestionLength = 2000
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateNoteID checks that id is a ULID.
func (v *Validator) ValidateNoteID(id string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(id) == "" {
		errors = append(errors, domain.NewMissingFieldError("id"))
	} else if !util.IsULID(id) {
		errors = append(errors, domain.NewInvalidFormatError("id", id))
	}

	return errors
}

// ValidateTag checks a tag given by the user. An empty tag is allowed on
// upload, where it falls back to the default tag; required controls that.
func (v *Validator) ValidateTag(tag string, required bool) domain.ValidationErrors {
	var errors domain.ValidationErrors

	trimmed := strings.TrimSpace(tag)
	if trimmed == "" {
		if required {
			errors = append(errors, domain.NewMissingFieldError("tag"))
		}
		return errors
	}

	if n := utf8.RuneCountInString(trimmed); n > MaxTagLength {
		errors = append(errors, domain.NewOutOfRangeError("tag", n, 1, MaxTagLength))
	} else if !isValidTag(trimmed) {
		errors = append(errors, domain.NewInvalidFormatError("tag", tag))
	}

	return errors
}

// ValidateCheckAnswerRequest validates the check answer request
func (v *Validator) ValidateCheckAnswerRequest(question, userAnswer string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(question) == "" {
		errors = append(errors, domain.NewMissingFieldError("question"))
	} else if n := utf8.RuneCountInString(question); n > MaxQuestionLength {
		errors = append(errors, domain.NewOutOfRangeError("question", n, 1, MaxQuestionLength))
	}

	if strings.TrimSpace(userAnswer) == "" {
		errors = append(errors, domain.NewMissingFieldError("user_answer"))
	} else if n := utf8.RuneCountInString(userAnswer); n > MaxAnswerLength {
		errors = append(errors, domain.NewOutOfRangeError("user_answer", n, 1, MaxAnswerLength))
	}

	return errors
}

// ValidateNoteUpdate requires at least one field. Tag follows ValidateTag.
func (v *Validator) ValidateNoteUpdate(recognizedText, generatedText, tag *string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if recognizedText == nil && generatedText == nil && tag == nil {
		errors = append(errors, domain.ValidationError{
			Field:   "body",
			Code:    domain.CodeMissingField,
			Message: "at least one of recognized_text, generated_text or tag is required",
		})
		return errors
	}
	if tag != nil {
		errors = append(errors, v.ValidateTag(*tag, false)...)
	}

	return errors
}

// ValidateCredentials validates sign-up and sign-in input.
func (v *Validator) ValidateCredentials(email, password string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(email) == "" {
		errors = append(errors, domain.NewMissingFieldError("email"))
	} else if !isValidEmail(email) {
		errors = append(errors, domain.NewInvalidFormatError("email", email))
	}

	if password == "" {
		errors = append(errors, domain.NewMissingFieldError("password"))
	} else if n := len(password); n < MinPasswordLength || n > MaxPasswordLength {
		errors = append(errors, domain.NewOutOfRangeError("password", n, MinPasswordLength, MaxPasswordLength))
	}

	return errors
}

// Helper functions for validation

// isValidTag rejects path separators and control characters; tags appear in URLs.
func isValidTag(s string) bool {
	return !strings.ContainsFunc(s, func(r rune) bool {
		return r == '/' || r == '\\' || r < 0x20 || r == 0x7f
	})
}

func isValidEmail(s string) bool {
	addr, err := mail.ParseAddress(strings.TrimSpace(s))
	return err == nil && addr.Name == "" && strings.Contains(addr.Address, "@")
}
