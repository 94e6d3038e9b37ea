package domain

import (
	"context"
	"errors"
	"io"
)

// ErrQuotaExhausted marks a generator failure caused by rate limiting or spent quota.
var ErrQuotaExhausted = errors.New("model quota exhausted")

// TextRecognizer extracts text from an image. An image without text yields "" and no error.
type TextRecognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// TextGenerator sends one prompt to the named model.
// Implementations wrap rate-limit failures with ErrQuotaExhausted.
type TextGenerator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// ImageStore keeps uploaded images until they have been recognized.
type ImageStore interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
