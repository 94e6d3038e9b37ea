// Package tesseract recognizes text locally through libtesseract.
package tesseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Recognizer implements domain.TextRecognizer. A fresh client is used per call
// since gosseract clients are not safe for concurrent use.
type Recognizer struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

func NewRecognizer(languages []string) *Recognizer {
	return &Recognizer{
		languages:     append([]string(nil), languages...),
		clientFactory: gosseract.NewClient,
	}
}

func (r *Recognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := r.clientFactory()
	defer c.Close()

	if len(r.languages) > 0 {
		if err := c.SetLanguage(r.languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return text, nil
}
