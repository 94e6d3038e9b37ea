// Package ocr adapts OCR services to domain.TextRecognizer.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"time"

	"notesnap/internal/adapter/gcloud"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"
)

// imageAnnotator is the subset of the Vision client used here.
type imageAnnotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
	Close() error
}

// VisionRecognizer runs DOCUMENT_TEXT_DETECTION, which handles dense and handwritten text.
type VisionRecognizer struct {
	client  imageAnnotator
	timeout time.Duration
}

func NewVisionRecognizer(ctx context.Context, timeout time.Duration) (*VisionRecognizer, error) {
	client, err := vision.NewImageAnnotatorClient(ctx, gcloud.ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	return &VisionRecognizer{client: client, timeout: timeout}, nil
}

// Recognize implements domain.TextRecognizer.
func (r *VisionRecognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", nil
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: image},
			Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
		}},
	}
	resp, err := r.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return "", fmt.Errorf("vision BatchAnnotateImages: %w", err)
	}
	if resp == nil || len(resp.GetResponses()) == 0 {
		return "", nil
	}

	first := resp.GetResponses()[0]
	if msg := first.GetError().GetMessage(); msg != "" {
		return "", errors.New(msg)
	}
	return first.GetFullTextAnnotation().GetText(), nil
}

func (r *VisionRecognizer) Close() error {
	return r.client.Close()
}
