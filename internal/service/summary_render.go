package service

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// summaryMarkdown renders generated summaries. Raw HTML in the input is
// dropped since goldmark's renderer is not configured with WithUnsafe.
var summaryMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
)

// RenderSummaryHTML converts a markdown summary into an HTML fragment.
func RenderSummaryHTML(summary string) (string, error) {
	if summary == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := summaryMarkdown.Convert([]byte(summary), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
