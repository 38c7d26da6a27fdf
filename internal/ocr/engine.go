package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"
)

// ErrEmptyText is returned when recognition produced no usable text
// lines. Callers surface this to the user as an unreadable bill, not as
// an internal fault.
var ErrEmptyText = errors.New("no text recognized in image")

// Engine converts a receipt image into ordered text lines, top to
// bottom. An implementation must never return an empty line slice with
// a nil error; emptiness is signaled through ErrEmptyText.
type Engine interface {
	Recognize(ctx context.Context, png []byte) ([]string, error)
}

// TesseractEngine recognizes text with a local Tesseract installation.
type TesseractEngine struct {
	language string
	logger   *zap.Logger
}

// NewTesseractEngine creates a Tesseract-backed engine. language is a
// Tesseract language code such as "eng".
func NewTesseractEngine(language string, logger *zap.Logger) *TesseractEngine {
	if language == "" {
		language = "eng"
	}
	return &TesseractEngine{language: language, logger: logger}
}

// Recognize runs Tesseract over a PNG image and returns the non-empty
// recognized lines in layout order.
func (e *TesseractEngine) Recognize(ctx context.Context, png []byte) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// gosseract reads from a file path; stage the image in a temp file.
	tmp, err := os.CreateTemp("", "receipt-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp image: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(png); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write temp image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.language); err != nil {
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}
	if err := client.SetImage(tmpPath); err != nil {
		return nil, fmt.Errorf("failed to load image into OCR client: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	lines := SplitLines(text)
	if len(lines) == 0 {
		return nil, ErrEmptyText
	}

	e.logger.Debug("Text recognized",
		zap.Int("line_count", len(lines)),
		zap.Int("image_bytes", len(png)))

	return lines, nil
}

// SplitLines splits raw recognized text into trimmed non-empty lines,
// preserving layout order.
func SplitLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
