package ocr

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// receipts smaller than this are upscaled before recognition
const minRecognitionHeight = 800

// NormalizeImage turns whatever the chat platform delivered (JPEG,
// PNG, GIF, HEIC photos or a PDF) into a grayscale PNG sized for
// recognition.
func NormalizeImage(data []byte, mimeType string) ([]byte, error) {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))

	var img image.Image
	var err error

	switch {
	case mimeType == "application/pdf" || isPDF(data):
		img, err = pdfFirstPage(data)
	case isHEIC(data) || strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif"):
		// iPhones upload HEIC; the standard image package cannot
		// decode it.
		img, err = heic.Decode(bytes.NewReader(data))
		if err != nil {
			err = fmt.Errorf("failed to decode HEIC image: %w", err)
		}
	default:
		img, _, err = image.Decode(bytes.NewReader(data))
		if err != nil {
			err = fmt.Errorf("failed to decode image: %w", err)
		}
	}
	if err != nil {
		return nil, err
	}

	return preprocess(img)
}

// preprocess converts to grayscale and upscales small photos, which
// measurably improves Tesseract accuracy on thermal-paper receipts.
func preprocess(img image.Image) ([]byte, error) {
	gray := imaging.Grayscale(img)
	if gray.Bounds().Dy() < minRecognitionHeight {
		gray = imaging.Resize(gray, 0, 1200, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// pdfFirstPage rasterizes the first page of a PDF. Receipts attached as
// PDFs are almost always single page.
func pdfFirstPage(data []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("failed to render PDF page: %w", err)
	}
	return img, nil
}

func isPDF(data []byte) bool {
	return len(data) >= 4 && string(data[:4]) == "%PDF"
}

// isHEIC checks the ftyp box brands HEIC containers start with.
func isHEIC(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}
