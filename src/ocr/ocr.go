// Package ocr extracts text from image files through a pluggable
// recognition backend.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var (
	ErrFileNotFound      = errors.New("image file not found")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrNoText            = errors.New("no text recognized")
	ErrBackend           = errors.New("recognition backend failed")
)

// DefaultLanguages are the tesseract language packs used when none are
// configured.
var DefaultLanguages = []string{"chi_sim", "eng"}

// SupportedFormats lists the accepted file extensions without the dot.
var SupportedFormats = []string{"png", "jpg", "jpeg", "bmp", "tiff", "tif", "gif"}

type Result struct {
	Text  string `json:"text"`
	Chars int    `json:"chars"`
	Lines int    `json:"lines"`
}

type Extractor interface {
	Extract(ctx context.Context, path string) (Result, error)
}

// Recognizer turns encoded image bytes into raw text. format is the
// lower-case file extension without the dot.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, data []byte, format string) (string, error)
}

type fileExtractor struct {
	backend Recognizer
}

func New(backend Recognizer) Extractor {
	return &fileExtractor{backend: backend}
}

func (e *fileExtractor) Extract(ctx context.Context, path string) (Result, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return Result{}, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	format, ok := formatOf(path)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrFileNotFound, err)
	}

	log.Printf("OCR: %s backend reading %s (%d bytes)", e.backend.Name(), path, len(data))
	text, err := e.backend.Recognize(ctx, data, format)
	if err != nil {
		if errors.Is(err, ErrNoText) || errors.Is(err, ErrUnsupportedFormat) {
			return Result{}, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrBackend, ctxErr)
		}
		return Result{}, fmt.Errorf("%w: %s: %v", ErrBackend, e.backend.Name(), err)
	}

	res := NewResult(text)
	if res.Text == "" {
		return Result{}, ErrNoText
	}
	log.Printf("OCR: recognized %d chars in %d lines", res.Chars, res.Lines)
	return res, nil
}

// NewResult trims text and counts its characters and lines.
func NewResult(text string) Result {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}
	}
	return Result{
		Text:  text,
		Chars: utf8.RuneCountInString(text),
		Lines: strings.Count(text, "\n") + 1,
	}
}

func formatOf(path string) (string, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, f := range SupportedFormats {
		if ext == f {
			return ext, true
		}
	}
	return "", false
}

// Reason maps an extraction error to a short machine-readable reason.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFileNotFound):
		return "file_not_found"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrNoText):
		return "no_text"
	default:
		return "backend_error"
	}
}
