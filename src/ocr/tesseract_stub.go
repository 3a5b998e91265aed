//go:build !tesseract

package ocr

import (
	"context"
	"errors"
)

const TesseractAvailable = false

var errNoTesseract = errors.New("tesseract support not compiled in (build with -tags tesseract)")

type TesseractRecognizer struct {
	Languages []string
}

func NewTesseractRecognizer(languages []string) *TesseractRecognizer {
	if len(languages) == 0 {
		languages = DefaultLanguages
	}
	return &TesseractRecognizer{Languages: languages}
}

func (r *TesseractRecognizer) Name() string { return "tesseract" }

func (r *TesseractRecognizer) Recognize(context.Context, []byte, string) (string, error) {
	return "", errNoTesseract
}
