//go:build tesseract

package ocr

import (
	"context"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractAvailable reports whether the binary was built with the
// tesseract backend.
const TesseractAvailable = true

// TesseractRecognizer runs a local tesseract engine.
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

func (r *TesseractRecognizer) Recognize(ctx context.Context, data []byte, _ string) (string, error) {
	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := r.run(data)
		done <- result{text, err}
	}()

	select {
	case <-ctx.Done():
		// The engine cannot be interrupted; its result is discarded.
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			return "", res.err
		}
		if strings.TrimSpace(res.text) == "" {
			return "", ErrNoText
		}
		return res.text, nil
	}
}

func (r *TesseractRecognizer) run(data []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(r.Languages...); err != nil {
		return "", err
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", err
	}
	return client.Text()
}
