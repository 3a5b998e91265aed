package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"

	"screen-snip/src/llm"
)

// VisionClient is the part of llm.Client the LLM backend needs.
type VisionClient interface {
	QueryVision(ctx context.Context, png []byte) (string, error)
}

// LLMRecognizer sends images to a vision model. Non-PNG inputs are
// re-encoded as PNG first.
type LLMRecognizer struct {
	Client VisionClient
}

func NewLLMRecognizer(client VisionClient) *LLMRecognizer {
	return &LLMRecognizer{Client: client}
}

func (r *LLMRecognizer) Name() string { return "llm" }

func (r *LLMRecognizer) Recognize(ctx context.Context, data []byte, format string) (string, error) {
	png := data
	if format != "png" {
		var err error
		if png, err = toPNG(data); err != nil {
			return "", err
		}
	}
	text, err := r.Client.QueryVision(ctx, png)
	if errors.Is(err, llm.ErrNoText) {
		return "", ErrNoText
	}
	return text, err
}

func toPNG(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
