// Package session runs one snip: capture the screen, let the user select a
// region, write it out, and hand the result to a target.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"screen-snip/src/clipboard"
	"screen-snip/src/geometry"
	"screen-snip/src/output"
	"screen-snip/src/overlay"
	"screen-snip/src/screenshot"
)

type CaptureFunc func(ctx context.Context) (*screenshot.Snapshot, error)

type Writer interface {
	Write(snap *screenshot.Snapshot, r geometry.Rect) (output.Result, error)
}

type ResultTarget interface {
	OnSuccess(res output.Result) error
	OnFailure(err error) error
	OnCancelled() error
}

type Options struct {
	Capture CaptureFunc
	Select  overlay.Selector
	Write   Writer
	Target  ResultTarget
}

type Result struct {
	Output    output.Result
	Cancelled bool
}

// Execute runs the pipeline once. A cancelled selection is a normal result
// with nothing written. A failed write discards the selection.
func Execute(ctx context.Context, opts Options) (Result, error) {
	if opts.Capture == nil {
		return Result{}, errors.New("Capture is required")
	}
	if opts.Select == nil {
		return Result{}, errors.New("Select is required")
	}
	if opts.Write == nil {
		return Result{}, errors.New("Write is required")
	}
	if opts.Target == nil {
		return Result{}, errors.New("Target is required")
	}

	snap, err := opts.Capture(ctx)
	if err != nil {
		_ = opts.Target.OnFailure(err)
		return Result{}, err
	}

	rect, cancelled, err := opts.Select.Select(ctx, snap)
	if err != nil {
		_ = opts.Target.OnFailure(err)
		return Result{}, err
	}
	if cancelled {
		log.Printf("Selection cancelled, nothing written")
		return Result{Cancelled: true}, opts.Target.OnCancelled()
	}

	res, err := opts.Write.Write(snap, rect)
	if err != nil {
		_ = opts.Target.OnFailure(err)
		return Result{}, err
	}

	if err := opts.Target.OnSuccess(res); err != nil {
		_ = opts.Target.OnFailure(err)
		return Result{Output: res}, err
	}
	return Result{Output: res}, nil
}

// CaptureDisplay returns a CaptureFunc for one display.
func CaptureDisplay(display int) CaptureFunc {
	return func(ctx context.Context) (*screenshot.Snapshot, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return screenshot.Capture(display)
	}
}

// ClipboardTarget copies the saved file path to the clipboard.
type ClipboardTarget struct{}

func (ClipboardTarget) OnSuccess(res output.Result) error {
	if err := clipboard.Write(res.Path); err != nil {
		return fmt.Errorf("clipboard error: %w", err)
	}
	return nil
}

func (ClipboardTarget) OnFailure(err error) error { return nil }
func (ClipboardTarget) OnCancelled() error        { return nil }

// StdoutTarget reports the outcome on Writer, stdout by default.
type StdoutTarget struct {
	Writer io.Writer
}

func (t StdoutTarget) out() io.Writer {
	if t.Writer == nil {
		return os.Stdout
	}
	return t.Writer
}

func (t StdoutTarget) OnSuccess(res output.Result) error {
	_, err := fmt.Fprintf(t.out(), "Saved %s (%dx%d, %d bytes)\n", res.Path, res.Width, res.Height, res.Bytes)
	return err
}

func (t StdoutTarget) OnFailure(err error) error { return nil }

func (t StdoutTarget) OnCancelled() error {
	_, err := fmt.Fprintln(t.out(), "Selection cancelled")
	return err
}

// MultiTarget fans results out to every target in order and joins their
// errors.
type MultiTarget []ResultTarget

func (m MultiTarget) OnSuccess(res output.Result) error {
	var errs []error
	for _, t := range m {
		errs = append(errs, t.OnSuccess(res))
	}
	return errors.Join(errs...)
}

func (m MultiTarget) OnFailure(err error) error {
	var errs []error
	for _, t := range m {
		errs = append(errs, t.OnFailure(err))
	}
	return errors.Join(errs...)
}

func (m MultiTarget) OnCancelled() error {
	var errs []error
	for _, t := range m {
		errs = append(errs, t.OnCancelled())
	}
	return errors.Join(errs...)
}
