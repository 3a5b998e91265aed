package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"screen-snip/src/clipboard"
	"screen-snip/src/config"
	"screen-snip/src/llm"
	"screen-snip/src/logutil"
	"screen-snip/src/ocr"
)

type cliOptions struct {
	jsonOutput bool
	verbose    bool
	copy       bool
	backend    string
	apiKeyPath string
}

// newExtractor builds the extractor for the configured backend. Tests
// replace it.
var newExtractor = defaultExtractor

// copyText puts text on the clipboard. Tests replace it.
var copyText = clipboard.Write

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return runWithArgs(ctx, os.Args, os.Stdout, os.Stderr)
}

func runWithArgs(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		args = []string{"ocr"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ocr [image]",
		Short: "Extract text from an image file",
		Long: "Extract text from an image file.\n\n" +
			"Supported formats: " + strings.ToUpper(strings.Join(ocr.SupportedFormats, ", ")),
		Example:       "  ocr /path/to/image.png\n  ocr --json screenshot.jpg",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runWithOptions(cmd.Context(), *opts, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	cmd.Flags().BoolVar(&opts.copy, "copy", false, "Copy the extracted text to the clipboard")
	cmd.Flags().StringVar(&opts.backend, "backend", "", "Recognition backend: llm or tesseract (default from OCR_BACKEND)")
	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")

	return cmd
}

func runWithOptions(ctx context.Context, opts cliOptions, path string, stdout, stderr io.Writer) error {
	switch strings.ToLower(opts.backend) {
	case "", config.BackendLLM, config.BackendTesseract:
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", opts.backend, config.BackendLLM, config.BackendTesseract)
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{
		APIKeyPathOverride: opts.apiKeyPath,
		BackendOverride:    opts.backend,
	})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	closer := logutil.Setup(logutil.Options{File: cfg.EnableFileLogging, Verbose: opts.verbose})
	defer closer.Close()

	verbosef := func(format string, args ...any) {
		if opts.verbose {
			fmt.Fprintf(stderr, "[verbose] "+format+"\n", args...)
		}
	}
	verbosef("Backend: %s, deadline %ds", cfg.OCRBackend, cfg.OCRDeadlineSec)
	if cfg.OCRBackend == config.BackendLLM {
		verbosef("API key path: %s, key %s", cfg.APIKeyPath, logutil.RedactKey(cfg.APIKey))
	}

	extractor, err := newExtractor(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.OCRDeadlineSec)*time.Second)
	defer cancel()

	start := time.Now()
	res, err := extractor.Extract(ctx, path)
	elapsed := time.Since(start)
	if err != nil {
		verbosef("OCR failed after %v: %v", elapsed, err)
		if opts.jsonOutput {
			_ = writeJSON(stdout, OCRFailure{Source: path, Error: err.Error(), Reason: ocr.Reason(err)})
		}
		return fmt.Errorf("OCR failed: %w", err)
	}
	verbosef("OCR completed in %v: %d characters, %d lines", elapsed, res.Chars, res.Lines)

	if opts.copy {
		if err := copyText(res.Text); err != nil {
			return fmt.Errorf("clipboard error: %w", err)
		}
		verbosef("Copied text to clipboard")
	}

	if opts.jsonOutput {
		return writeJSON(stdout, OCRResult{
			Text:      res.Text,
			Source:    path,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Duration:  elapsed.Seconds(),
			CharCount: res.Chars,
			LineCount: res.Lines,
		})
	}
	_, err = fmt.Fprintln(stdout, res.Text)
	return err
}

func defaultExtractor(cfg *config.Config) (ocr.Extractor, error) {
	if cfg.OCRBackend == config.BackendTesseract {
		if !ocr.TesseractAvailable {
			return nil, errors.New("tesseract backend not available in this build (rebuild with -tags tesseract)")
		}
		return ocr.New(ocr.NewTesseractRecognizer(cfg.OCRLanguages)), nil
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY not found. Checked key file %s and OPENROUTER_API_KEY env var", cfg.APIKeyPath)
	}
	if cfg.Model == "" {
		return nil, errors.New("MODEL is required in .env file")
	}
	client := llm.NewClient(cfg.APIKey, cfg.Model, cfg.Providers)
	return ocr.New(ocr.NewLLMRecognizer(client)), nil
}

type OCRResult struct {
	Text      string  `json:"text"`
	Source    string  `json:"source"`
	Timestamp string  `json:"timestamp"`
	Duration  float64 `json:"duration_seconds"`
	CharCount int     `json:"character_count"`
	LineCount int     `json:"line_count"`
}

type OCRFailure struct {
	Source string `json:"source"`
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}
