package main

import (
	"context"
	"fmt"
	"errors"
	"image"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"

	"github.com/spf13/cobra"

	"screen-snip/src/compositor"
	"screen-snip/src/config"
	"screen-snip/src/gui"
	"screen-snip/src/logutil"
	"screen-snip/src/output"
	"screen-snip/src/overlay"
	"screen-snip/src/screenshot"
	"screen-snip/src/session"
)

func init() {
	// The windowing toolkit must own the main OS thread.
	runtime.LockOSThread()
}

type cliOptions struct {
	dir     string
	opacity float64
	minSize int
	display int
	copy    bool
	verbose bool
}

// settings is the merged view of configuration and flags.
type settings struct {
	Dir     string
	Prefix  string
	Opacity float64
	MinSize int
	Display int
	Copy    bool
}

// execute, newSelector and displayBounds are replaced in tests so no window
// is opened.
var (
	execute       = session.Execute
	newSelector   = func(opts overlay.Options) overlay.Selector { return gui.NewSelector(opts) }
	displayBounds = screenshot.GetDisplayBounds
)

// The overlay window always opens full-screen on the primary monitor.
var errDisplayNotPrimary = errors.New("overlay can only be shown on the primary display")

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
		args = []string{"snip"}
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
		Use:   "snip",
		Short: "Select a screen region and save it as PNG",
		Long: "Captures the screen, dims everything outside the rectangle you drag,\n" +
			"and saves the selection when you press Enter. Esc cancels.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithOptions(config.LoadOptions{OutputDirOverride: opts.dir})
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			s, err := resolveSettings(cfg, *opts, cmd.Flags().Changed)
			if err != nil {
				return err
			}

			closer := logutil.Setup(logutil.Options{File: cfg.EnableFileLogging, Verbose: opts.verbose})
			defer closer.Close()

			return snip(cmd.Context(), s, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.dir, "dir", "", "Output directory (default ~/Desktop or home)")
	cmd.Flags().Float64Var(&opts.opacity, "opacity", config.DefaultMaskOpacity, "Fraction of brightness kept outside the selection, in (0,1)")
	cmd.Flags().IntVar(&opts.minSize, "min-size", config.DefaultMinSelection, "Minimum selection width and height in pixels")
	cmd.Flags().IntVar(&opts.display, "display", 0, "Index of the display to capture; it must be the primary monitor at the desktop origin")
	cmd.Flags().BoolVar(&opts.copy, "copy", false, "Copy the saved file path to the clipboard")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")

	return cmd
}

// resolveSettings applies flags the user set on top of the configuration.
// --dir is already folded into cfg by config.LoadWithOptions.
func resolveSettings(cfg *config.Config, opts cliOptions, changed func(string) bool) (settings, error) {
	s := settings{
		Dir:     cfg.OutputDir,
		Prefix:  cfg.FilePrefix,
		Opacity: cfg.MaskOpacity,
		MinSize: cfg.MinSelectionSize,
		Display: cfg.CaptureDisplay,
		Copy:    cfg.CopyPathToClipboard,
	}
	if changed("opacity") {
		if err := compositor.ValidateOpacity(opts.opacity); err != nil {
			return settings{}, fmt.Errorf("--opacity %v: %w", opts.opacity, err)
		}
		s.Opacity = opts.opacity
	}
	if changed("min-size") {
		if opts.minSize <= 0 {
			return settings{}, fmt.Errorf("--min-size must be positive, got %d", opts.minSize)
		}
		s.MinSize = opts.minSize
	}
	if changed("display") {
		if opts.display < 0 {
			return settings{}, fmt.Errorf("--display must not be negative, got %d", opts.display)
		}
		s.Display = opts.display
	}
	if changed("copy") {
		s.Copy = opts.copy
	}
	return s, nil
}

// checkOverlayDisplay rejects a capture display other than the one at the
// desktop origin, where the overlay window is placed.
func checkOverlayDisplay(display int) error {
	if display == 0 {
		return nil
	}
	b, err := displayBounds(display)
	if err != nil {
		return fmt.Errorf("display %d: %w", display, err)
	}
	if b.Min != (image.Point{}) {
		return fmt.Errorf("%w: display %d is at (%d,%d)", errDisplayNotPrimary, display, b.Min.X, b.Min.Y)
	}
	return nil
}

func snip(ctx context.Context, s settings, stdout, stderr io.Writer) error {
	if err := checkOverlayDisplay(s.Display); err != nil {
		return err
	}
	writer := output.NewWriter(s.Dir, s.Prefix)
	log.Printf("Snip: display=%d dir=%s opacity=%.2f minSize=%d", s.Display, writer.Dir, s.Opacity, s.MinSize)

	targets := session.MultiTarget{session.StdoutTarget{Writer: stdout}}
	if s.Copy {
		targets = append(targets, session.ClipboardTarget{})
	}

	selector := newSelector(overlay.Options{
		Opacity: s.Opacity,
		MinSize: s.MinSize,
		OnRejected: func(err error) {
			fmt.Fprintf(stderr, "Selection too small (minimum %dx%d), drag again\n", s.MinSize, s.MinSize)
		},
	})

	_, err := execute(ctx, session.Options{
		Capture: session.CaptureDisplay(s.Display),
		Select:  selector,
		Write:   writer,
		Target:  targets,
	})
	return err
}
