package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"strings"
	"testing"

	"screen-snip/src/compositor"
	"screen-snip/src/config"
	"screen-snip/src/output"
	"screen-snip/src/overlay"
	"screen-snip/src/session"
)

func baseConfig() *config.Config {
	return &config.Config{
		OutputDir:        "/from/config",
		FilePrefix:       "screenshot",
		MaskOpacity:      0.1,
		MinSelectionSize: 10,
		CaptureDisplay:   1,
	}
}

func changedSet(names ...string) func(string) bool {
	return func(name string) bool {
		for _, n := range names {
			if n == name {
				return true
			}
		}
		return false
	}
}

func TestResolveSettingsKeepsConfigWithoutFlags(t *testing.T) {
	s, err := resolveSettings(baseConfig(), cliOptions{dir: "/ignored", opacity: 0.9}, changedSet())
	if err != nil {
		t.Fatal(err)
	}
	want := settings{Dir: "/from/config", Prefix: "screenshot", Opacity: 0.1, MinSize: 10, Display: 1}
	if s != want {
		t.Errorf("settings = %+v, want %+v", s, want)
	}
}

func TestResolveSettingsFlagsWin(t *testing.T) {
	opts := cliOptions{dir: "/tmp/out", opacity: 0.4, minSize: 32, display: 0, copy: true}
	s, err := resolveSettings(baseConfig(), opts, changedSet("dir", "opacity", "min-size", "display", "copy"))
	if err != nil {
		t.Fatal(err)
	}
	want := settings{Dir: "/from/config", Prefix: "screenshot", Opacity: 0.4, MinSize: 32, Display: 0, Copy: true}
	if s != want {
		t.Errorf("settings = %+v, want %+v", s, want)
	}
}

func TestResolveSettingsRejectsBadFlags(t *testing.T) {
	tests := []struct {
		name string
		opts cliOptions
		flag string
	}{
		{"opacity zero", cliOptions{opacity: 0}, "opacity"},
		{"opacity one", cliOptions{opacity: 1}, "opacity"},
		{"min size", cliOptions{minSize: 0}, "min-size"},
		{"display", cliOptions{display: -2}, "display"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := resolveSettings(baseConfig(), tt.opts, changedSet(tt.flag)); err == nil {
				t.Error("expected error")
			}
		})
	}
	_, err := resolveSettings(baseConfig(), cliOptions{opacity: 1.5}, changedSet("opacity"))
	if !errors.Is(err, compositor.ErrInvalidOpacity) {
		t.Errorf("got %v, want ErrInvalidOpacity", err)
	}
}

func TestRejectsPositionalArgs(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := runWithArgs(context.Background(), []string{"snip", "extra"}, &stdout, &stderr)
	if err == nil {
		t.Error("expected error for positional argument")
	}
}

func TestSnipWiresPipeline(t *testing.T) {
	var gotSel overlay.Options
	var gotOpts session.Options
	origExec, origSel := execute, newSelector
	defer func() { execute, newSelector = origExec, origSel }()

	newSelector = func(opts overlay.Options) overlay.Selector {
		gotSel = opts
		return overlay.SelectorFunc(nil)
	}
	execute = func(ctx context.Context, opts session.Options) (session.Result, error) {
		gotOpts = opts
		return session.Result{Output: output.Result{Path: "/tmp/x.png"}}, nil
	}

	var stdout, stderr bytes.Buffer
	s := settings{Dir: t.TempDir(), Prefix: "snip", Opacity: 0.3, MinSize: 12, Copy: true}
	if err := snip(context.Background(), s, &stdout, &stderr); err != nil {
		t.Fatal(err)
	}

	if gotSel.Opacity != 0.3 || gotSel.MinSize != 12 || gotSel.OnRejected == nil {
		t.Errorf("selector options = %+v", gotSel)
	}
	w, ok := gotOpts.Write.(*output.Writer)
	if !ok || w.Dir != s.Dir || w.Prefix != "snip" {
		t.Errorf("writer = %#v", gotOpts.Write)
	}
	targets, ok := gotOpts.Target.(session.MultiTarget)
	if !ok || len(targets) != 2 {
		t.Errorf("targets = %#v", gotOpts.Target)
	}
	if gotOpts.Capture == nil {
		t.Error("capture not wired")
	}

	gotSel.OnRejected(errors.New("too small"))
	if !strings.Contains(stderr.String(), "minimum 12x12") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestSnipPropagatesFailure(t *testing.T) {
	origExec, origSel := execute, newSelector
	defer func() { execute, newSelector = origExec, origSel }()
	boom := errors.New("no display")
	newSelector = func(overlay.Options) overlay.Selector { return overlay.SelectorFunc(nil) }
	execute = func(context.Context, session.Options) (session.Result, error) { return session.Result{}, boom }

	err := snip(context.Background(), settings{Dir: t.TempDir()}, &bytes.Buffer{}, &bytes.Buffer{})
	if !errors.Is(err, boom) {
		t.Errorf("got %v, want %v", err, boom)
	}
}

func TestDirFlagOverridesEnvironment(t *testing.T) {
	t.Setenv("OUTPUT_DIR", "/from/env")
	t.Setenv("ENABLE_FILE_LOGGING", "")
	t.Setenv("CAPTURE_DISPLAY", "")
	t.Setenv(config.EnvFileEnvVar, "")
	origExec, origSel := execute, newSelector
	defer func() { execute, newSelector = origExec, origSel }()

	var dirs []string
	newSelector = func(overlay.Options) overlay.Selector { return overlay.SelectorFunc(nil) }
	execute = func(ctx context.Context, opts session.Options) (session.Result, error) {
		dirs = append(dirs, opts.Write.(*output.Writer).Dir)
		return session.Result{Cancelled: true}, nil
	}

	flagDir := t.TempDir()
	for _, args := range [][]string{{"snip", "--dir", flagDir}, {"snip"}} {
		if err := runWithArgs(context.Background(), args, &bytes.Buffer{}, &bytes.Buffer{}); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}
	if len(dirs) != 2 || dirs[0] != flagDir || dirs[1] != "/from/env" {
		t.Errorf("output dirs = %q, want [%q /from/env]", dirs, flagDir)
	}
}

func TestCheckOverlayDisplay(t *testing.T) {
	origBounds := displayBounds
	defer func() { displayBounds = origBounds }()

	bounds := map[int]image.Rectangle{
		1: image.Rect(0, 0, 1920, 1080),
		2: image.Rect(1920, 0, 3840, 1080),
	}
	displayBounds = func(display int) (image.Rectangle, error) {
		b, ok := bounds[display]
		if !ok {
			return image.Rectangle{}, errors.New("no such display")
		}
		return b, nil
	}

	if err := checkOverlayDisplay(0); err != nil {
		t.Errorf("display 0: %v", err)
	}
	if err := checkOverlayDisplay(1); err != nil {
		t.Errorf("display at origin: %v", err)
	}
	if err := checkOverlayDisplay(2); !errors.Is(err, errDisplayNotPrimary) {
		t.Errorf("secondary display: got %v, want errDisplayNotPrimary", err)
	}
	if err := checkOverlayDisplay(5); err == nil {
		t.Error("missing display: expected error")
	}

	// snip refuses before capturing anything.
	origExec := execute
	defer func() { execute = origExec }()
	execute = func(context.Context, session.Options) (session.Result, error) {
		t.Fatal("execute must not run for a secondary display")
		return session.Result{}, nil
	}
	err := snip(context.Background(), settings{Dir: t.TempDir(), Display: 2}, &bytes.Buffer{}, &bytes.Buffer{})
	if !errors.Is(err, errDisplayNotPrimary) {
		t.Errorf("snip: got %v, want errDisplayNotPrimary", err)
	}
}
