package probe

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"maccleanup/internal/shell"
	"maccleanup/internal/target"
)

func TestDetectByPath(t *testing.T) {
	runner := &shell.FakeRunner{Present: map[string]string{"brew": "/opt/homebrew/bin/brew"}}
	p := New(afero.NewMemMapFs(), runner, zerolog.Nop())

	if !p.Detect(context.Background(), target.ToolHomebrew) {
		t.Error("brew on PATH should be detected")
	}
	if p.Detect(context.Background(), target.ToolDocker) {
		t.Error("docker absent from PATH should not be detected")
	}
	if !p.Detect(context.Background(), target.ToolNone) {
		t.Error("ToolNone is always available")
	}
}

func TestDetectXcode(t *testing.T) {
	t.Run("app bundle", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		if err := fsys.MkdirAll(XcodeApp, 0o755); err != nil {
			t.Fatal(err)
		}
		p := New(fsys, &shell.FakeRunner{}, zerolog.Nop())
		if !p.Detect(context.Background(), target.ToolXcode) {
			t.Error("Xcode.app present should be detected")
		}
	})

	t.Run("command line tools", func(t *testing.T) {
		runner := &shell.FakeRunner{Present: map[string]string{"xcode-select": "/usr/bin/xcode-select"}}
		p := New(afero.NewMemMapFs(), runner, zerolog.Nop())
		if !p.Detect(context.Background(), target.ToolXcode) {
			t.Error("xcode-select -p success should be detected")
		}
		if len(runner.Calls) != 1 || runner.Calls[0] != "xcode-select -p" {
			t.Errorf("Calls = %v", runner.Calls)
		}
	})

	t.Run("xcode-select fails", func(t *testing.T) {
		runner := &shell.FakeRunner{
			Present: map[string]string{"xcode-select": "/usr/bin/xcode-select"},
			Fail:    map[string]error{"xcode-select -p": errors.New("exit status 2")},
		}
		p := New(afero.NewMemMapFs(), runner, zerolog.Nop())
		if p.Detect(context.Background(), target.ToolXcode) {
			t.Error("failing probe should mean absent")
		}
	})
}

func TestDetectAll(t *testing.T) {
	runner := &shell.FakeRunner{Present: map[string]string{"docker": "/usr/local/bin/docker"}}
	results := New(afero.NewMemMapFs(), runner, zerolog.Nop()).DetectAll(context.Background())

	if len(results) != len(Tools) {
		t.Errorf("results = %v, want an entry per tool", results)
	}
	if !results.Has(target.ToolDocker) || results.Has(target.ToolHomebrew) || results.Has(target.ToolXcode) {
		t.Errorf("results = %v", results)
	}
}
