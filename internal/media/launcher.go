package media

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/pders01/reel/internal/config"
	"github.com/pders01/reel/internal/debuglog"
	"github.com/pders01/reel/internal/validation"
)

// ErrNoOpener is returned when no application is available for the platform.
var ErrNoOpener = errors.New("no application found to open URL")

// Launcher opens trailer, watch and poster links in external applications.
type Launcher struct {
	table      *Table
	goos       string
	opener     string
	usePlayers bool
	validator  *validation.LinkValidator

	lookPath func(string) (string, error)
	start    func(*exec.Cmd) error
}

// LauncherOption customizes a Launcher.
type LauncherOption func(*Launcher)

// WithValidator replaces the default link validator.
func WithValidator(v *validation.LinkValidator) LauncherOption {
	return func(l *Launcher) { l.validator = v }
}

// WithGOOS pretends to run on another platform.
func WithGOOS(goos string) LauncherOption {
	return func(l *Launcher) { l.goos = goos }
}

// WithLookPath replaces exec.LookPath.
func WithLookPath(fn func(string) (string, error)) LauncherOption {
	return func(l *Launcher) { l.lookPath = fn }
}

// WithStarter replaces the function that starts the command.
func WithStarter(fn func(*exec.Cmd) error) LauncherOption {
	return func(l *Launcher) { l.start = fn }
}

// NewLauncher builds a launcher from the embedded opener table, any user
// table under ~/.config/reel, and the media section of the config.
func NewLauncher(cfg config.MediaConfig, opts ...LauncherOption) *Launcher {
	table, err := LoadTable("~/.config/reel/openers.toml")
	if err != nil {
		debuglog.Warnf("opener table: %v, using built-in table", err)
		table, _ = LoadTable()
	}

	l := &Launcher{
		table:      table,
		goos:       runtime.GOOS,
		opener:     cfg.DefaultOpener,
		usePlayers: cfg.UsePlayers,
		validator:  validation.NewLinkValidator(),
		lookPath:   exec.LookPath,
		start:      startDetached,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Command builds the command that would open link without starting it.
func (l *Launcher) Command(link string) (*exec.Cmd, error) {
	clean, err := l.validator.ValidateAndNormalize(link)
	if err != nil {
		return nil, fmt.Errorf("refusing to open link: %w", err)
	}

	kind := l.table.Detect(clean)
	if l.usePlayers && kind != KindWeb {
		for _, name := range l.table.playersFor(kind, l.goos) {
			if _, err := l.lookPath(name); err != nil {
				continue
			}
			args := append(append([]string{}, l.table.Players[name].Args...), clean)
			return exec.Command(name, args...), nil
		}
	}

	if l.opener != "" {
		return exec.Command(l.opener, clean), nil
	}

	platform, ok := l.table.Platforms[l.goos]
	if !ok || platform.Opener == "" {
		return nil, ErrNoOpener
	}
	args := append(append([]string{}, platform.Args...), clean)
	return exec.Command(platform.Opener, args...), nil
}

// Open launches link and returns once the application has started.
func (l *Launcher) Open(link string) error {
	cmd, err := l.Command(link)
	if err != nil {
		return err
	}

	debuglog.WithFields(map[string]any{
		"component": "media",
		"command":   cmd.Path,
		"kind":      l.table.Detect(link).String(),
	}).Debugf("opening %s", link)

	if err := l.start(cmd); err != nil {
		return fmt.Errorf("failed to start %s: %w", cmd.Args[0], err)
	}
	return nil
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
