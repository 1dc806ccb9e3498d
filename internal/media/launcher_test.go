package media

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/pders01/reel/internal/config"
)

func TestDetect(t *testing.T) {
	table, err := LoadTable()
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}

	tests := []struct {
		name     string
		url      string
		expected Kind
	}{
		{name: "YouTube trailer", url: "https://www.youtube.com/watch?v=abc123", expected: KindVideo},
		{name: "YouTube short link", url: "https://youtu.be/abc123", expected: KindVideo},
		{name: "Vimeo", url: "https://vimeo.com/123456", expected: KindVideo},
		{name: "MP4 file", url: "https://example.org/clip.MP4", expected: KindVideo},
		{name: "Poster", url: "https://image.tmdb.org/t/p/w500/abc.jpg", expected: KindImage},
		{name: "PNG with query", url: "https://example.org/p.png?x=1", expected: KindImage},
		{name: "Streaming page", url: "https://www.netflix.com/search?q=Arrival", expected: KindWeb},
		{name: "Catalog page", url: "https://www.themoviedb.org/movie/603", expected: KindWeb},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.Detect(tt.url); got != tt.expected {
				t.Errorf("Detect(%q) = %v, want %v", tt.url, got, tt.expected)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if KindVideo.String() != "video" || KindImage.String() != "image" || KindWeb.String() != "web" {
		t.Error("unexpected kind names")
	}
}

func TestCommandUsesPlatformOpener(t *testing.T) {
	tests := []struct {
		goos     string
		expected []string
	}{
		{goos: "darwin", expected: []string{"open", "https://www.netflix.com/title/1"}},
		{goos: "linux", expected: []string{"xdg-open", "https://www.netflix.com/title/1"}},
		{goos: "windows", expected: []string{"rundll32", "url.dll,FileProtocolHandler", "https://www.netflix.com/title/1"}},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			l := NewLauncher(config.MediaConfig{}, WithGOOS(tt.goos))
			cmd, err := l.Command("https://www.netflix.com/title/1")
			if err != nil {
				t.Fatalf("Command() error = %v", err)
			}
			assertArgs(t, cmd, tt.expected)
		})
	}
}

func TestCommandUnknownPlatform(t *testing.T) {
	l := NewLauncher(config.MediaConfig{}, WithGOOS("plan9"))
	if _, err := l.Command("https://example.org/"); !errors.Is(err, ErrNoOpener) {
		t.Errorf("expected ErrNoOpener, got %v", err)
	}
}

func TestCommandDefaultOpenerOverride(t *testing.T) {
	l := NewLauncher(config.MediaConfig{DefaultOpener: "firefox"}, WithGOOS("linux"))
	cmd, err := l.Command("https://example.org/")
	if err != nil {
		t.Fatalf("Command() error = %v", err)
	}
	assertArgs(t, cmd, []string{"firefox", "https://example.org/"})
}

func TestCommandPrefersInstalledPlayer(t *testing.T) {
	installed := map[string]bool{"vlc": true}
	lookPath := func(name string) (string, error) {
		if installed[name] {
			return "/usr/bin/" + name, nil
		}
		return "", exec.ErrNotFound
	}

	l := NewLauncher(config.MediaConfig{UsePlayers: true}, WithGOOS("linux"), WithLookPath(lookPath))

	cmd, err := l.Command("https://www.youtube.com/watch?v=abc")
	if err != nil {
		t.Fatalf("Command() error = %v", err)
	}
	assertArgs(t, cmd, []string{"vlc", "--play-and-exit", "https://www.youtube.com/watch?v=abc"})

	// Web pages always go to the system opener.
	cmd, err = l.Command("https://www.netflix.com/title/1")
	if err != nil {
		t.Fatalf("Command() error = %v", err)
	}
	assertArgs(t, cmd, []string{"xdg-open", "https://www.netflix.com/title/1"})
}

func TestCommandFallsBackWhenNoPlayerInstalled(t *testing.T) {
	lookPath := func(string) (string, error) { return "", exec.ErrNotFound }
	l := NewLauncher(config.MediaConfig{UsePlayers: true}, WithGOOS("darwin"), WithLookPath(lookPath))

	cmd, err := l.Command("https://youtu.be/abc")
	if err != nil {
		t.Fatalf("Command() error = %v", err)
	}
	assertArgs(t, cmd, []string{"open", "https://youtu.be/abc"})
}

func TestCommandRejectsUnsafeLinks(t *testing.T) {
	l := NewLauncher(config.MediaConfig{}, WithGOOS("linux"))

	for _, link := range []string{
		"",
		"javascript:alert(1)",
		"file:///etc/passwd",
		"http://127.0.0.1/admin",
		"https://example.org/\"; rm -rf ~",
	} {
		if _, err := l.Command(link); err == nil {
			t.Errorf("Command(%q) should fail", link)
		}
	}
}

func TestOpenStartsCommand(t *testing.T) {
	var started *exec.Cmd
	l := NewLauncher(config.MediaConfig{}, WithGOOS("linux"), WithStarter(func(cmd *exec.Cmd) error {
		started = cmd
		return nil
	}))

	if err := l.Open("https://www.youtube.com/watch?v=abc"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if started == nil {
		t.Fatal("expected command to be started")
	}
	assertArgs(t, started, []string{"xdg-open", "https://www.youtube.com/watch?v=abc"})
}

func TestOpenReportsStartFailure(t *testing.T) {
	l := NewLauncher(config.MediaConfig{}, WithGOOS("linux"), WithStarter(func(*exec.Cmd) error {
		return errors.New("boom")
	}))

	if err := l.Open("https://example.org/"); err == nil {
		t.Error("expected start failure to be returned")
	}
}

func TestLoadTableMergesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "openers.toml")
	data := `
[platforms.linux]
opener = "gio"
args = ["open"]

[players.celluloid]
platforms = ["linux"]
kinds = ["video"]
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	table, err := LoadTable(path, filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}

	if table.Platforms["linux"].Opener != "gio" {
		t.Errorf("linux opener = %q, want gio", table.Platforms["linux"].Opener)
	}
	if table.Platforms["darwin"].Opener != "open" {
		t.Error("built-in platforms should survive a partial override")
	}
	players := table.playersFor(KindVideo, "linux")
	if len(players) == 0 || players[len(players)-1] != "celluloid" {
		t.Errorf("playersFor(video, linux) = %v, want celluloid last", players)
	}
}

func TestLoadTableInvalidOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openers.toml")
	if err := os.WriteFile(path, []byte("players = ["), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTable(path); err == nil {
		t.Error("expected parse error")
	}
}

func assertArgs(t *testing.T, cmd *exec.Cmd, expected []string) {
	t.Helper()
	if len(cmd.Args) != len(expected) {
		t.Fatalf("args = %v, want %v", cmd.Args, expected)
	}
	for i := range expected {
		if cmd.Args[i] != expected[i] {
			t.Errorf("args[%d] = %q, want %q", i, cmd.Args[i], expected[i])
		}
	}
}
