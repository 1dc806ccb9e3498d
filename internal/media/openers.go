package media

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed openers.toml
var openersTOML []byte

// Kind classifies a link by what will be shown when it is opened.
type Kind int

const (
	KindWeb Kind = iota
	KindVideo
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindImage:
		return "image"
	default:
		return "web"
	}
}

// Platform describes the system opener for one GOOS.
type Platform struct {
	Opener string   `toml:"opener"`
	Args   []string `toml:"args,omitempty"`
}

// KindRule matches links by host or file extension.
type KindRule struct {
	Hosts      []string `toml:"hosts"`
	Extensions []string `toml:"extensions"`
}

// Player is a dedicated application that can play some kinds of link.
type Player struct {
	Description string   `toml:"description"`
	Platforms   []string `toml:"platforms"`
	Kinds       []string `toml:"kinds"`
	Args        []string `toml:"args,omitempty"`
}

// Table is the decoded openers.toml.
type Table struct {
	Preference []string            `toml:"preference"`
	Platforms  map[string]Platform `toml:"platforms"`
	Kinds      map[string]KindRule `toml:"kinds"`
	Players    map[string]Player   `toml:"players"`
}

// LoadTable decodes the embedded table and merges any user table found at
// the given paths. Entries in later files replace earlier ones by name.
func LoadTable(overrides ...string) (*Table, error) {
	var t Table
	if err := toml.Unmarshal(openersTOML, &t); err != nil {
		return nil, fmt.Errorf("parsing openers.toml: %w", err)
	}

	for _, p := range overrides {
		if strings.HasPrefix(p, "~/") {
			home, err := os.UserHomeDir()
			if err != nil {
				continue
			}
			p = filepath.Join(home, p[2:])
		}
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		var user Table
		if err := toml.Unmarshal(data, &user); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", p, err)
		}
		t.merge(&user)
	}

	return &t, nil
}

func (t *Table) merge(o *Table) {
	if len(o.Preference) > 0 {
		t.Preference = o.Preference
	}
	for name, p := range o.Platforms {
		t.Platforms[name] = p
	}
	for name, k := range o.Kinds {
		t.Kinds[name] = k
	}
	for name, p := range o.Players {
		if t.Players == nil {
			t.Players = make(map[string]Player)
		}
		t.Players[name] = p
		if !slices.Contains(t.Preference, name) {
			t.Preference = append(t.Preference, name)
		}
	}
}

// Detect classifies a link. Anything unrecognised is KindWeb.
func (t *Table) Detect(link string) Kind {
	u, err := url.Parse(link)
	if err != nil {
		return KindWeb
	}
	host := strings.ToLower(u.Hostname())
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(u.Path)), ".")

	for _, kind := range []Kind{KindVideo, KindImage} {
		rule, ok := t.Kinds[kind.String()]
		if !ok {
			continue
		}
		if slices.Contains(rule.Hosts, host) {
			return kind
		}
		if ext != "" && slices.Contains(rule.Extensions, ext) {
			return kind
		}
	}
	return KindWeb
}

// playersFor lists player names that support kind on goos, in preference order.
func (t *Table) playersFor(kind Kind, goos string) []string {
	var names []string
	for _, name := range t.Preference {
		p, ok := t.Players[name]
		if !ok {
			continue
		}
		if slices.Contains(p.Platforms, goos) && slices.Contains(p.Kinds, kind.String()) {
			names = append(names, name)
		}
	}
	return names
}
