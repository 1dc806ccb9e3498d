package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/reel/internal/config"
)

const AppName = "reel"

// LogoLines is the block-letter wordmark.
var LogoLines = []string{
	"██████  ███████ ███████ ██     ",
	"██   ██ ██      ██      ██     ",
	"██████  █████   █████   ██     ",
	"██   ██ ██      ██      ██     ",
	"██   ██ ███████ ███████ ███████",
}

const CompactLogo = `reel ›`

// BannerColors runs from the hero purple of the original artwork to mint.
var BannerColors = []lipgloss.Color{
	lipgloss.Color("#AB8BFF"),
	lipgloss.Color("#C4A8FF"),
	lipgloss.Color("#D6C7FF"),
	lipgloss.Color("#95E1D3"),
	lipgloss.Color("#AB8BFF"),
}

const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

var (
	PrimaryColor   lipgloss.Color
	SecondaryColor lipgloss.Color
	AccentColor    lipgloss.Color
	TextColor      lipgloss.Color
	MutedColor     lipgloss.Color
	ErrorColor     lipgloss.Color
	SuccessColor   lipgloss.Color
	SurfaceColor   lipgloss.Color
	StarColor      = lipgloss.Color("#FACC15")
)

var (
	LogoStyle          lipgloss.Style
	TitleStyle         lipgloss.Style
	HeaderStyle        lipgloss.Style
	HelpStyle          lipgloss.Style
	MutedStyle         lipgloss.Style
	RatingStyle        lipgloss.Style
	FavoriteStyle      lipgloss.Style
	RankStyle          lipgloss.Style
	SeparatorStyle     lipgloss.Style
	StatusInfoStyle    lipgloss.Style
	StatusSuccessStyle lipgloss.Style
	StatusWarnStyle    lipgloss.Style
	StatusErrorStyle   lipgloss.Style
)

func init() {
	ApplyTheme(config.UIColors{
		Primary:   "#AB8BFF",
		Secondary: "#D6C7FF",
		Accent:    "#95E1D3",
		Text:      "#EAEAEA",
		Muted:     "#94A3B8",
		Error:     "#F87171",
		Success:   "#4ADE80",
	}, ThemeDark)
}

// ApplyTheme sets the palette from the configured colors. The light theme
// keeps the brand colors and swaps text and surface for a pale background.
func ApplyTheme(colors config.UIColors, theme string) {
	PrimaryColor = lipgloss.Color(colors.Primary)
	SecondaryColor = lipgloss.Color(colors.Secondary)
	AccentColor = lipgloss.Color(colors.Accent)
	TextColor = lipgloss.Color(colors.Text)
	MutedColor = lipgloss.Color(colors.Muted)
	ErrorColor = lipgloss.Color(colors.Error)
	SuccessColor = lipgloss.Color(colors.Success)
	SurfaceColor = lipgloss.Color("#030014")

	if theme == ThemeLight {
		SecondaryColor = lipgloss.Color("#6D28D9")
		TextColor = lipgloss.Color("#1E1B2E")
		MutedColor = lipgloss.Color("#64748B")
		SurfaceColor = lipgloss.Color("#F4F1FF")
	}

	LogoStyle = lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Bold(true)

	TitleStyle = lipgloss.NewStyle().
		Foreground(TextColor).
		Background(SurfaceColor).
		Bold(true).
		Padding(0, 2)

	HeaderStyle = lipgloss.NewStyle().
		Foreground(SecondaryColor).
		Bold(true)

	HelpStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Italic(true)

	MutedStyle = lipgloss.NewStyle().Foreground(MutedColor)

	RatingStyle = lipgloss.NewStyle().Foreground(StarColor)

	FavoriteStyle = lipgloss.NewStyle().
		Foreground(ErrorColor).
		Bold(true)

	RankStyle = lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Bold(true)

	SeparatorStyle = lipgloss.NewStyle().Foreground(MutedColor)

	StatusInfoStyle = lipgloss.NewStyle().Foreground(MutedColor)
	StatusSuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	StatusWarnStyle = lipgloss.NewStyle().Foreground(StarColor)
	StatusErrorStyle = lipgloss.NewStyle().
		Foreground(ErrorColor).
		Bold(true)
}

// NextTheme flips between dark and light.
func NextTheme(theme string) string {
	if theme == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

func GetWelcomeMessage() string {
	return GetCompactBanner("Find movies you'll enjoy without the hassle")
}

func GetCompactBanner(message string) string {
	var coloredLines []string
	for _, line := range LogoLines {
		coloredLines = append(coloredLines, LogoStyle.Render(line))
	}

	logo := lipgloss.JoinVertical(lipgloss.Center, coloredLines...)

	return lipgloss.JoinVertical(
		lipgloss.Center,
		logo,
		"",
		HelpStyle.Render(message),
	)
}

func ShowBanner(version string) {
	lines := make([]string, len(LogoLines)+1)
	copy(lines, LogoLines)
	lines[len(LogoLines)] = ""

	versionTag := version
	if versionTag != "" && versionTag != "dev" {
		if versionTag[0] != 'v' && versionTag[0] != 'V' {
			versionTag = "v" + versionTag
		}
		lines = append(lines, fmt.Sprintf("    Movie Discovery %s", versionTag))
	} else {
		lines = append(lines, "    Movie Discovery")
	}

	var coloredLines []string
	for i, line := range lines {
		if line == "" {
			coloredLines = append(coloredLines, line)
			continue
		}
		style := lipgloss.NewStyle().
			Foreground(BannerColors[i%len(BannerColors)]).
			Bold(i < len(LogoLines))
		coloredLines = append(coloredLines, style.Render(line))
	}

	frame := lipgloss.Border{
		Top:         "▀",
		Bottom:      "▄",
		Left:        "▌",
		Right:       "▐",
		TopLeft:     "▛",
		TopRight:    "▜",
		BottomLeft:  "▙",
		BottomRight: "▟",
	}

	output := lipgloss.NewStyle().
		Border(frame).
		BorderForeground(AccentColor).
		Padding(1, 3).
		MarginTop(1).
		Render(lipgloss.JoinVertical(lipgloss.Center, coloredLines...))

	fmt.Println(lipgloss.NewStyle().
		Width(70).
		Align(lipgloss.Center).
		Render(output))

	fmt.Println(lipgloss.NewStyle().
		Width(70).
		Align(lipgloss.Center).
		MarginBottom(1).
		Foreground(AccentColor).
		Render("▪ ▫ ▪ ▫ ▪"))
}
