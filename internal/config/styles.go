package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed skins/dracula.yaml skins/industrial.yaml
var defaultSkin embed.FS

// Color represents a hex color string.
type Color string

// PanelStyle defines colors for the key binding resolver panel.
type PanelStyle struct {
	HeadingFgColor   Color `yaml:"headingFgColor"`
	KeystrokeFgColor Color `yaml:"keystrokeFgColor"`
	UsedFgColor      Color `yaml:"usedFgColor"`      // Winning binding
	UnusedFgColor    Color `yaml:"unusedFgColor"`    // Shadowed on the same target
	UnmatchedFgColor Color `yaml:"unmatchedFgColor"` // Matches elsewhere
	PartialFgColor   Color `yaml:"partialFgColor"`   // Pending multi-stroke candidates
	SourceFgColor    Color `yaml:"sourceFgColor"`
}

// ListStyle defines colors for the workspace target list.
type ListStyle struct {
	FgColor       Color `yaml:"fgColor"`
	BgColor       Color `yaml:"bgColor"`
	CursorFgColor Color `yaml:"cursorFgColor"`
	CursorBgColor Color `yaml:"cursorBgColor"`
	PathFgColor   Color `yaml:"pathFgColor"` // Element path under each target
}

// HeaderStyle defines colors for the header section.
type HeaderStyle struct {
	FgColor Color `yaml:"fgColor"`
	BgColor Color `yaml:"bgColor"`
	TitleFg Color `yaml:"titleFg"`
	LiveFg  Color `yaml:"liveFg"`  // Watcher active indicator
	WarnFg  Color `yaml:"warnFg"`  // Warnings/attention (amber)
	StatsFg Color `yaml:"statsFg"` // Stats text (muted)
}

// FooterStyle defines colors for the footer section.
type FooterStyle struct {
	FgColor      Color `yaml:"fgColor"`
	BgColor      Color `yaml:"bgColor"`
	KeyFgColor   Color `yaml:"keyFgColor"`
	DescFgColor  Color `yaml:"descFgColor"`
	GroupFgColor Color `yaml:"groupFgColor"`
}

// StatusStyle defines colors for status lines.
type StatusStyle struct {
	FgColor    Color `yaml:"fgColor"`
	BgColor    Color `yaml:"bgColor"`
	ErrorColor Color `yaml:"errorColor"`
}

// ModalStyle defines colors for modal dialogs.
type ModalStyle struct {
	DimmedFgColor Color `yaml:"dimmedFgColor"`
	BorderFgColor Color `yaml:"borderFgColor"`
	AccentFgColor Color `yaml:"accentFgColor"`
}

// BorderStyle defines colors for borders.
type BorderStyle struct {
	FgColor       Color `yaml:"fgColor"`
	ActiveFgColor Color `yaml:"activeFgColor"`
}

// Styles holds all the theme colors.
type Styles struct {
	Panel  PanelStyle  `yaml:"panel"`
	List   ListStyle   `yaml:"list"`
	Header HeaderStyle `yaml:"header"`
	Footer FooterStyle `yaml:"footer"`
	Status StatusStyle `yaml:"status"`
	Modal  ModalStyle  `yaml:"modal"`
	Border BorderStyle `yaml:"border"`
}

// Theme is the top-level theme configuration.
type Theme struct {
	Name   string `yaml:"name"`
	Styles Styles `yaml:"styles"`
}

// DefaultTheme returns the built-in Industrial theme.
func DefaultTheme() *Theme {
	return &Theme{
		Name: "industrial",
		Styles: Styles{
			Panel: PanelStyle{
				HeadingFgColor:   "#58a6ff",
				KeystrokeFgColor: "#e6edf3",
				UsedFgColor:      "#3fb950",
				UnusedFgColor:    "#d29922",
				UnmatchedFgColor: "#7d8590",
				PartialFgColor:   "#a371f7",
				SourceFgColor:    "#7d8590",
			},
			List: ListStyle{
				FgColor:       "#e6edf3",
				BgColor:       "#0d1117",
				CursorFgColor: "#ffffff",
				CursorBgColor: "#58a6ff",
				PathFgColor:   "#7d8590",
			},
			Header: HeaderStyle{
				FgColor: "#e6edf3",
				BgColor: "#0d1117",
				TitleFg: "#58a6ff",
				LiveFg:  "#3fb950",
				WarnFg:  "#d29922",
				StatsFg: "#7d8590",
			},
			Footer: FooterStyle{
				FgColor:      "#e6edf3",
				BgColor:      "#0d1117",
				KeyFgColor:   "#58a6ff",
				DescFgColor:  "#7d8590",
				GroupFgColor: "#e6edf3",
			},
			Status: StatusStyle{
				FgColor:    "#7d8590",
				BgColor:    "#0d1117",
				ErrorColor: "#f85149",
			},
			Modal: ModalStyle{
				DimmedFgColor: "#7d8590",
				BorderFgColor: "#30363d",
				AccentFgColor: "#58a6ff",
			},
			Border: BorderStyle{
				FgColor:       "#30363d",
				ActiveFgColor: "#58a6ff",
			},
		},
	}
}

// SkinNames lists the embedded skins.
func SkinNames() []string {
	return []string{"industrial", "dracula"}
}

// LoadTheme loads a theme from the user's config directory or returns the default.
func LoadTheme() (*Theme, error) {
	// Try user config first
	if dir, err := Dir(); err == nil {
		userSkinPath := filepath.Join(dir, "skin.yaml")
		// #nosec G304 - userSkinPath is constructed from trusted sources (UserConfigDir + hardcoded path)
		if data, err := os.ReadFile(userSkinPath); err == nil {
			var theme Theme
			if err := yaml.Unmarshal(data, &theme); err == nil {
				return &theme, nil
			}
		}
	}

	theme, err := LoadNamedTheme("industrial")
	if err != nil {
		return DefaultTheme(), nil
	}
	return theme, nil
}

// LoadNamedTheme loads one of the embedded skins by name.
func LoadNamedTheme(name string) (*Theme, error) {
	data, err := defaultSkin.ReadFile("skins/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown skin %q (available: %v)", name, SkinNames())
	}

	var theme Theme
	if err := yaml.Unmarshal(data, &theme); err != nil {
		return nil, fmt.Errorf("skin %q: %w", name, err)
	}
	return &theme, nil
}

// CurrentTheme holds the loaded theme (singleton).
var CurrentTheme *Theme

// InitTheme initializes the global theme. An empty name loads the user skin or the default.
func InitTheme(name string) error {
	var (
		theme *Theme
		err   error
	)
	if name == "" {
		theme, err = LoadTheme()
	} else {
		theme, err = LoadNamedTheme(name)
	}
	if err != nil {
		return err
	}
	CurrentTheme = theme
	return nil
}

func init() {
	// Initialize with default theme on package load
	CurrentTheme = DefaultTheme()
}
