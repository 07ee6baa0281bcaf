package ui

import (
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/lipgloss"
)

// defaultPalette cycles through the same colors the map legend uses.
var defaultPalette = []string{
	"#ff0000", // red
	"#0000ff", // blue
	"#008000", // green
	"#ffa500", // orange
	"#800080", // purple
	"#ffc0cb", // pink
	"#00ffff", // cyan
	"#00ff00", // lime
	"#a52a2a", // brown
	"#ff00ff", // magenta
}

const notStartedColor = "#808080"

// Palette maps editor names to display colors.
type Palette struct {
	colors map[string]lipgloss.Color
}

// NewPalette assigns each editor a color from the default cycle, in the
// given order. The order should be stable (sorted editor names) so colors
// don't shuffle between runs.
func NewPalette(editors []string) Palette {
	colors := make(map[string]lipgloss.Color, len(editors))
	for i, editor := range editors {
		colors[editor] = lipgloss.Color(defaultPalette[i%len(defaultPalette)])
	}
	return Palette{colors: colors}
}

// paletteFile is the optional on-disk palette override.
type paletteFile struct {
	Editors map[string]string `toml:"editors"`
}

// LoadPalette builds a palette for editors, overriding the default cycle
// with any colors found in the TOML palette file at path. A missing file
// is not an error; a malformed one is.
//
// File format:
//
//	[editors]
//	"Alice" = "#ff0000"
//	"Bob"   = "#0000ff"
func LoadPalette(path string, editors []string) (Palette, error) {
	p := NewPalette(editors)
	if path == "" {
		return p, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return p, nil
	}

	var pf paletteFile
	if _, err := toml.DecodeFile(path, &pf); err != nil {
		return Palette{}, fmt.Errorf("failed to parse palette file %s: %w", path, err)
	}

	for editor, color := range pf.Editors {
		p.colors[editor] = lipgloss.Color(color)
	}
	return p, nil
}

// Color returns the editor's color, or the Not Started gray for editors
// outside the palette (including the empty editor).
func (p Palette) Color(editor string) lipgloss.Color {
	if c, ok := p.colors[editor]; ok {
		return c
	}
	return lipgloss.Color(notStartedColor)
}

// Editors returns the palette's editor names in sorted order.
func (p Palette) Editors() []string {
	editors := make([]string, 0, len(p.colors))
	for editor := range p.colors {
		editors = append(editors, editor)
	}
	sort.Strings(editors)
	return editors
}
