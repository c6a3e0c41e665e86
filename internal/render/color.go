/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Theme selects the palette used to resolve color tokens.
type Theme string

const (
	Dark  Theme = "dark"
	Light Theme = "light"
)

// ParseTheme maps a config value to a Theme, defaulting to Dark.
func ParseTheme(s string) Theme {
	if strings.EqualFold(strings.TrimSpace(s), string(Light)) {
		return Light
	}
	return Dark
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == Light {
		return Dark
	}
	return Light
}

// Theme tokens stored in node colors.
const (
	TokenAccent     = "var(--accent-primary)"
	TokenNodeBg     = "var(--node-bg)"
	TokenCanvasBg   = "var(--bg-color)"
	TokenText       = "var(--text-primary)"
	TokenConnection = "var(--line-color)"
	TokenSelection  = "var(--selection)"
)

var palettes = map[Theme]map[string]color.RGBA{
	Dark: {
		TokenAccent:     {R: 0x7c, G: 0x3a, B: 0xed, A: 0xff},
		TokenNodeBg:     {R: 0x1e, G: 0x1e, B: 0x2e, A: 0xff},
		TokenCanvasBg:   {R: 0x0f, G: 0x0f, B: 0x1a, A: 0xff},
		TokenText:       {R: 0xe2, G: 0xe8, B: 0xf0, A: 0xff},
		TokenConnection: {R: 0x6d, G: 0x5d, B: 0xfc, A: 0xb3},
		TokenSelection:  {R: 0xa7, G: 0x8b, B: 0xfa, A: 0xff},
	},
	Light: {
		TokenAccent:     {R: 0x63, G: 0x66, B: 0xf1, A: 0xff},
		TokenNodeBg:     {R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		TokenCanvasBg:   {R: 0xf5, G: 0xf5, B: 0xfa, A: 0xff},
		TokenText:       {R: 0x1e, G: 0x29, B: 0x3b, A: 0xff},
		TokenConnection: {R: 0x63, G: 0x66, B: 0xf1, A: 0x99},
		TokenSelection:  {R: 0x43, G: 0x38, B: 0xca, A: 0xff},
	},
}

// Swatches are the recolor choices offered by the context menu.
var Swatches = []string{
	TokenNodeBg,
	TokenAccent,
	"#ef4444",
	"#f59e0b",
	"#10b981",
	"#3b82f6",
	"#ec4899",
}

var named = map[string]color.RGBA{
	"black":       {A: 0xff},
	"white":       {R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	"red":         {R: 0xff, A: 0xff},
	"green":       {G: 0x80, A: 0xff},
	"blue":        {B: 0xff, A: 0xff},
	"transparent": {},
}

// ResolveColor turns a stored node color (theme token or CSS color) into
// RGBA for theme. Unknown or empty values fall back to the node background.
func ResolveColor(token string, theme Theme) color.RGBA {
	if c, ok := palette(theme)[strings.TrimSpace(token)]; ok {
		return c
	}
	if c, err := ParseColor(token); err == nil {
		return c
	}
	return palette(theme)[TokenNodeBg]
}

func palette(theme Theme) map[string]color.RGBA {
	if p, ok := palettes[theme]; ok {
		return p
	}
	return palettes[Dark]
}

// ParseColor parses #rgb, #rrggbb, #rrggbbaa, rgb(), rgba() and a few
// named colors.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := named[s]; ok {
		return c, nil
	}
	switch {
	case strings.HasPrefix(s, "#"):
		return parseHex(s[1:])
	case strings.HasPrefix(s, "rgb(") || strings.HasPrefix(s, "rgba("):
		return parseFunc(s)
	}
	return color.RGBA{}, fmt.Errorf("render: unsupported color %q", s)
}

func parseHex(h string) (color.RGBA, error) {
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.RGBA{}, fmt.Errorf("render: bad hex color %q", h)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("render: bad hex color %q: %w", h, err)
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

func parseFunc(s string) (color.RGBA, error) {
	open, end := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return color.RGBA{}, fmt.Errorf("render: bad color %q", s)
	}
	parts := strings.Split(s[open+1:end], ",")
	if len(parts) != 3 && len(parts) != 4 {
		return color.RGBA{}, fmt.Errorf("render: bad color %q", s)
	}
	var ch [4]uint8
	ch[3] = 0xff
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("render: bad color %q: %w", s, err)
		}
		if i == 3 {
			f *= 255
		}
		ch[i] = uint8(min(255, max(0, f)))
	}
	return color.RGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, nil
}

// TextColorOn picks a readable text color for the given background.
func TextColorOn(bg color.RGBA) color.RGBA {
	lum := 0.2126*float64(bg.R) + 0.7152*float64(bg.G) + 0.0722*float64(bg.B)
	if lum > 150 {
		return color.RGBA{R: 0x1e, G: 0x29, B: 0x3b, A: 0xff}
	}
	return color.RGBA{R: 0xf8, G: 0xfa, B: 0xfc, A: 0xff}
}

// Background returns the canvas color for theme.
func Background(theme Theme) color.RGBA { return palette(theme)[TokenCanvasBg] }

// LineColor returns the connector stroke color for theme.
func LineColor(theme Theme) color.RGBA { return palette(theme)[TokenConnection] }

// SelectionColor returns the selection outline color for theme.
func SelectionColor(theme Theme) color.RGBA { return palette(theme)[TokenSelection] }
