/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// Text measurement and line breaking for node labels. All sizes are pixels
// at the face's DPI.

import (
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// FontSpec describes a requested font.
type FontSpec struct {
	Family string // logical family name
	SizePt float64
	Weight int // 100..900
	Italic bool
}

// Metrics provides font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent, LineGap float64
}

// LineHeight is the distance between baselines.
func (m Metrics) LineHeight() float64 { return m.Ascent + m.Descent + m.LineGap }

// Line is a single laid out line.
type Line struct {
	Text  string
	Width float64
}

// TextBox is the result of laying out text into a box width.
type TextBox struct {
	Lines   []Line
	Width   float64
	Height  float64
	Metrics Metrics
	Face    font.Face
}

// Provider maps FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// BasicProvider uses x/image/basicfont Face7x13 for deterministic tests.
type BasicProvider struct{}

func (BasicProvider) Resolve(FontSpec) (font.Face, Metrics) {
	return basicfont.Face7x13, metricsOf(basicfont.Face7x13)
}

// WordWrapLayouter breaks on spaces and explicit newlines. Words wider than
// the box are split between characters. There is no shaping or hyphenation.
type WordWrapLayouter struct{ Provider Provider }

func NewWordWrap(provider Provider) *WordWrapLayouter { return &WordWrapLayouter{Provider: provider} }

// Layout wraps text into lines no wider than maxWidth (no limit if <= 0).
func (l *WordWrapLayouter) Layout(text string, spec FontSpec, maxWidth float64) TextBox {
	if l.Provider == nil {
		l.Provider = BasicProvider{}
	}
	face, met := l.Provider.Resolve(spec)
	d := &font.Drawer{Face: face}
	box := TextBox{Metrics: met, Face: face}
	add := func(s string) {
		s = strings.TrimRight(s, " ")
		w := advance(d, s)
		box.Lines = append(box.Lines, Line{Text: s, Width: w})
		box.Width = max(box.Width, w)
		box.Height += met.LineHeight()
	}
	for _, para := range strings.Split(text, "\n") {
		cur := ""
		for _, word := range strings.Fields(para) {
			cand := word
			if cur != "" {
				cand = cur + " " + word
			}
			if maxWidth <= 0 || advance(d, cand) <= maxWidth {
				cur = cand
				continue
			}
			if cur != "" {
				add(cur)
			}
			cur = ""
			for _, piece := range splitWord(d, word, maxWidth) {
				if cur != "" {
					add(cur)
				}
				cur = piece
			}
		}
		add(cur)
	}
	return box
}

// splitWord cuts word into pieces that each fit maxWidth, keeping at least
// one rune per piece.
func splitWord(d *font.Drawer, word string, maxWidth float64) []string {
	var out []string
	cur := ""
	for _, r := range word {
		cand := cur + string(r)
		if cur != "" && advance(d, cand) > maxWidth {
			out = append(out, cur)
			cand = string(r)
		}
		cur = cand
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

// Fit drops lines that do not fit maxHeight and marks the cut with an
// ellipsis on the last kept line.
func (b TextBox) Fit(maxHeight float64) TextBox {
	lh := b.Metrics.LineHeight()
	if lh <= 0 || b.Height <= maxHeight || len(b.Lines) == 0 {
		return b
	}
	n := int(maxHeight / lh)
	if n < 1 {
		n = 1
	}
	if n >= len(b.Lines) {
		return b
	}
	out := b
	out.Lines = append([]Line(nil), b.Lines[:n]...)
	last := &out.Lines[n-1]
	last.Text += "…"
	if b.Face != nil {
		last.Width = advance(&font.Drawer{Face: b.Face}, last.Text)
	}
	out.Height = float64(n) * lh
	out.Width = 0
	for _, ln := range out.Lines {
		out.Width = max(out.Width, ln.Width)
	}
	return out
}

func advance(d *font.Drawer, s string) float64 {
	return float64(d.MeasureString(s)) / 64 // fixed.Int26_6 to px
}

// Measure returns the width and line height of text on one line.
func Measure(provider Provider, spec FontSpec, text string) (w, h float64) {
	if provider == nil {
		provider = BasicProvider{}
	}
	face, met := provider.Resolve(spec)
	return advance(&font.Drawer{Face: face}, text), met.Ascent + met.Descent
}
