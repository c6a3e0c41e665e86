/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontLibrary stores parsed OpenType fonts keyed by family/weight/italic.
type FontLibrary struct {
	mu    sync.Mutex
	fonts map[fontKey]*opentype.Font
	faces map[faceKey]font.Face
}

type fontKey struct {
	family string
	weight int
	italic bool
}

type faceKey struct {
	fontKey
	size float64
	dpi  float64
}

func NewFontLibrary() *FontLibrary {
	return &FontLibrary{fonts: make(map[fontKey]*opentype.Font), faces: make(map[faceKey]font.Face)}
}

// LoadTTF loads a font file into the library under the given family/weight/italic.
func (fl *FontLibrary) LoadTTF(family string, weight int, italic bool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	return fl.LoadBytes(family, weight, italic, data)
}

// LoadBytes parses an in-memory TTF/OTF.
func (fl *FontLibrary) LoadBytes(family string, weight int, italic bool, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", family, err)
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.fonts == nil {
		fl.fonts = make(map[fontKey]*opentype.Font)
	}
	fl.fonts[fontKey{family: family, weight: weight, italic: italic}] = f
	return nil
}

func (fl *FontLibrary) find(spec FontSpec) (fontKey, *opentype.Font) {
	if fl == nil || fl.fonts == nil {
		return fontKey{}, nil
	}
	k := fontKey{family: spec.Family, weight: spec.Weight, italic: spec.Italic}
	if f, ok := fl.fonts[k]; ok {
		return k, f
	}
	// Same family, closest weight.
	var best *opentype.Font
	var bestKey fontKey
	bestDiff := 1 << 30
	for fk, f := range fl.fonts {
		if fk.family != spec.Family {
			continue
		}
		d := fk.weight - spec.Weight
		if d < 0 {
			d = -d
		}
		if fk.italic != spec.Italic {
			d += 1000
		}
		if d < bestDiff {
			best, bestKey, bestDiff = f, fk, d
		}
	}
	return bestKey, best
}

// GoFamily is the family name of the bundled Go fonts.
const GoFamily = "Go"

var (
	defaultLib  *FontLibrary
	defaultOnce sync.Once
)

// DefaultLibrary holds the bundled Go Regular and Go Bold faces.
func DefaultLibrary() *FontLibrary {
	defaultOnce.Do(func() {
		defaultLib = NewFontLibrary()
		// The bundled fonts are known-good; errors here would be a build problem.
		_ = defaultLib.LoadBytes(GoFamily, 400, false, goregular.TTF)
		_ = defaultLib.LoadBytes(GoFamily, 700, false, gobold.TTF)
	})
	return defaultLib
}

// OTProvider resolves FontSpec using a FontLibrary and falls back to another Provider.
// Faces are cached per size.
type OTProvider struct {
	Lib      *FontLibrary
	DPI      float64 // default 72 if zero
	Fallback Provider
}

// DefaultProvider resolves the bundled Go fonts.
func DefaultProvider() OTProvider { return OTProvider{Lib: DefaultLibrary()} }

func (p OTProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	if spec.SizePt <= 0 {
		spec.SizePt = 12
	}
	if spec.Family == "" {
		spec.Family = GoFamily
	}
	if spec.Weight == 0 {
		spec.Weight = 400
	}
	dpi := p.DPI
	if dpi <= 0 {
		dpi = 72
	}
	if p.Lib != nil {
		p.Lib.mu.Lock()
		defer p.Lib.mu.Unlock()
		if k, f := p.Lib.find(spec); f != nil {
			fk := faceKey{fontKey: k, size: spec.SizePt, dpi: dpi}
			face, ok := p.Lib.faces[fk]
			if !ok {
				var err error
				face, err = opentype.NewFace(f, &opentype.FaceOptions{Size: spec.SizePt, DPI: dpi, Hinting: font.HintingFull})
				if err == nil {
					if p.Lib.faces == nil {
						p.Lib.faces = make(map[faceKey]font.Face)
					}
					p.Lib.faces[fk] = face
					ok = true
				}
			}
			if ok {
				return face, metricsOf(face)
			}
		}
	}
	fb := p.Fallback
	if fb == nil {
		fb = BasicProvider{}
	}
	return fb.Resolve(spec)
}

func metricsOf(face font.Face) Metrics {
	m := face.Metrics()
	return Metrics{
		Ascent:  float64(m.Ascent.Round()),
		Descent: float64(m.Descent.Round()),
		LineGap: float64(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
	}
}
