/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"strings"
	"testing"
)

func TestWordWrap_Naive(t *testing.T) {
	l := NewWordWrap(BasicProvider{})
	box := l.Layout("Hello world from Go", FontSpec{}, 50)
	if len(box.Lines) < 2 {
		t.Fatalf("expected wrapping into multiple lines, got %d", len(box.Lines))
	}
	if box.Width <= 0 || box.Height <= 0 {
		t.Fatalf("expected positive box size: %+v", box)
	}
	for _, ln := range box.Lines {
		if ln.Width > 50 {
			t.Fatalf("line %q exceeds width: %v", ln.Text, ln.Width)
		}
	}
}

func TestWordWrap_Exact(t *testing.T) {
	// Face7x13 advances 7px per glyph.
	l := NewWordWrap(BasicProvider{})
	box := l.Layout("New Idea\nsecond", FontSpec{}, 0)
	if len(box.Lines) != 2 || box.Lines[0].Text != "New Idea" || box.Lines[1].Text != "second" {
		t.Fatalf("unexpected lines: %+v", box.Lines)
	}
	if box.Lines[0].Width != 56 || box.Width != 56 {
		t.Fatalf("unexpected width: %+v", box)
	}
	if box.Height != 26 {
		t.Fatalf("expected two 13px lines, got %v", box.Height)
	}
}

func TestWordWrap_SplitsLongWords(t *testing.T) {
	l := NewWordWrap(BasicProvider{})
	box := l.Layout("abcdefghij", FontSpec{}, 30)
	var joined strings.Builder
	for _, ln := range box.Lines {
		if ln.Width > 30 {
			t.Fatalf("piece %q too wide", ln.Text)
		}
		joined.WriteString(ln.Text)
	}
	if joined.String() != "abcdefghij" || len(box.Lines) != 3 {
		t.Fatalf("unexpected pieces: %+v", box.Lines)
	}
}

func TestWordWrap_EmptyTextHasOneLine(t *testing.T) {
	box := NewWordWrap(nil).Layout("", FontSpec{}, 100)
	if len(box.Lines) != 1 || box.Lines[0].Text != "" {
		t.Fatalf("expected one empty line, got %+v", box.Lines)
	}
}

func TestFitAddsEllipsis(t *testing.T) {
	l := NewWordWrap(BasicProvider{})
	box := l.Layout("one two three four", FontSpec{}, 35).Fit(30)
	if len(box.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %+v", box.Lines)
	}
	if !strings.HasSuffix(box.Lines[1].Text, "…") || box.Height != 26 {
		t.Fatalf("unexpected fit: %+v", box)
	}
	same := l.Layout("one", FontSpec{}, 35)
	if got := same.Fit(100); len(got.Lines) != 1 || got.Lines[0].Text != "one" {
		t.Fatalf("fit should not change a box that fits: %+v", got)
	}
}

func TestMeasure_Deterministic(t *testing.T) {
	w1, h1 := Measure(BasicProvider{}, FontSpec{}, "ABC")
	w2, _ := Measure(BasicProvider{}, FontSpec{}, "A")
	w3, _ := Measure(BasicProvider{}, FontSpec{}, "BC")
	if w1 != w2+w3 || h1 != 13 {
		t.Fatalf("unexpected measure: w1=%v w2=%v w3=%v h1=%v", w1, w2, w3, h1)
	}
}

func TestDefaultProviderUsesGoFonts(t *testing.T) {
	p := DefaultProvider()
	face, met := p.Resolve(FontSpec{SizePt: 14})
	if face == nil || met.Ascent <= 0 {
		t.Fatalf("expected a real face, got %+v", met)
	}
	face2, _ := p.Resolve(FontSpec{SizePt: 14})
	if face != face2 {
		t.Fatalf("faces should be cached per size")
	}
	bold, _ := p.Resolve(FontSpec{SizePt: 14, Weight: 650})
	if bold == face {
		t.Fatalf("expected closest weight (bold) face")
	}
	small, _ := Measure(p, FontSpec{SizePt: 10}, "Central Topic")
	large, _ := Measure(p, FontSpec{SizePt: 20}, "Central Topic")
	if large <= small {
		t.Fatalf("larger size should measure wider: %v <= %v", large, small)
	}
	fb, _ := OTProvider{}.Resolve(FontSpec{})
	if fb == nil {
		t.Fatalf("fallback face expected")
	}
}

func TestFontLibraryRejectsGarbage(t *testing.T) {
	fl := NewFontLibrary()
	if err := fl.LoadBytes("x", 400, false, []byte("not a font")); err == nil {
		t.Fatalf("expected parse error")
	}
	if err := fl.LoadTTF("x", 400, false, "/does/not/exist.ttf"); err == nil {
		t.Fatalf("expected read error")
	}
}
