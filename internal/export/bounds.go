/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders a mind map to PNG, PDF and SVG. Export works on a
// snapshot of the nodes and never mutates the store.
package export

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"nebula/internal/mindmap"
	"nebula/internal/render"
	"nebula/internal/textlayout"
	"nebula/internal/vector"
)

var (
	// ErrEmpty is returned when there is nothing to export.
	ErrEmpty = errors.New("export: no nodes")
	// ErrBusy is returned when an export is already running.
	ErrBusy = errors.New("export: another export is in progress")
	// ErrTooLarge is returned when the map spans more than an output can hold.
	ErrTooLarge = errors.New("export: map too large")
)

// Footprint selects the node extent used for the export bounds.
type Footprint int

const (
	// FootprintLive uses each node's stored width and height.
	FootprintLive Footprint = iota
	// FootprintFixed assumes every node is 150×50.
	FootprintFixed
)

const (
	DefaultPadding = 100.0
	DefaultScale   = 2.0
	FixedWidth     = 150.0
	FixedHeight    = 50.0
	DefaultFontPt  = 14.0
	cornerRadius   = 12.0
	labelPadding   = 10.0

	// MaxRasterSide and MaxRasterPixels bound the PNG and PDF image.
	MaxRasterSide   = 1 << 15
	MaxRasterPixels = 64 << 20
	// maxVectorSide bounds the SVG canvas in world units.
	maxVectorSide = 1 << 24
)

// ParseFootprint maps "fixed" to FootprintFixed and anything else to live.
func ParseFootprint(s string) Footprint {
	if strings.EqualFold(strings.TrimSpace(s), "fixed") {
		return FootprintFixed
	}
	return FootprintLive
}

// Anchors returns the connector anchoring that matches the footprint.
func (f Footprint) Anchors() render.Anchors {
	if f == FootprintFixed {
		return render.AnchorFixed
	}
	return render.AnchorLive
}

// Options control all exporters. Zero values take the defaults.
type Options struct {
	Theme     render.Theme
	Footprint Footprint
	Padding   float64
	Scale     float64
	FontPt    float64
	Provider  textlayout.Provider
}

func (o Options) withDefaults() Options {
	if o.Theme == "" {
		o.Theme = render.Dark
	}
	if o.Padding <= 0 {
		o.Padding = DefaultPadding
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.FontPt <= 0 {
		o.FontPt = DefaultFontPt
	}
	if o.Provider == nil {
		o.Provider = textlayout.DefaultProvider()
	}
	return o
}

// Bounds is the world rectangle covering all node extents plus padding on
// every side.
func Bounds(nodes []mindmap.Node, fp Footprint, padding float64) (vector.Rect, error) {
	if len(nodes) == 0 {
		return vector.Rect{}, ErrEmpty
	}
	var r vector.Rect
	for i, n := range nodes {
		w, h := n.Width, n.Height
		if fp == FootprintFixed {
			w, h = FixedWidth, FixedHeight
		}
		nr := vector.R(n.X, n.Y, w, h)
		if i == 0 {
			r = nr
			continue
		}
		r = r.Union(nr)
	}
	return r.Inset(-padding, -padding), nil
}

// pixelSize is the raster size of bounds at scale, refused with
// ErrTooLarge beyond MaxRasterSide or MaxRasterPixels.
func pixelSize(b vector.Rect, scale float64) (int, int, error) {
	return checkedSize(b, scale, MaxRasterSide, MaxRasterPixels)
}

func checkedSize(b vector.Rect, scale, maxSide, maxArea float64) (int, int, error) {
	w, h := math.Ceil(b.W*scale), math.Ceil(b.H*scale)
	if !(w >= 1 && h >= 1) || w > maxSide || h > maxSide || w*h > maxArea {
		return 0, 0, fmt.Errorf("%w: %.0f×%.0f exceeds %.0f per side or %.0f in total", ErrTooLarge, w, h, maxSide, maxArea)
	}
	return int(w), int(h), nil
}

// connectors pairs each node with its live parent.
func connectors(nodes []mindmap.Node, a render.Anchors) []vector.Path {
	byID := make(map[string]mindmap.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	var out []vector.Path
	for _, n := range nodes {
		if p, ok := byID[n.ParentID]; ok && n.ParentID != "" {
			out = append(out, render.ConnectorPath(p, n, a))
		}
	}
	return out
}

// extent is the box drawn for n.
func extent(n mindmap.Node, fp Footprint) vector.Rect {
	if fp == FootprintFixed {
		return vector.R(n.X, n.Y, FixedWidth, FixedHeight)
	}
	return vector.R(n.X, n.Y, n.Width, n.Height)
}
