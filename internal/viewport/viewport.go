/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package viewport maps between screen and world coordinates of the canvas.
// The canvas transform is translate(offset) followed by scale(zoom).
package viewport

import (
	"math"

	"nebula/internal/vector"
)

const (
	MinZoom = 0.2
	MaxZoom = 5.0

	// OriginX and OriginY is the world point centered by Center.
	OriginX = 5000.0
	OriginY = 5000.0
)

// Viewport holds the pan offset and zoom factor.
type Viewport struct {
	Zoom    float64
	OffsetX float64
	OffsetY float64
}

// New returns a viewport at zoom 1 with no offset.
func New() *Viewport { return &Viewport{Zoom: 1} }

// ClampZoom limits z to [MinZoom, MaxZoom].
func ClampZoom(z float64) float64 { return math.Max(MinZoom, math.Min(MaxZoom, z)) }

// Pan adds a screen-space delta to the offsets. The delta is not scaled by
// the zoom.
func (v *Viewport) Pan(dx, dy float64) {
	v.OffsetX += dx
	v.OffsetY += dy
}

// ZoomAt sets the zoom to newZoom (clamped). With an anchor the world point
// under it stays under it: offset' = anchor - (anchor - offset) * (new/old).
func (v *Viewport) ZoomAt(newZoom float64, anchor *vector.Pt) {
	old := v.Zoom
	z := ClampZoom(newZoom)
	if anchor != nil && old != 0 {
		k := z / old
		v.OffsetX = anchor.X - (anchor.X-v.OffsetX)*k
		v.OffsetY = anchor.Y - (anchor.Y-v.OffsetY)*k
	}
	v.Zoom = z
}

// Center resets zoom to 1 and puts the world origin (5000, 5000) in the
// middle of a w×h screen.
func (v *Viewport) Center(w, h float64) {
	v.Zoom = 1
	v.OffsetX = w/2 - OriginX
	v.OffsetY = h/2 - OriginY
}

// ScreenToWorld converts a screen point into world space.
func (v *Viewport) ScreenToWorld(p vector.Pt) vector.Pt {
	return vector.Pt{X: (p.X - v.OffsetX) / v.Zoom, Y: (p.Y - v.OffsetY) / v.Zoom}
}

// WorldToScreen converts a world point into screen space.
func (v *Viewport) WorldToScreen(p vector.Pt) vector.Pt {
	return vector.Pt{X: p.X*v.Zoom + v.OffsetX, Y: p.Y*v.Zoom + v.OffsetY}
}

// Transform returns the world-to-screen transform.
func (v *Viewport) Transform() vector.Affine2D {
	return vector.Translate(v.OffsetX, v.OffsetY).Mul(vector.Scale(v.Zoom, v.Zoom))
}

// Percent is the zoom label shown to users, e.g. 100 for zoom 1.
func (v *Viewport) Percent() int { return int(math.Round(v.Zoom * 100)) }
