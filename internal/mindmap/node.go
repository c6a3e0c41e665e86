/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package mindmap holds the in-memory node store of a mind map: an ordered
// forest of text/image boxes rooted at exactly one root node.
package mindmap

import (
	"math"
	"math/rand"
)

// Defaults for freshly created nodes.
const (
	RootText  = "Central Topic"
	ChildText = "New Idea"

	RootX = 5000.0
	RootY = 5000.0

	RootWidth   = 150.0
	RootHeight  = 60.0
	ChildWidth  = 120.0
	ChildHeight = 45.0

	MinWidth  = 80.0
	MinHeight = 40.0

	RootColor  = "var(--accent-primary)"
	ChildColor = "var(--node-bg)"

	// ChildDistance is the radial distance between a parent and a new child.
	ChildDistance = 180.0
)

// Node is one box of the mind map. X and Y are the world-space top-left
// corner. ParentID is empty for the root.
type Node struct {
	ID       string
	Text     string
	X, Y     float64
	Width    float64
	Height   float64
	ParentID string
	IsRoot   bool
	Color    string
	Image    string // data URI, optional

	// IsNew marks a node that has not been rendered yet. Never persisted.
	IsNew bool
}

// Center returns the world-space center of the node box.
func (n Node) Center() (float64, float64) {
	return n.X + n.Width/2, n.Y + n.Height/2
}

// Patch is a partial update for UpdateNode. Nil fields are left unchanged.
type Patch struct {
	Text   *string
	Color  *string
	Image  *string
	X, Y   *float64
	Width  *float64
	Height *float64
}

// Ptr is a small helper for building patches.
func Ptr[T any](v T) *T { return &v }

// ClampSize applies the minimum node dimensions.
func ClampSize(w, h float64) (float64, float64) {
	return math.Max(MinWidth, w), math.Max(MinHeight, h)
}

// ChildPosition returns the top-left for a child placed at angle (radians)
// and distance from the parent's top-left corner.
func ChildPosition(parent Node, angle, distance float64) (float64, float64) {
	return parent.X + math.Cos(angle)*distance, parent.Y + math.Sin(angle)*distance
}

// RandomAngle draws a uniform angle in [0, 2π). A nil source uses the
// global generator.
func RandomAngle(r *rand.Rand) float64 {
	if r == nil {
		return rand.Float64() * 2 * math.Pi
	}
	return r.Float64() * 2 * math.Pi
}
