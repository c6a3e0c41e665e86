/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render turns the node store and viewport into a frame of element
// states and reconciles that frame onto a host surface incrementally.
package render

import (
	"image/color"

	"nebula/internal/mindmap"
	"nebula/internal/vector"
	"nebula/internal/viewport"
)

// Anchors chooses where connectors attach to a node.
type Anchors int

const (
	// AnchorLive attaches at the node's center using its stored size.
	AnchorLive Anchors = iota
	// AnchorFixed attaches at a constant (75, 25) from the top-left, which
	// matches a 150×50 box regardless of the node's real size.
	AnchorFixed
)

const (
	FixedAnchorX = 75.0
	FixedAnchorY = 25.0
)

// ParseAnchors maps "fixed" to AnchorFixed and anything else to AnchorLive.
func ParseAnchors(s string) Anchors {
	if s == "fixed" {
		return AnchorFixed
	}
	return AnchorLive
}

// ElementState is everything a host needs to draw one node.
type ElementState struct {
	ID         string
	World      vector.Rect
	Screen     vector.Rect
	Text       string
	ColorToken string
	Fill       color.RGBA
	TextColor  color.RGBA
	Image      string
	Selected   bool
	Root       bool
	Editing    bool
	Appearing  bool
}

// Connector is the curve from a parent to one of its children, in world
// coordinates.
type Connector struct {
	ParentID string
	ChildID  string
	Path     vector.Path
}

// Frame is a complete description of one render pass.
type Frame struct {
	Elements   []ElementState
	Connectors []Connector
	Transform  vector.Affine2D
	Zoom       int
	Background color.RGBA
	Line       color.RGBA
	Selection  color.RGBA
}

// Params are the inputs of BuildFrame.
type Params struct {
	Store     *mindmap.Store
	Viewport  *viewport.Viewport
	Selection string
	EditingID string
	Theme     Theme
	Anchors   Anchors
}

// BuildFrame computes the frame for the current state. It does not mutate
// its inputs.
func BuildFrame(p Params) Frame {
	vp := p.Viewport
	if vp == nil {
		vp = viewport.New()
	}
	m := vp.Transform()
	f := Frame{
		Transform:  m,
		Zoom:       vp.Percent(),
		Background: Background(p.Theme),
		Line:       LineColor(p.Theme),
		Selection:  SelectionColor(p.Theme),
	}
	if p.Store == nil {
		return f
	}
	nodes := p.Store.Nodes()
	byID := make(map[string]mindmap.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	f.Elements = make([]ElementState, 0, len(nodes))
	for _, n := range nodes {
		token := n.Color
		if token == "" {
			token = mindmap.ChildColor
			if n.IsRoot {
				token = mindmap.RootColor
			}
		}
		fill := ResolveColor(token, p.Theme)
		world := vector.R(n.X, n.Y, n.Width, n.Height)
		f.Elements = append(f.Elements, ElementState{
			ID:         n.ID,
			World:      world,
			Screen:     m.ApplyRect(world),
			Text:       n.Text,
			ColorToken: token,
			Fill:       fill,
			TextColor:  TextColorOn(fill),
			Image:      n.Image,
			Selected:   n.ID == p.Selection,
			Root:       n.IsRoot,
			Editing:    n.ID == p.EditingID,
			Appearing:  n.IsNew,
		})
		if n.ParentID == "" {
			continue
		}
		if parent, ok := byID[n.ParentID]; ok {
			f.Connectors = append(f.Connectors, Connector{
				ParentID: parent.ID,
				ChildID:  n.ID,
				Path:     ConnectorPath(parent, n, p.Anchors),
			})
		}
	}
	return f
}

// AnchorPoint returns where connectors attach to n.
func AnchorPoint(n mindmap.Node, a Anchors) vector.Pt {
	if a == AnchorFixed {
		return vector.Pt{X: n.X + FixedAnchorX, Y: n.Y + FixedAnchorY}
	}
	x, y := n.Center()
	return vector.Pt{X: x, Y: y}
}

// ConnectorPath builds the S-curve between parent and child: both control
// points are pulled horizontally by dx/1.5 toward the other end.
func ConnectorPath(parent, child mindmap.Node, a Anchors) vector.Path {
	p1, p2 := AnchorPoint(parent, a), AnchorPoint(child, a)
	dx := p2.X - p1.X
	var path vector.Path
	path.MoveTo(p1.X, p1.Y)
	path.CubicTo(p1.X+dx/1.5, p1.Y, p2.X-dx/1.5, p2.Y, p2.X, p2.Y)
	return path
}
