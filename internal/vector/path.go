/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"strconv"
	"strings"
)

// Path commands used by connector curves.

type PathOp uint8

const (
	MoveTo PathOp = iota
	LineTo
	CubicTo // cubic bezier (cx1, cy1, cx2, cy2, x, y)
)

type PathCmd struct {
	Op   PathOp
	Data [6]float64
}

type Path struct{ Cmds []PathCmd }

func (p *Path) MoveTo(x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: MoveTo, Data: [6]float64{x, y}})
}
func (p *Path) LineTo(x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: LineTo, Data: [6]float64{x, y}})
}
func (p *Path) CubicTo(cx1, cy1, cx2, cy2, x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: CubicTo, Data: [6]float64{cx1, cy1, cx2, cy2, x, y}})
}

// Bounds returns the bounding box of all end and control points. Control
// points make it conservative, which is fine for export cropping.
func (p Path) Bounds() Rect {
	var pts []Pt
	for _, c := range p.Cmds {
		switch c.Op {
		case MoveTo, LineTo:
			pts = append(pts, Pt{c.Data[0], c.Data[1]})
		case CubicTo:
			pts = append(pts, Pt{c.Data[0], c.Data[1]}, Pt{c.Data[2], c.Data[3]}, Pt{c.Data[4], c.Data[5]})
		}
	}
	if len(pts) == 0 {
		return Rect{}
	}
	minX, minY, maxX, maxY := pts[0].X, pts[0].Y, pts[0].X, pts[0].Y
	for _, q := range pts[1:] {
		minX = min(minX, q.X)
		minY = min(minY, q.Y)
		maxX = max(maxX, q.X)
		maxY = max(maxY, q.Y)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Transform returns a copy of the path with every point mapped through m.
func (p Path) Transform(m Affine2D) Path {
	out := Path{Cmds: make([]PathCmd, len(p.Cmds))}
	for i, c := range p.Cmds {
		n := c
		pairs := 1
		if c.Op == CubicTo {
			pairs = 3
		}
		for j := 0; j < pairs; j++ {
			q := m.Apply(Pt{c.Data[2*j], c.Data[2*j+1]})
			n.Data[2*j], n.Data[2*j+1] = q.X, q.Y
		}
		out.Cmds[i] = n
	}
	return out
}

// Flatten approximates the path by a polyline; each cubic segment is split
// into steps line segments.
func (p Path) Flatten(steps int) []Pt {
	if steps < 1 {
		steps = 1
	}
	var out []Pt
	var cur Pt
	for _, c := range p.Cmds {
		switch c.Op {
		case MoveTo, LineTo:
			cur = Pt{c.Data[0], c.Data[1]}
			out = append(out, cur)
		case CubicTo:
			p0 := cur
			p1 := Pt{c.Data[0], c.Data[1]}
			p2 := Pt{c.Data[2], c.Data[3]}
			p3 := Pt{c.Data[4], c.Data[5]}
			for i := 1; i <= steps; i++ {
				t := float64(i) / float64(steps)
				u := 1 - t
				out = append(out, Pt{
					X: u*u*u*p0.X + 3*u*u*t*p1.X + 3*u*t*t*p2.X + t*t*t*p3.X,
					Y: u*u*u*p0.Y + 3*u*u*t*p1.Y + 3*u*t*t*p2.Y + t*t*t*p3.Y,
				})
			}
			cur = p3
		}
	}
	return out
}

// SVG renders the path in SVG path-data syntax, e.g. "M 0 0 C 1 0, 2 3, 3 3".
func (p Path) SVG() string {
	var b strings.Builder
	num := func(v float64) string { return strconv.FormatFloat(FloatRound(v, 2), 'f', -1, 64) }
	for i, c := range p.Cmds {
		if i > 0 {
			b.WriteString(" ")
		}
		switch c.Op {
		case MoveTo:
			b.WriteString("M " + num(c.Data[0]) + " " + num(c.Data[1]))
		case LineTo:
			b.WriteString("L " + num(c.Data[0]) + " " + num(c.Data[1]))
		case CubicTo:
			b.WriteString("C " + num(c.Data[0]) + " " + num(c.Data[1]) + ", " +
				num(c.Data[2]) + " " + num(c.Data[3]) + ", " +
				num(c.Data[4]) + " " + num(c.Data[5]))
		}
	}
	return b.String()
}
