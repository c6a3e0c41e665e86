/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"nebula/internal/mindmap"
	"nebula/internal/render"
	"nebula/internal/textlayout"
	"nebula/internal/vector"
)

func cssRGBA(c color.RGBA) string {
	return fmt.Sprintf("rgba(%d,%d,%d,%.3f)", c.R, c.G, c.B, float64(c.A)/255)
}

// SVG writes the map as vector graphics in world units shifted so the
// bounds start at the origin. Attached images are embedded as data URIs.
func SVG(ctx context.Context, w io.Writer, nodes []mindmap.Node, opts Options) error {
	opts = opts.withDefaults()
	b, err := Bounds(nodes, opts.Footprint, opts.Padding)
	if err != nil {
		return err
	}
	m := vector.Translate(-b.X, -b.Y)
	width, height, err := checkedSize(b, 1, maxVectorSide, math.Inf(1))
	if err != nil {
		return err
	}

	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:"+cssRGBA(render.Background(opts.Theme)))

	line := cssRGBA(render.LineColor(opts.Theme))
	for _, p := range connectors(nodes, opts.Footprint.Anchors()) {
		canvas.Path(p.Transform(m).SVG(), fmt.Sprintf("fill:none;stroke:%s;stroke-width:2", line))
	}

	spec := textlayout.FontSpec{SizePt: opts.FontPt}
	layouter := textlayout.NewWordWrap(opts.Provider)
	for _, n := range nodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		box := m.ApplyRect(extent(n, opts.Footprint))
		fill := render.ResolveColor(n.Color, opts.Theme)
		x, y := iround(box.X), iround(box.Y)
		bw, bh := iround(box.W), iround(box.H)
		canvas.Roundrect(x, y, bw, bh, cornerRadius, cornerRadius,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", cssRGBA(fill), cssRGBA(outline(fill))))

		inner := box.Inset(labelPadding, labelPadding)
		textArea := inner
		if n.Image != "" {
			imgArea := inner
			if n.Text != "" {
				imgArea.H = inner.H * imageShare
				textArea = vector.R(inner.X, inner.Y+imgArea.H, inner.W, inner.H-imgArea.H)
			}
			canvas.Image(iround(imgArea.X), iround(imgArea.Y), iround(imgArea.W), iround(imgArea.H), n.Image,
				`preserveAspectRatio="xMidYMid meet"`)
		}

		tb := layouter.Layout(n.Text, spec, textArea.W).Fit(textArea.H)
		lh := tb.Metrics.LineHeight()
		top := textArea.Y + (textArea.H-lh*float64(len(tb.Lines)))/2
		style := fmt.Sprintf("fill:%s;font-size:%.0fpx;font-family:system-ui,sans-serif;text-anchor:middle;dominant-baseline:middle",
			cssRGBA(render.TextColorOn(fill)), opts.FontPt)
		for i, ln := range tb.Lines {
			canvas.Text(iround(textArea.X+textArea.W/2), iround(top+lh*float64(i)+lh/2), ln.Text, style)
		}
	}
	canvas.End()
	return nil
}

func iround(v float64) int { return int(math.Round(v)) }
