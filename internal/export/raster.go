/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	applog "nebula/internal/log"
	"nebula/internal/mindmap"
	"nebula/internal/render"
	"nebula/internal/textlayout"
	"nebula/internal/vector"
)

// imageShare is the fraction of a node's inner height given to an attached
// image when the node also carries text.
const imageShare = 0.6

// Rasterize draws the nodes into an RGBA image covering Bounds at
// opts.Scale device pixels per world unit.
func Rasterize(ctx context.Context, nodes []mindmap.Node, opts Options) (image.Image, error) {
	opts = opts.withDefaults()
	b, err := Bounds(nodes, opts.Footprint, opts.Padding)
	if err != nil {
		return nil, err
	}
	w, h, err := pixelSize(b, opts.Scale)
	if err != nil {
		return nil, err
	}
	m := vector.Scale(opts.Scale, opts.Scale).Mul(vector.Translate(-b.X, -b.Y))

	dc := gg.NewContext(w, h)
	dc.SetColor(render.Background(opts.Theme))
	dc.Clear()

	dc.SetColor(render.LineColor(opts.Theme))
	dc.SetLineWidth(2 * opts.Scale)
	for _, p := range connectors(nodes, opts.Footprint.Anchors()) {
		strokePath(dc, p.Transform(m))
	}

	face, metrics := opts.Provider.Resolve(textlayout.FontSpec{SizePt: opts.FontPt * opts.Scale})
	layouter := textlayout.NewWordWrap(opts.Provider)
	for _, n := range nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		box := m.ApplyRect(extent(n, opts.Footprint))
		fill := render.ResolveColor(n.Color, opts.Theme)
		dc.DrawRoundedRectangle(box.X, box.Y, box.W, box.H, cornerRadius*opts.Scale)
		dc.SetColor(fill)
		dc.FillPreserve()
		dc.SetColor(outline(fill))
		dc.SetLineWidth(opts.Scale)
		dc.Stroke()

		inner := box.Inset(labelPadding*opts.Scale, labelPadding*opts.Scale)
		textArea := inner
		if n.Image != "" {
			imgArea := inner
			if strings.TrimSpace(n.Text) != "" {
				imgArea.H = inner.H * imageShare
				textArea = vector.R(inner.X, inner.Y+imgArea.H, inner.W, inner.H-imgArea.H)
			}
			if err := drawAttachment(dc, n.Image, imgArea); err != nil {
				applog.WithComponent("export").Warn("skipping attached image", "node", n.ID, "err", err)
				textArea = inner
			}
		}

		tb := layouter.Layout(n.Text, textlayout.FontSpec{SizePt: opts.FontPt * opts.Scale}, textArea.W).Fit(textArea.H)
		dc.SetFontFace(face)
		dc.SetColor(render.TextColorOn(fill))
		lh := metrics.LineHeight()
		top := textArea.Y + (textArea.H-lh*float64(len(tb.Lines)))/2
		cx := textArea.X + textArea.W/2
		for i, ln := range tb.Lines {
			dc.DrawStringAnchored(ln.Text, cx, top+lh*float64(i)+lh/2, 0.5, 0.35)
		}
	}
	return dc.Image(), nil
}

func strokePath(dc *gg.Context, p vector.Path) {
	for _, c := range p.Cmds {
		d := c.Data
		switch c.Op {
		case vector.MoveTo:
			dc.MoveTo(d[0], d[1])
		case vector.LineTo:
			dc.LineTo(d[0], d[1])
		case vector.CubicTo:
			dc.CubicTo(d[0], d[1], d[2], d[3], d[4], d[5])
		}
	}
	dc.Stroke()
}

func outline(c color.RGBA) color.RGBA {
	const k = 0.8
	return color.RGBA{R: uint8(float64(c.R) * k), G: uint8(float64(c.G) * k), B: uint8(float64(c.B) * k), A: c.A}
}

// DecodeDataURI returns the image held in a base64 data URI.
func DecodeDataURI(uri string) (image.Image, error) {
	if !strings.HasPrefix(uri, "data:") {
		return nil, errors.New("not a data URI")
	}
	meta, payload, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, errors.New("data URI is not base64")
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// drawAttachment fits the image into area keeping its aspect ratio.
func drawAttachment(dc *gg.Context, uri string, area vector.Rect) error {
	src, err := DecodeDataURI(uri)
	if err != nil {
		return err
	}
	sb := src.Bounds()
	if sb.Empty() || area.W < 1 || area.H < 1 {
		return nil
	}
	k := math.Min(area.W/float64(sb.Dx()), area.H/float64(sb.Dy()))
	tw := int(math.Max(1, math.Round(float64(sb.Dx())*k)))
	th := int(math.Max(1, math.Round(float64(sb.Dy())*k)))
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)
	x := area.X + (area.W-float64(tw))/2
	y := area.Y + (area.H-float64(th))/2
	dc.DrawImage(dst, int(math.Round(x)), int(math.Round(y)))
	return nil
}
