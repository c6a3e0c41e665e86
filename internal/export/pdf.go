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
	"image/png"
	"io"

	"github.com/jung-kurt/gofpdf"

	"nebula/internal/mindmap"
	"nebula/internal/version"
)

// pageSpec returns the orientation and base size that make gofpdf produce a
// w×h page. gofpdf swaps the base size for landscape pages.
func pageSpec(w, h float64) (string, gofpdf.SizeType) {
	if w > h {
		return "L", gofpdf.SizeType{Wd: h, Ht: w}
	}
	return "P", gofpdf.SizeType{Wd: w, Ht: h}
}

// PDF writes a single-page document whose page matches the raster size and
// is filled edge to edge by the rendered map.
func PDF(ctx context.Context, w io.Writer, nodes []mindmap.Node, opts Options) error {
	img, err := Rasterize(ctx, nodes, opts)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	pw, ph := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())
	orientation, size := pageSpec(pw, ph)

	pdf := gofpdf.NewCustom(&gofpdf.InitType{OrientationStr: orientation, UnitStr: "pt", Size: size})
	pdf.SetTitle("Nebula mind map", true)
	pdf.SetCreator("Nebula "+version.String(), true)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	imgOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("mindmap", imgOpts, &buf)
	pdf.ImageOptions("mindmap", 0, 0, pw, ph, false, imgOpts, 0, "")
	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}
