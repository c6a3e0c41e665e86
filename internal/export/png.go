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
	"image/png"
	"io"

	"nebula/internal/mindmap"
)

// PNG rasterizes the nodes and encodes them as PNG.
func PNG(ctx context.Context, w io.Writer, nodes []mindmap.Node, opts Options) error {
	img, err := Rasterize(ctx, nodes, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}
