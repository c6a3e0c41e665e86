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
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	applog "nebula/internal/log"
	"nebula/internal/mindmap"
)

// Format names an output format.
type Format string

const (
	FormatPDF Format = "pdf"
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat accepts a format name or a file extension such as ".png".
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	switch f {
	case FormatPDF, FormatPNG, FormatSVG:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// Ext is the file extension including the dot.
func (f Format) Ext() string { return "." + string(f) }

// Exporter serializes exports: a request made while another is running
// fails with ErrBusy instead of queueing.
type Exporter struct {
	Options Options
	busy    atomic.Bool
}

func NewExporter(opts Options) *Exporter { return &Exporter{Options: opts} }

// Busy reports whether an export is in progress.
func (e *Exporter) Busy() bool { return e.busy.Load() }

// Export writes a snapshot of nodes to w in the given format. A panic in a
// renderer is reported as an error.
func (e *Exporter) Export(ctx context.Context, w io.Writer, format Format, nodes []mindmap.Node) (err error) {
	if !e.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer e.busy.Store(false)
	if len(nodes) == 0 {
		return ErrEmpty
	}
	snapshot := append([]mindmap.Node(nil), nodes...)
	l := applog.WithOperation(applog.WithComponent("export"), "export")
	defer func() {
		if r := recover(); r != nil {
			l.Error("export panicked", "format", format, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("export %s failed: %v", format, r)
		}
	}()
	start := time.Now()
	switch format {
	case FormatPDF:
		err = PDF(ctx, w, snapshot, e.Options)
	case FormatPNG:
		err = PNG(ctx, w, snapshot, e.Options)
	case FormatSVG:
		err = SVG(ctx, w, snapshot, e.Options)
	default:
		err = fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		l.Error("export failed", "format", format, "err", err)
		return err
	}
	l.Info("export complete", "format", format, "nodes", len(snapshot), "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// ExportFile writes to path through a temp file so a failed export never
// leaves a partial file behind.
func (e *Exporter) ExportFile(ctx context.Context, path string, format Format, nodes []mindmap.Node) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".export-*"+format.Ext())
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := e.Export(ctx, tmp, format, nodes); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// DefaultFileName is "nebula-mindmap.<ext>".
func DefaultFileName(format Format) string { return "nebula-mindmap" + format.Ext() }
