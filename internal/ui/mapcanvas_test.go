//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests exercise the Fyne canvas widget against the fyne test driver.
// They are gated behind the "fyne" build tag so headless CI does not need Fyne:
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"fmt"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"

	"nebula/internal/editor"
	"nebula/internal/mindmap"
	"nebula/internal/render"
)

func newTestCanvas(t *testing.T) (*MapCanvas, *editor.Editor) {
	t.Helper()
	test.NewApp()
	mc := NewMapCanvas()
	n := 0
	store := mindmap.New(mindmap.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("n%d", n)
	}))
	ed := editor.New(store, 800, 600, editor.Options{
		Surface: mc,
		Hooks:   editor.Hooks{Rendered: mc.Show},
	})
	mc.Attach(ed)
	w := test.NewWindow(mc)
	w.Resize(fyne.NewSize(800, 600))
	t.Cleanup(w.Close)
	return mc, ed
}

func mouse(x, y float32, b desktop.MouseButton) *desktop.MouseEvent {
	return &desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)}, Button: b}
}

func TestMapCanvasMirrorsStore(t *testing.T) {
	mc, ed := newTestCanvas(t)
	if len(mc.nodes) != 1 {
		t.Fatalf("expected root element, got %d", len(mc.nodes))
	}
	ed.Select(ed.Store().Root().ID)
	ed.AddChild()
	ed.AddChild()
	if len(mc.nodes) != 3 || len(mc.connectors) != 2 {
		t.Fatalf("elements=%d connectors=%d", len(mc.nodes), len(mc.connectors))
	}
	ed.ClearAll()
	if len(mc.nodes) != 1 || len(mc.connectors) != 0 {
		t.Fatalf("after clear: elements=%d connectors=%d", len(mc.nodes), len(mc.connectors))
	}
}

func TestMapCanvasDragMovesNode(t *testing.T) {
	mc, ed := newTestCanvas(t)
	root := ed.Store().Root()
	vp := ed.Viewport()
	sc := vp.WorldToScreen(render.AnchorPoint(root, render.AnchorLive))

	mc.MouseDown(mouse(float32(sc.X), float32(sc.Y), desktop.MouseButtonPrimary))
	if ed.Mode() != editor.DraggingNode {
		t.Fatalf("mode = %v, want dragging", ed.Mode())
	}
	mc.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(100, 100)}})
	mc.DragEnd()
	if ed.Mode() != editor.Idle {
		t.Fatalf("mode = %v after drag end", ed.Mode())
	}
	moved, _ := ed.Store().Get(root.ID)
	if moved.X == root.X && moved.Y == root.Y {
		t.Fatal("root did not move")
	}
}

func TestMapCanvasWheelZooms(t *testing.T) {
	mc, ed := newTestCanvas(t)
	mc.Scrolled(&fyne.ScrollEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(400, 300)}, Scrolled: fyne.NewDelta(0, 10)})
	if ed.Viewport().Zoom <= 1 {
		t.Fatalf("wheel up should zoom in, zoom=%v", ed.Viewport().Zoom)
	}
}

func TestMapCanvasKeysAndInlineEdit(t *testing.T) {
	mc, ed := newTestCanvas(t)
	ed.Select(ed.Store().Root().ID)
	mc.TypedKey(&fyne.KeyEvent{Name: fyne.KeyA})
	if ed.Store().Len() != 2 {
		t.Fatalf("'a' should add a child, len=%d", ed.Store().Len())
	}

	id := ed.Selection()
	ed.BeginEdit(id)
	if !mc.entry.Visible() {
		t.Fatal("inline entry not shown")
	}
	mc.entry.SetText("Renamed")
	mc.entry.TypedKey(&fyne.KeyEvent{Name: fyne.KeyEscape})
	n, _ := ed.Store().Get(id)
	if n.Text != mindmap.ChildText || mc.entry.Visible() {
		t.Fatalf("escape should cancel: text=%q visible=%v", n.Text, mc.entry.Visible())
	}

	ed.BeginEdit(id)
	mc.entry.SetText("Renamed")
	mc.entry.OnSubmitted("Renamed")
	n, _ = ed.Store().Get(id)
	if n.Text != "Renamed" {
		t.Fatalf("enter should commit, text=%q", n.Text)
	}
}

func TestMapCanvasSecondaryClickOpensMenu(t *testing.T) {
	mc, ed := newTestCanvas(t)
	var got editor.ContextMenu
	mc.OnMenu = func(m editor.ContextMenu) { got = m }
	root := ed.Store().Root()
	vp := ed.Viewport()
	sc := vp.WorldToScreen(render.AnchorPoint(root, render.AnchorLive))
	mc.MouseDown(mouse(float32(sc.X), float32(sc.Y), desktop.MouseButtonSecondary))
	if !got.Open || got.NodeID != root.ID {
		t.Fatalf("menu = %+v", got)
	}
}

func TestEditorKeyMapping(t *testing.T) {
	cases := map[fyne.KeyName]string{
		fyne.KeyReturn:    editor.KeyEnter,
		fyne.KeyEscape:    editor.KeyEscape,
		fyne.KeyBackspace: editor.KeyBackspace,
		fyne.KeyN:         "N",
		fyne.KeyF1:        "",
	}
	for in, want := range cases {
		if got := editorKey(in); got != want {
			t.Errorf("editorKey(%q) = %q, want %q", in, got, want)
		}
	}
}
