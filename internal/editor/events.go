/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"strings"

	"nebula/internal/mindmap"
	"nebula/internal/vector"
)

// Button identifies a pointer button.
type Button int

const (
	Primary Button = iota
	Secondary
)

// Modifiers are the keyboard modifiers held during an event.
type Modifiers struct {
	Ctrl  bool
	Meta  bool
	Shift bool
}

func (m Modifiers) command() bool { return m.Ctrl || m.Meta }

// Key names used by KeyDown, following DOM key values.
const (
	KeyEnter     = "Enter"
	KeyEscape    = "Escape"
	KeyDelete    = "Delete"
	KeyBackspace = "Backspace"
)

// PointerDown handles a button press at screen point p.
func (e *Editor) PointerDown(p vector.Pt, b Button) {
	e.last = p
	hit, onNode := e.HitTest(p)
	if e.mode == EditingText {
		if !onNode || hit.NodeID != e.editID {
			e.CommitEdit()
		}
		return
	}
	e.menu = ContextMenu{}
	if e.mode != Idle {
		return
	}
	if b == Secondary {
		if onNode {
			e.selection = hit.NodeID
			e.menu = ContextMenu{Open: true, At: p, NodeID: hit.NodeID}
		}
		e.render()
		return
	}
	switch {
	case !onNode:
		e.setMode(Panning)
	case hit.Handle:
		e.target = hit.NodeID
		e.setMode(ResizingNode)
	default:
		e.selection = hit.NodeID
		e.target = hit.NodeID
		e.setMode(DraggingNode)
	}
	e.render()
}

// PointerMove handles pointer motion anywhere, not only over the canvas.
func (e *Editor) PointerMove(p vector.Pt) {
	dx, dy := p.X-e.last.X, p.Y-e.last.Y
	e.last = p
	switch e.mode {
	case Panning:
		e.view.Pan(dx, dy)
	case DraggingNode:
		w := e.view.ScreenToWorld(p)
		e.store.UpdateNode(e.target, mindmap.Patch{X: &w.X, Y: &w.Y})
	case ResizingNode:
		n, ok := e.store.Get(e.target)
		if !ok {
			e.setMode(Idle)
			return
		}
		tl := e.view.WorldToScreen(vector.Pt{X: n.X, Y: n.Y})
		w, h := mindmap.ClampSize((p.X-tl.X)/e.view.Zoom, (p.Y-tl.Y)/e.view.Zoom)
		e.store.UpdateNode(e.target, mindmap.Patch{Width: &w, Height: &h})
	default:
		return
	}
	e.render()
}

// PointerUp ends any pan, drag or resize. Hosts deliver it for releases
// outside the canvas too.
func (e *Editor) PointerUp() {
	switch e.mode {
	case Panning, DraggingNode, ResizingNode:
		e.target = ""
		e.setMode(Idle)
	}
}

// Wheel zooms by one step around the pointer. Only the sign of deltaY
// matters: positive zooms out.
func (e *Editor) Wheel(p vector.Pt, deltaY float64) {
	if deltaY == 0 {
		return
	}
	step := e.zoomStep
	if deltaY > 0 {
		step = -step
	}
	e.view.ZoomAt(e.view.Zoom+step, &p)
	e.render()
}

// DoubleClick starts inline editing of the node under p.
func (e *Editor) DoubleClick(p vector.Pt) {
	if e.mode == EditingText {
		return
	}
	if hit, ok := e.HitTest(p); ok {
		e.BeginEdit(hit.NodeID)
	}
}

// KeyDown handles a key press. While editing only Enter and Escape are
// interpreted; shortcuts are suppressed then and while a host input has
// focus. It reports whether the key was consumed.
func (e *Editor) KeyDown(key string, mods Modifiers) bool {
	if e.mode == EditingText {
		switch key {
		case KeyEnter:
			e.CommitEdit()
			return true
		case KeyEscape:
			e.CancelEdit()
			return true
		}
		return false
	}
	if e.inputFocus {
		return false
	}
	k := strings.ToLower(key)
	switch {
	case mods.command() && k == "s":
		e.Save()
	case mods.command() && k == "c":
		e.CenterView()
	case mods.command():
		return false
	case k == "a" || k == "n":
		e.AddChild()
	case key == KeyDelete || key == KeyBackspace:
		e.DeleteSelected()
	case key == KeyEscape:
		e.ClearSelection()
	default:
		return false
	}
	return true
}

// BeginEdit enters inline editing for id.
func (e *Editor) BeginEdit(id string) {
	n, ok := e.store.Get(id)
	if !ok {
		return
	}
	if e.mode == EditingText {
		e.CommitEdit()
	}
	e.menu = ContextMenu{}
	e.selection = id
	e.editID = id
	e.editOriginal = n.Text
	e.editBuffer = n.Text
	e.setMode(EditingText)
	e.render()
}

// SetEditText replaces the text being typed. The store is not touched
// until the edit is committed.
func (e *Editor) SetEditText(s string) {
	if e.mode == EditingText {
		e.editBuffer = s
	}
}

// CommitEdit writes the buffer to the node and leaves EditingText. Blur
// maps to this.
func (e *Editor) CommitEdit() {
	if e.mode != EditingText {
		return
	}
	text := e.editBuffer
	e.store.UpdateNode(e.editID, mindmap.Patch{Text: &text})
	e.editID, e.editBuffer, e.editOriginal = "", "", ""
	e.setMode(Idle)
	e.render()
}

// CancelEdit restores the pre-edit text and commits it.
func (e *Editor) CancelEdit() {
	if e.mode != EditingText {
		return
	}
	e.editBuffer = e.editOriginal
	e.CommitEdit()
}
