/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"encoding/base64"
	"net/http"
	"strings"

	"nebula/internal/mindmap"
	"nebula/internal/render"
)

// AddChild adds a "New Idea" node to the selection, or to the root when
// nothing is selected, at a random angle and fixed distance from the
// parent. The new node becomes the selection.
func (e *Editor) AddChild() *mindmap.Node {
	parent, ok := e.store.Get(e.selection)
	if !ok {
		parent = e.store.Root()
	}
	x, y := mindmap.ChildPosition(parent, mindmap.RandomAngle(e.rnd), e.distance)
	n := e.store.AddNode(mindmap.ChildText, x, y, parent.ID, false)
	if n == nil {
		return nil
	}
	e.selection = n.ID
	e.render()
	return n
}

// DeleteSelected removes the selected node and its subtree and clears the
// selection. The root cannot be deleted.
func (e *Editor) DeleteSelected() []string {
	if e.selection == "" {
		return nil
	}
	removed := e.store.DeleteNode(e.selection)
	if len(removed) == 0 {
		return nil
	}
	e.log.Info("deleted subtree", "id", removed[0], "count", len(removed))
	e.selection = ""
	e.render()
	return removed
}

// Select makes id the selection; an unknown id clears it.
func (e *Editor) Select(id string) {
	if !e.store.Has(id) {
		id = ""
	}
	e.selection = id
	e.render()
}

// ClearSelection deselects.
func (e *Editor) ClearSelection() {
	e.selection = ""
	e.render()
}

// CenterView resets zoom and centers the world origin.
func (e *Editor) CenterView() {
	e.view.Center(e.viewW, e.viewH)
	e.render()
}

// ResetView is the toolbar spelling of CenterView.
func (e *Editor) ResetView() { e.CenterView() }

// ZoomIn and ZoomOut change the zoom by one step without an anchor.
func (e *Editor) ZoomIn() {
	e.view.ZoomAt(e.view.Zoom+e.zoomStep, nil)
	e.render()
}

func (e *Editor) ZoomOut() {
	e.view.ZoomAt(e.view.Zoom-e.zoomStep, nil)
	e.render()
}

// ClearAll resets the map to its root node.
func (e *Editor) ClearAll() {
	e.abortInteraction()
	e.store.Clear()
	e.rec.Reset()
	e.render()
}

// ToggleTheme switches between the dark and light palettes.
func (e *Editor) ToggleTheme() {
	e.theme = e.theme.Toggle()
	e.render()
}

// SetAnchors switches connector anchoring.
func (e *Editor) SetAnchors(a render.Anchors) {
	e.anchors = a
	e.render()
}

// Load replaces the whole store with nodes, clears the selection, drops all
// elements and re-centers the view. On error the editor is unchanged.
func (e *Editor) Load(nodes []mindmap.Node) error {
	if err := e.store.ReplaceAll(nodes); err != nil {
		return err
	}
	e.abortInteraction()
	e.selection = ""
	e.rec.Reset()
	e.render()
	e.CenterView()
	e.log.Info("document loaded", "nodes", len(nodes))
	return nil
}

func (e *Editor) abortInteraction() {
	e.editID, e.editBuffer, e.editOriginal = "", "", ""
	e.target = ""
	e.menu = ContextMenu{}
	e.setMode(Idle)
}

// Recolor sets the selected node's color token or CSS color.
func (e *Editor) Recolor(color string) {
	if e.selection == "" {
		return
	}
	e.store.UpdateNode(e.selection, mindmap.Patch{Color: &color})
	e.render()
}

// AttachImage stores data as a data URI on node id. An empty mime is
// sniffed from the content; non-image content is refused.
func (e *Editor) AttachImage(id string, data []byte, mime string) bool {
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if !strings.HasPrefix(mime, "image/") || !e.store.Has(id) {
		return false
	}
	uri := DataURI(mime, data)
	e.store.UpdateNode(id, mindmap.Patch{Image: &uri})
	e.render()
	return true
}

// DataURI encodes data as a base64 data URI.
func DataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Save hands the current nodes to the Save hook.
func (e *Editor) Save() {
	if e.hooks.Save != nil {
		e.hooks.Save(e.store.Nodes())
	}
}

// MenuAction is an entry of the node context menu.
type MenuAction int

const (
	MenuAddChild MenuAction = iota
	MenuEdit
	MenuDelete
	MenuAttachImage
	MenuRecolor
)

// ChooseMenu runs action on the menu's node and closes the menu. color is
// only used by MenuRecolor.
func (e *Editor) ChooseMenu(action MenuAction, color string) {
	if !e.menu.Open {
		return
	}
	id := e.menu.NodeID
	e.menu = ContextMenu{}
	e.selection = id
	switch action {
	case MenuAddChild:
		e.AddChild()
	case MenuEdit:
		e.BeginEdit(id)
	case MenuDelete:
		e.DeleteSelected()
	case MenuAttachImage:
		if e.hooks.PickImage != nil {
			e.hooks.PickImage(id)
		}
		e.render()
	case MenuRecolor:
		e.Recolor(color)
	}
}

// CloseMenu hides the context menu.
func (e *Editor) CloseMenu() {
	e.menu = ContextMenu{}
	e.render()
}
