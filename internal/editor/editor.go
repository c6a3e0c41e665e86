/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor is the interaction controller: it owns the node store,
// viewport, selection and interaction mode, interprets pointer and keyboard
// events in screen coordinates and re-renders after every mutation.
package editor

import (
	"log/slog"
	"math/rand"

	applog "nebula/internal/log"
	"nebula/internal/mindmap"
	"nebula/internal/render"
	"nebula/internal/vector"
	"nebula/internal/viewport"
)

// Mode is the interaction state.
type Mode int

const (
	Idle Mode = iota
	Panning
	DraggingNode
	ResizingNode
	EditingText
)

func (m Mode) String() string {
	switch m {
	case Panning:
		return "panning"
	case DraggingNode:
		return "dragging"
	case ResizingNode:
		return "resizing"
	case EditingText:
		return "editing"
	default:
		return "idle"
	}
}

// HandleSize is the side of the square resize handle at a node's
// bottom-right corner, in screen pixels. Small on-screen boxes get a
// smaller handle, see HandleRect.
const HandleSize = 12.0

// HandleRect is the resize handle of the on-screen box r. It never covers
// more than a quarter of the width or a third of the height.
func HandleRect(r vector.Rect) vector.Rect {
	side := min(HandleSize, r.W/4, r.H/3)
	return vector.R(r.X+r.W-side, r.Y+r.H-side, side, side)
}

// Hooks connect the editor to host services. Nil hooks are skipped.
type Hooks struct {
	// Save is called for Ctrl/Cmd+S with the current nodes.
	Save func(nodes []mindmap.Node)
	// PickImage asks the host to choose an image for a node; the host
	// answers with AttachImage.
	PickImage func(nodeID string)
	// Rendered is called after every render pass.
	Rendered func(f render.Frame)
}

// Options tune an Editor. Zero values take the defaults.
type Options struct {
	Theme         render.Theme
	Anchors       render.Anchors
	ZoomStep      float64
	ChildDistance float64
	Rand          *rand.Rand
	Surface       render.Surface
	Hooks         Hooks
}

// ContextMenu is the node menu opened by a secondary click.
type ContextMenu struct {
	Open   bool
	At     vector.Pt
	NodeID string
}

// Editor is the application state object. It is not safe for concurrent
// use; hosts deliver events from a single goroutine.
type Editor struct {
	store *mindmap.Store
	view  *viewport.Viewport
	rec   *render.Reconciler
	hooks Hooks
	log   *slog.Logger

	theme     render.Theme
	anchors   render.Anchors
	zoomStep  float64
	distance  float64
	rnd       *rand.Rand
	viewW     float64
	viewH     float64
	selection string
	mode      Mode
	target    string
	last      vector.Pt
	menu      ContextMenu

	editID       string
	editOriginal string
	editBuffer   string
	inputFocus   bool

	frame render.Frame
}

// New creates an editor around store (a fresh store when nil), renders once
// and centers the view on a w×h screen.
func New(store *mindmap.Store, w, h float64, opts Options) *Editor {
	if store == nil {
		store = mindmap.New()
	}
	if opts.Surface == nil {
		opts.Surface = render.NewMemorySurface()
	}
	if opts.ZoomStep <= 0 {
		opts.ZoomStep = 0.1
	}
	if opts.ChildDistance <= 0 {
		opts.ChildDistance = mindmap.ChildDistance
	}
	if opts.Theme == "" {
		opts.Theme = render.Dark
	}
	e := &Editor{
		store:    store,
		view:     viewport.New(),
		rec:      render.NewReconciler(opts.Surface),
		hooks:    opts.Hooks,
		log:      applog.WithComponent("editor"),
		theme:    opts.Theme,
		anchors:  opts.Anchors,
		zoomStep: opts.ZoomStep,
		distance: opts.ChildDistance,
		rnd:      opts.Rand,
		viewW:    w,
		viewH:    h,
	}
	e.render()
	e.view.Center(w, h)
	e.render()
	return e
}

func (e *Editor) Store() *mindmap.Store       { return e.store }
func (e *Editor) Viewport() viewport.Viewport { return *e.view }
func (e *Editor) Selection() string           { return e.selection }
func (e *Editor) Mode() Mode                  { return e.mode }
func (e *Editor) Theme() render.Theme         { return e.theme }
func (e *Editor) Menu() ContextMenu           { return e.menu }
func (e *Editor) Frame() render.Frame         { return e.frame }

// Editing returns the id of the node in inline edit and the current buffer.
func (e *Editor) Editing() (string, string) { return e.editID, e.editBuffer }

// SetViewSize records the screen size used by CenterView.
func (e *Editor) SetViewSize(w, h float64) { e.viewW, e.viewH = w, h }

// SetInputFocus tells the editor that a host text field has keyboard focus;
// shortcuts are suppressed while it does.
func (e *Editor) SetInputFocus(focused bool) { e.inputFocus = focused }

func (e *Editor) setMode(m Mode) {
	if e.mode != m {
		e.log.Debug("mode", "from", e.mode.String(), "to", m.String())
		e.mode = m
	}
}

// render runs one pass: drops a stale selection, builds the frame and
// reconciles it, then clears IsNew on elements that just appeared.
func (e *Editor) render() {
	if e.selection != "" && !e.store.Has(e.selection) {
		e.selection = ""
	}
	if e.menu.Open && !e.store.Has(e.menu.NodeID) {
		e.menu = ContextMenu{}
	}
	e.frame = render.BuildFrame(render.Params{
		Store:     e.store,
		Viewport:  e.view,
		Selection: e.selection,
		EditingID: e.editID,
		Theme:     e.theme,
		Anchors:   e.anchors,
	})
	res := e.rec.Apply(e.frame)
	for _, id := range res.Appeared {
		e.store.MarkRendered(id)
	}
	if e.hooks.Rendered != nil {
		e.hooks.Rendered(e.frame)
	}
}

// Hit is the result of a hit test.
type Hit struct {
	NodeID string
	Handle bool
}

// HitTest finds the topmost node under the screen point p. Later nodes are
// drawn above earlier ones.
func (e *Editor) HitTest(p vector.Pt) (Hit, bool) {
	m := e.view.Transform()
	nodes := e.store.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		r := m.ApplyRect(vector.R(n.X, n.Y, n.Width, n.Height))
		if HandleRect(r).Contains(p) {
			return Hit{NodeID: n.ID, Handle: true}, true
		}
		if r.Contains(p) {
			return Hit{NodeID: n.ID}, true
		}
	}
	return Hit{}, false
}
