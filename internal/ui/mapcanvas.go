//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image/color"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"nebula/internal/editor"
	"nebula/internal/export"
	applog "nebula/internal/log"
	"nebula/internal/render"
	"nebula/internal/vector"
)

// connectorSteps is the number of line segments per connector curve.
const connectorSteps = 24

// MapCanvas displays editor frames and forwards pointer and key input to
// the editor. It is the render.Surface of the desktop host.
type MapCanvas struct {
	widget.BaseWidget

	ed    *editor.Editor
	log   *slog.Logger
	frame render.Frame

	nodes      map[string]*nodeView
	order      []string
	transform  vector.Affine2D
	connectors []render.Connector

	entry    *editEntry
	menuNode string
	// OnMenu is called when the editor opens a node context menu.
	OnMenu func(m editor.ContextMenu)
}

// NewMapCanvas returns an empty canvas; Attach binds it to an editor.
func NewMapCanvas() *MapCanvas {
	c := &MapCanvas{
		nodes:     map[string]*nodeView{},
		transform: vector.Identity,
		log:       applog.WithComponent("ui"),
	}
	c.entry = newEditEntry(c)
	c.ExtendBaseWidget(c)
	return c
}

// Attach connects the editor that renders into this canvas.
func (c *MapCanvas) Attach(ed *editor.Editor) { c.ed = ed }

// Show is the editor's Rendered hook.
func (c *MapCanvas) Show(f render.Frame) {
	c.frame = f
	c.order = c.order[:0]
	for _, st := range f.Elements {
		c.order = append(c.order, st.ID)
	}
	c.syncEntry()
	c.Refresh()
	if c.ed == nil {
		return
	}
	m := c.ed.Menu()
	if m.Open && m.NodeID != c.menuNode && c.OnMenu != nil {
		c.OnMenu(m)
	}
	c.menuNode = ""
	if m.Open {
		c.menuNode = m.NodeID
	}
}

func (c *MapCanvas) CreateElement(id string) render.Element {
	v := newNodeView(id)
	c.nodes[id] = v
	return v
}

func (c *MapCanvas) RemoveElement(id string) { delete(c.nodes, id) }

func (c *MapCanvas) SetTransform(m vector.Affine2D) { c.transform = m }

func (c *MapCanvas) DrawConnectors(cs []render.Connector) { c.connectors = cs }

// syncEntry shows the inline editor over the node being edited.
func (c *MapCanvas) syncEntry() {
	if c.ed == nil {
		return
	}
	id, text := c.ed.Editing()
	if id == "" {
		c.entry.Hide()
		return
	}
	if !c.entry.Visible() || c.entry.nodeID != id {
		c.entry.nodeID = id
		c.entry.SetText(text)
		c.entry.Show()
		if cv := fyne.CurrentApp().Driver().CanvasForObject(c); cv != nil {
			cv.Focus(c.entry)
		}
	}
}

func pt(p fyne.Position) vector.Pt { return vector.Pt{X: float64(p.X), Y: float64(p.Y)} }

func (c *MapCanvas) focus() {
	if cv := fyne.CurrentApp().Driver().CanvasForObject(c); cv != nil {
		cv.Focus(c)
	}
}

func (c *MapCanvas) MouseDown(ev *desktop.MouseEvent) {
	if c.ed == nil {
		return
	}
	b := editor.Primary
	if ev.Button == desktop.MouseButtonSecondary {
		b = editor.Secondary
	}
	if c.ed.Mode() != editor.EditingText {
		c.focus()
	}
	c.ed.PointerDown(pt(ev.Position), b)
}

func (c *MapCanvas) MouseUp(*desktop.MouseEvent) {
	if c.ed != nil {
		c.ed.PointerUp()
	}
}

func (c *MapCanvas) MouseIn(*desktop.MouseEvent) {}
func (c *MapCanvas) MouseOut()                   {}

func (c *MapCanvas) MouseMoved(ev *desktop.MouseEvent) {
	if c.ed != nil {
		c.ed.PointerMove(pt(ev.Position))
	}
}

// Dragged keeps moves flowing while the pointer is outside the widget.
func (c *MapCanvas) Dragged(ev *fyne.DragEvent) {
	if c.ed != nil {
		c.ed.PointerMove(pt(ev.Position))
	}
}

func (c *MapCanvas) DragEnd() {
	if c.ed != nil {
		c.ed.PointerUp()
	}
}

// Scrolled zooms around the pointer. Fyne reports wheel-up as positive DY.
func (c *MapCanvas) Scrolled(ev *fyne.ScrollEvent) {
	if c.ed != nil {
		c.ed.Wheel(pt(ev.Position), -float64(ev.Scrolled.DY))
	}
}

func (c *MapCanvas) DoubleTapped(ev *fyne.PointEvent) {
	if c.ed != nil {
		c.ed.DoubleClick(pt(ev.Position))
	}
}

func (c *MapCanvas) Tapped(*fyne.PointEvent) {}

func (c *MapCanvas) FocusGained() {
	if c.ed != nil {
		c.ed.SetInputFocus(false)
	}
}

func (c *MapCanvas) FocusLost() {
	if c.ed != nil {
		c.ed.SetInputFocus(true)
	}
}

func (c *MapCanvas) TypedRune(rune) {}

func (c *MapCanvas) TypedKey(ev *fyne.KeyEvent) {
	if c.ed == nil {
		return
	}
	if key := editorKey(ev.Name); key != "" {
		c.ed.KeyDown(key, editor.Modifiers{})
	}
}

// editorKey maps fyne key names to the editor's key vocabulary.
func editorKey(name fyne.KeyName) string {
	switch name {
	case fyne.KeyReturn, fyne.KeyEnter:
		return editor.KeyEnter
	case fyne.KeyEscape:
		return editor.KeyEscape
	case fyne.KeyDelete:
		return editor.KeyDelete
	case fyne.KeyBackspace:
		return editor.KeyBackspace
	case fyne.KeyA, fyne.KeyN:
		return string(name)
	}
	return ""
}

func (c *MapCanvas) MinSize() fyne.Size { return fyne.NewSize(400, 300) }

func (c *MapCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &mapRenderer{c: c, bg: canvas.NewRectangle(color.Black)}
}

type mapRenderer struct {
	c     *MapCanvas
	bg    *canvas.Rectangle
	lines []*canvas.Line
}

func (r *mapRenderer) Destroy()           {}
func (r *mapRenderer) MinSize() fyne.Size { return r.c.MinSize() }

func (r *mapRenderer) Objects() []fyne.CanvasObject {
	objs := []fyne.CanvasObject{r.bg}
	for _, l := range r.lines {
		objs = append(objs, l)
	}
	for _, id := range r.c.order {
		if v, ok := r.c.nodes[id]; ok {
			objs = append(objs, v.objects()...)
		}
	}
	return append(objs, r.c.entry)
}

func (r *mapRenderer) Refresh() {
	r.Layout(r.c.Size())
	canvas.Refresh(r.c)
}

func (r *mapRenderer) Layout(size fyne.Size) {
	if r.c.ed != nil {
		r.c.ed.SetViewSize(float64(size.Width), float64(size.Height))
	}
	f := r.c.frame
	r.bg.FillColor = f.Background
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))
	r.bg.Refresh()

	var segs [][2]vector.Pt
	for _, cn := range r.c.connectors {
		pts := cn.Path.Transform(r.c.transform).Flatten(connectorSteps)
		for i := 1; i < len(pts); i++ {
			segs = append(segs, [2]vector.Pt{pts[i-1], pts[i]})
		}
	}
	for len(r.lines) < len(segs) {
		r.lines = append(r.lines, canvas.NewLine(color.White))
	}
	r.lines = r.lines[:len(segs)]
	for i, s := range segs {
		l := r.lines[i]
		l.StrokeColor = f.Line
		l.StrokeWidth = 2
		l.Position1 = fyne.NewPos(float32(s[0].X), float32(s[0].Y))
		l.Position2 = fyne.NewPos(float32(s[1].X), float32(s[1].Y))
		l.Refresh()
	}

	for _, id := range r.c.order {
		if v, ok := r.c.nodes[id]; ok {
			v.layout(f)
		}
	}
	if id, _ := r.c.editingID(); id != "" {
		if v, ok := r.c.nodes[id]; ok {
			s := v.state.Screen
			r.c.entry.Move(fyne.NewPos(float32(s.X), float32(s.Y+s.H/2)-r.c.entry.MinSize().Height/2))
			r.c.entry.Resize(fyne.NewSize(float32(s.W), r.c.entry.MinSize().Height))
		}
	}
}

func (c *MapCanvas) editingID() (string, string) {
	if c.ed == nil {
		return "", ""
	}
	return c.ed.Editing()
}

// nodeView is the fyne representation of one node.
type nodeView struct {
	id      string
	state   render.ElementState
	content string
	imgURI  string

	box    *canvas.Rectangle
	label  *canvas.Text
	img    *canvas.Image
	handle *canvas.Rectangle
}

func newNodeView(id string) *nodeView {
	v := &nodeView{
		id:     id,
		box:    canvas.NewRectangle(color.Transparent),
		label:  canvas.NewText("", color.White),
		handle: canvas.NewRectangle(color.Transparent),
	}
	v.label.Alignment = fyne.TextAlignCenter
	v.handle.Hide()
	return v
}

// Update applies a new element state. The displayed text is left alone
// while the node is being edited.
func (v *nodeView) Update(st render.ElementState) {
	if !(st.Editing && v.state.Editing) {
		v.content = st.Text
	}
	if st.Image != v.imgURI {
		v.imgURI = st.Image
		v.img = nil
		if st.Image != "" {
			if im, err := export.DecodeDataURI(st.Image); err == nil {
				v.img = canvas.NewImageFromImage(im)
				v.img.FillMode = canvas.ImageFillContain
			} else {
				applog.WithComponent("ui").Warn("cannot display node image", "node", v.id, "err", err)
			}
		}
	}
	v.state = st
	if st.Appearing {
		fill := st.Fill
		canvas.NewColorRGBAAnimation(color.RGBA{R: fill.R, G: fill.G, B: fill.B}, fill, canvas.DurationStandard, func(c color.Color) {
			v.box.FillColor = c
			v.box.Refresh()
		}).Start()
	} else {
		v.box.FillColor = st.Fill
	}
}

func (v *nodeView) objects() []fyne.CanvasObject {
	objs := []fyne.CanvasObject{v.box}
	if v.img != nil {
		objs = append(objs, v.img)
	}
	return append(objs, v.label, v.handle)
}

func (v *nodeView) layout(f render.Frame) {
	st := v.state
	s := st.Screen
	zoom := float32(f.Zoom) / 100
	pos := fyne.NewPos(float32(s.X), float32(s.Y))
	size := fyne.NewSize(float32(s.W), float32(s.H))

	v.box.Move(pos)
	v.box.Resize(size)
	v.box.CornerRadius = 12 * zoom
	if st.Selected {
		v.box.StrokeColor = f.Selection
		v.box.StrokeWidth = 3
	} else {
		v.box.StrokeColor = color.Transparent
		v.box.StrokeWidth = 0
	}
	v.box.Refresh()

	textTop := pos
	textSize := size
	if v.img != nil {
		pad := 8 * zoom
		imgH := size.Height * 0.6
		v.img.Move(pos.Add(fyne.NewPos(pad, pad)))
		v.img.Resize(fyne.NewSize(size.Width-2*pad, imgH-pad))
		v.img.Refresh()
		textTop = pos.Add(fyne.NewPos(0, imgH))
		textSize = fyne.NewSize(size.Width, size.Height-imgH)
	}
	v.label.Text = v.content
	v.label.Color = st.TextColor
	v.label.TextSize = 14 * zoom
	if st.Root {
		v.label.TextStyle = fyne.TextStyle{Bold: true}
	}
	v.label.Move(textTop)
	v.label.Resize(textSize)
	if st.Editing {
		v.label.Hide()
	} else {
		v.label.Show()
	}
	v.label.Refresh()

	if st.Selected {
		hr := editor.HandleRect(s)
		v.handle.FillColor = f.Selection
		v.handle.Move(fyne.NewPos(float32(hr.X), float32(hr.Y)))
		v.handle.Resize(fyne.NewSize(float32(hr.W), float32(hr.H)))
		v.handle.Show()
	} else {
		v.handle.Hide()
	}
	v.handle.Refresh()
}

// editEntry is the inline text editor. Enter commits, Escape cancels and
// losing focus commits.
type editEntry struct {
	widget.Entry
	c      *MapCanvas
	nodeID string
}

func newEditEntry(c *MapCanvas) *editEntry {
	e := &editEntry{c: c}
	e.ExtendBaseWidget(e)
	e.OnChanged = func(s string) {
		if c.ed != nil {
			c.ed.SetEditText(s)
		}
	}
	e.OnSubmitted = func(string) {
		if c.ed != nil {
			c.ed.KeyDown(editor.KeyEnter, editor.Modifiers{})
		}
	}
	e.Hide()
	return e
}

func (e *editEntry) TypedKey(ev *fyne.KeyEvent) {
	if ev.Name == fyne.KeyEscape && e.c.ed != nil {
		e.c.ed.KeyDown(editor.KeyEscape, editor.Modifiers{})
		return
	}
	e.Entry.TypedKey(ev)
}

func (e *editEntry) FocusLost() {
	e.Entry.FocusLost()
	if e.c.ed != nil && e.c.ed.Mode() == editor.EditingText {
		e.c.ed.CommitEdit()
	}
}
