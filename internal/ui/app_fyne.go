//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"nebula/internal/config"
	"nebula/internal/crash"
	"nebula/internal/editor"
	"nebula/internal/export"
	"nebula/internal/host"
	applog "nebula/internal/log"
	"nebula/internal/mindmap"
	"nebula/internal/render"
	"nebula/internal/storage"
	"nebula/internal/telemetry"
	"nebula/internal/version"
)

// session is the state of one window: the editor, the document path and
// the services it talks to.
type session struct {
	w        fyne.Window
	prefs    fyne.Preferences
	cfg      config.AppConfig
	ed       *editor.Editor
	mc       *MapCanvas
	exporter *export.Exporter
	policy   storage.Policy
	shell    host.Shell
	status   *widget.Label
	path     string
	log      *slog.Logger
}

// Run starts the desktop UI. launchPath, if not empty, is opened once the
// window is up.
func Run(launchPath string) error {
	cfg, err := config.Load()
	applog.Init(applog.FromConfig(cfg.Logging))
	l := applog.WithComponent("ui")
	if err != nil {
		l.Warn("config file ignored", slog.Any("err", err))
	}
	l.Info("starting UI")

	s := &session{cfg: cfg, log: l}
	defer crash.RecoverWith(s.snapshot)

	policy, err := storage.ParsePolicy(cfg.Import.Validation)
	if err != nil {
		l.Warn("invalid import policy, using repair", slog.Any("err", err))
		policy = storage.Repair
	}
	s.policy = policy
	s.exporter = export.NewExporter(export.Options{
		Footprint: export.ParseFootprint(cfg.Export.Footprint),
		Padding:   cfg.Export.Padding,
		Scale:     cfg.Export.Scale,
	})

	fyneApp := app.NewWithID("dev.nebula.mindmap")
	s.w = fyneApp.NewWindow("Nebula")
	s.prefs = fyneApp.Preferences()
	winW := s.prefs.IntWithFallback("window.width", 1200)
	winH := s.prefs.IntWithFallback("window.height", 800)
	s.w.Resize(fyne.NewSize(float32(max(winW, 800)), float32(max(winH, 600))))

	themeName := s.prefs.StringWithFallback("theme", cfg.General.Theme)
	if _, ok := config.EnvOverrideFor("general.theme"); ok {
		themeName = cfg.General.Theme
	}

	s.status = widget.NewLabel("Ready")
	s.mc = NewMapCanvas()
	s.mc.OnMenu = s.showNodeMenu
	s.ed = editor.New(mindmap.New(), float64(winW), float64(winH), editor.Options{
		Theme:         render.ParseTheme(themeName),
		Anchors:       render.ParseAnchors(cfg.Export.Footprint),
		ZoomStep:      cfg.Canvas.ZoomStep,
		ChildDistance: cfg.Canvas.ChildDistance,
		Surface:       s.mc,
		Hooks: editor.Hooks{
			Save:      func([]mindmap.Node) { s.save(false) },
			PickImage: s.pickImage,
			Rendered: func(f render.Frame) {
				s.mc.Show(f)
				s.updateStatus()
			},
		},
	})
	s.mc.Attach(s.ed)

	s.w.SetMainMenu(s.mainMenu())
	// Save and center go through the editor so they are ignored while a
	// node is being edited.
	for _, k := range []fyne.KeyName{fyne.KeyS, fyne.KeyC} {
		key := strings.ToLower(string(k))
		s.w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: k, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) {
			s.ed.KeyDown(key, editor.Modifiers{Ctrl: true})
		})
	}
	s.w.SetContent(container.NewBorder(s.toolbar(), s.status, nil, nil, s.mc))

	s.w.SetCloseIntercept(func() {
		sz := s.w.Canvas().Size()
		s.prefs.SetInt("window.width", int(sz.Width))
		s.prefs.SetInt("window.height", int(sz.Height))
		s.prefs.SetString("theme", string(s.ed.Theme()))
		s.w.Close()
	})

	sh := host.NewOSShell(os.Args[1:], cfg.General.FileExtension)
	defer sh.Close()
	s.shell = sh
	if launchPath == "" {
		launchPath, _ = sh.LaunchPath()
	}
	s.w.SetOnDropped(func(_ fyne.Position, uris []fyne.URI) {
		for _, u := range uris {
			if strings.EqualFold(u.Extension(), cfg.General.FileExtension) {
				sh.RequestOpen(u.Path())
			}
		}
	})
	go func() {
		for p := range sh.FileOpenRequests() {
			fyne.Do(func() { s.open(p) })
		}
	}()

	fyneApp.Lifecycle().SetOnStarted(func() {
		c := s.mc.Size()
		s.ed.SetViewSize(float64(c.Width), float64(c.Height))
		s.ed.CenterView()
		s.w.Canvas().Focus(s.mc)
		if launchPath != "" {
			s.open(launchPath)
		}
	})

	s.w.ShowAndRun()
	return nil
}

func (s *session) snapshot() *storage.Handle {
	if s.ed == nil {
		return nil
	}
	return &storage.Handle{Path: s.path, Nodes: s.ed.Store().Nodes()}
}

func (s *session) updateStatus() {
	if s.status == nil {
		return
	}
	name := "untitled"
	if s.path != "" {
		name = filepath.Base(s.path)
	}
	vp := s.ed.Viewport()
	s.status.SetText(fmt.Sprintf("%s · %d nodes · %d%%", name, s.ed.Store().Len(), vp.Percent()))
}

func (s *session) setPath(p string) {
	s.path = p
	title := "Nebula"
	if p != "" {
		title = "Nebula · " + filepath.Base(p)
		addRecentFile(s.prefs, p)
	}
	s.w.SetTitle(title)
	s.updateStatus()
}

func (s *session) toolbar() *widget.Toolbar {
	return widget.NewToolbar(
		widget.NewToolbarAction(theme.ContentAddIcon(), func() { s.ed.AddChild() }),
		widget.NewToolbarAction(theme.DeleteIcon(), func() { s.ed.DeleteSelected() }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.FolderOpenIcon(), s.openDialog),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), func() { s.save(false) }),
		widget.NewToolbarAction(theme.DownloadIcon(), func() { s.exportDialog(export.Format(s.cfg.Export.Format)) }),
		widget.NewToolbarAction(theme.ContentClearIcon(), s.confirmClear),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ColorPaletteIcon(), func() { s.ed.ToggleTheme() }),
		widget.NewToolbarAction(theme.ZoomInIcon(), func() { s.ed.ZoomIn() }),
		widget.NewToolbarAction(theme.ZoomOutIcon(), func() { s.ed.ZoomOut() }),
		widget.NewToolbarAction(theme.ViewRestoreIcon(), func() { s.ed.ResetView() }),
	)
}

func (s *session) mainMenu() *fyne.MainMenu {
	newItem := fyne.NewMenuItem("New", func() {
		s.confirm("New Map", "Discard the current map and start a new one?", func() {
			s.ed.ClearAll()
			s.setPath("")
		})
	})
	openItem := fyne.NewMenuItem("Open…", s.openDialog)
	recentItem := fyne.NewMenuItem("Open Recent", nil)
	recentItem.ChildMenu = fyne.NewMenu("")
	for _, p := range loadRecentFiles(s.prefs) {
		recentItem.ChildMenu.Items = append(recentItem.ChildMenu.Items, fyne.NewMenuItem(p, func() { s.open(p) }))
	}
	saveItem := fyne.NewMenuItem("Save", func() { s.save(false) })
	saveAsItem := fyne.NewMenuItem("Save As…", func() { s.save(true) })
	newItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyN, Modifier: fyne.KeyModifierShortcutDefault}
	openItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierShortcutDefault}
	fileMenu := fyne.NewMenu("File", newItem, openItem, recentItem, fyne.NewMenuItemSeparator(), saveItem, saveAsItem)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Add Child", func() { s.ed.AddChild() }),
		fyne.NewMenuItem("Delete", func() { s.ed.DeleteSelected() }),
		fyne.NewMenuItem("Clear Map…", s.confirmClear),
	)
	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", func() { s.ed.ZoomIn() }),
		fyne.NewMenuItem("Zoom Out", func() { s.ed.ZoomOut() }),
		fyne.NewMenuItem("Reset View", func() { s.ed.ResetView() }),
		fyne.NewMenuItem("Toggle Theme", func() { s.ed.ToggleTheme() }),
	)
	exportMenu := fyne.NewMenu("Export",
		fyne.NewMenuItem("Export as PDF…", func() { s.exportDialog(export.FormatPDF) }),
		fyne.NewMenuItem("Export as PNG…", func() { s.exportDialog(export.FormatPNG) }),
		fyne.NewMenuItem("Export as SVG…", func() { s.exportDialog(export.FormatSVG) }),
	)
	aboutMenu := fyne.NewMenu("About", fyne.NewMenuItem("About Nebula", func() {
		info := fmt.Sprintf("Nebula\nVersion: %s\nOS: %s\nArch: %s\nGo: %s", version.String(), runtime.GOOS, runtime.GOARCH, runtime.Version())
		if p, err := config.ConfigPath(); err == nil {
			info += "\nConfig: " + p
		}
		dialog.ShowInformation("About", info, s.w)
	}))
	return fyne.NewMainMenu(fileMenu, editMenu, viewMenu, exportMenu, aboutMenu)
}

func (s *session) confirm(title, msg string, ok func()) {
	dialog.ShowConfirm(title, msg, func(yes bool) {
		if yes {
			ok()
		}
	}, s.w)
}

func (s *session) confirmClear() {
	s.confirm("Clear Map", "Remove every node except the central topic?", s.ed.ClearAll)
}

func (s *session) openDialog() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, s.w)
			return
		}
		if rc == nil {
			return
		}
		p := rc.URI().Path()
		_ = rc.Close()
		s.open(p)
	}, s.w)
	fd.SetFilter(fstorage.NewExtensionFileFilter([]string{s.cfg.General.FileExtension}))
	fd.Show()
}

// open reads path off the UI goroutine and loads it when done. A document
// that does not parse is reported; its latest backup is only loaded when
// the user asks for it.
func (s *session) open(path string) {
	l := applog.WithOperation(s.log, "open")
	l.Info("opening document", slog.String("path", path))
	go func() {
		defer crash.RecoverWith(s.snapshot)
		h, err := storage.Open(s.shell, path, s.policy)
		fyne.Do(func() {
			var pe *storage.ParseError
			switch {
			case errors.As(err, &pe):
				l.Error("document does not parse", slog.Any("err", err))
				s.confirm("Open", fmt.Sprintf("%s could not be read:\n%v\n\nLoad its latest backup instead?", filepath.Base(path), pe), func() {
					s.restoreBackup(path)
				})
			case err != nil:
				l.Error("open failed", slog.Any("err", err))
				dialog.ShowError(err, s.w)
			default:
				s.load(h)
			}
		})
	}()
}

func (s *session) restoreBackup(path string) {
	go func() {
		defer crash.RecoverWith(s.snapshot)
		h, err := storage.OpenLatestBackup(s.shell, path, s.policy)
		fyne.Do(func() {
			if err != nil {
				applog.WithOperation(s.log, "open").Error("backup restore failed", slog.Any("err", err))
				dialog.ShowError(err, s.w)
				return
			}
			s.load(h)
		})
	}()
}

func (s *session) load(h *storage.Handle) {
	if err := s.ed.Load(h.Nodes); err != nil {
		dialog.ShowError(err, s.w)
		return
	}
	s.setPath(h.Path)
	switch {
	case h.FromBackup:
		dialog.ShowInformation("Open", "The latest backup was loaded. Saving replaces the damaged file.", s.w)
	case len(h.Violations) > 0:
		dialog.ShowInformation("Open", fmt.Sprintf("The document was repaired (%d problems fixed).", len(h.Violations)), s.w)
	}
}

// save writes to the current path, asking for one first if needed.
func (s *session) save(as bool) {
	if s.path == "" || as {
		fd := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, s.w)
				return
			}
			if wc == nil {
				return
			}
			p := wc.URI().Path()
			_ = wc.Close()
			if !strings.EqualFold(filepath.Ext(p), s.cfg.General.FileExtension) {
				p += s.cfg.General.FileExtension
			}
			s.writeTo(p)
		}, s.w)
		fd.SetFileName(storage.ExportFileName(time.Now()))
		fd.SetFilter(fstorage.NewExtensionFileFilter([]string{s.cfg.General.FileExtension}))
		fd.Show()
		return
	}
	s.writeTo(s.path)
}

func (s *session) writeTo(p string) {
	if err := storage.Save(s.shell, &storage.Handle{Path: p, Nodes: s.ed.Store().Nodes()}); err != nil {
		applog.WithOperation(s.log, "save").Error("save failed", slog.Any("err", err))
		dialog.ShowError(err, s.w)
		return
	}
	s.setPath(p)
}

func (s *session) exportDialog(format export.Format) {
	if _, err := export.ParseFormat(string(format)); err != nil {
		format = export.FormatPDF
	}
	if s.exporter.Busy() {
		dialog.ShowInformation("Export", "An export is already running.", s.w)
		return
	}
	fd := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, s.w)
			return
		}
		if wc == nil {
			return
		}
		p := wc.URI().Path()
		_ = wc.Close()
		nodes := s.ed.Store().Nodes()
		go func() {
			defer crash.RecoverWith(s.snapshot)
			err := s.exporter.ExportFile(context.Background(), p, format, nodes)
			fyne.Do(func() {
				switch {
				case errors.Is(err, export.ErrBusy):
					dialog.ShowInformation("Export", "An export is already running.", s.w)
				case err != nil:
					dialog.ShowError(err, s.w)
				default:
					telemetry.Default().Track("export", map[string]any{"format": string(format), "nodes": len(nodes), "surface": "ui"})
					dialog.ShowInformation("Export", "Exported to "+p, s.w)
				}
			})
		}()
	}, s.w)
	fd.SetFileName(export.DefaultFileName(format))
	fd.SetFilter(fstorage.NewExtensionFileFilter([]string{format.Ext()}))
	fd.Show()
}

func (s *session) pickImage(nodeID string) {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, s.w)
			return
		}
		if rc == nil {
			return
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			dialog.ShowError(err, s.w)
			return
		}
		if !s.ed.AttachImage(nodeID, data, rc.URI().MimeType()) {
			dialog.ShowInformation("Attach Image", "The selected file is not an image.", s.w)
		}
	}, s.w)
	fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".gif"}))
	fd.Show()
}

func (s *session) showNodeMenu(m editor.ContextMenu) {
	colors := fyne.NewMenuItem("Color", nil)
	colors.ChildMenu = fyne.NewMenu("")
	for _, c := range render.Swatches {
		colors.ChildMenu.Items = append(colors.ChildMenu.Items, fyne.NewMenuItem(swatchLabel(c), func() { s.ed.ChooseMenu(editor.MenuRecolor, c) }))
	}
	menu := fyne.NewMenu("",
		fyne.NewMenuItem("Add Child", func() { s.ed.ChooseMenu(editor.MenuAddChild, "") }),
		fyne.NewMenuItem("Edit Text", func() { s.ed.ChooseMenu(editor.MenuEdit, "") }),
		fyne.NewMenuItem("Attach Image…", func() { s.ed.ChooseMenu(editor.MenuAttachImage, "") }),
		colors,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Delete", func() { s.ed.ChooseMenu(editor.MenuDelete, "") }),
	)
	abs := fyne.CurrentApp().Driver().AbsolutePositionForObject(s.mc)
	pos := abs.Add(fyne.NewPos(float32(m.At.X), float32(m.At.Y)))
	widget.ShowPopUpMenuAtPosition(menu, s.w.Canvas(), pos)
}

func swatchLabel(c string) string {
	switch c {
	case render.TokenNodeBg:
		return "Default"
	case render.TokenAccent:
		return "Accent"
	}
	return c
}

// Recent file persistence.
const recentPrefsKey = "recent.files"
const recentMax = 10

func loadRecentFiles(p fyne.Preferences) []string {
	raw := p.StringWithFallback(recentPrefsKey, "")
	var items []string
	if strings.TrimSpace(raw) != "" {
		_ = json.Unmarshal([]byte(raw), &items)
	}
	out := make([]string, 0, len(items))
	for _, s := range items {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := os.Stat(s); err == nil {
			out = append(out, s)
		}
	}
	return out
}

func saveRecentFiles(p fyne.Preferences, items []string) {
	if len(items) > recentMax {
		items = items[:recentMax]
	}
	b, _ := json.Marshal(items)
	p.SetString(recentPrefsKey, string(b))
}

func addRecentFile(p fyne.Preferences, path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	abs, _ := filepath.Abs(path)
	rec := loadRecentFiles(p)
	out := make([]string, 0, 1+len(rec))
	out = append(out, abs)
	for _, s := range rec {
		if strings.EqualFold(s, abs) {
			continue
		}
		out = append(out, s)
	}
	saveRecentFiles(p, out)
}
